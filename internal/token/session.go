package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims はセッショントークンに含まれるクレーム。
// SubjectにはユーザーIDの10進文字列を格納する。
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// UserID はSubjectをユーザーIDとして解釈する。
func (c *SessionClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// SessionCodec はHMAC-SHA256署名付きJWTでセッショントークンを発行・検証する。
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // テスト用に差し替え可能
}

// NewSessionCodec はSessionCodecを生成する。
func NewSessionCodec(secret string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint はユーザーIDとメールアドレスを主張するセッショントークンを発行する。
func (c *SessionCodec) Mint(userID int64, email string) (string, error) {
	now := c.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email: email,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify はセッショントークンを検証しクレームを返す。
// 期限切れはErrExpiredToken、それ以外の検証失敗はErrInvalidTokenを返す。
func (c *SessionCodec) Verify(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}
