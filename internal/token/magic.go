// Package token はマジックリンクトークンとセッショントークンの発行・検証を提供する。
//
// 2種類のトークンは独立した秘密鍵を使用する。
//   - マジックリンクトークン: メール受信の証明に使う短命のHMAC署名付きトークン
//   - セッショントークン: ユーザーの身元と有効期限を主張する自己完結型JWT
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidToken は署名不一致または形式不正を表す。
	ErrInvalidToken = errors.New("token is invalid")
	// ErrExpiredToken は有効期限切れを表す。
	ErrExpiredToken = errors.New("token is expired")
)

// MagicLinkSigner はメールアドレスにタイムスタンプ付きHMAC-SHA256署名を施す。
// トークン自体には有効期限を埋め込まず、検証時に発行時刻からの経過時間で判定する。
type MagicLinkSigner struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time // テスト用に差し替え可能
}

// NewMagicLinkSigner はMagicLinkSignerを生成する。
// maxAgeは発行からの許容経過時間を指定する。
func NewMagicLinkSigner(secret string, maxAge time.Duration) *MagicLinkSigner {
	return &MagicLinkSigner{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Mint はメールアドレスを署名してURLセーフなトークン文字列を返す。
// 形式: base64url(email) "." base64url(発行時刻unix秒BE8バイト) "." base64url(署名)
func (s *MagicLinkSigner) Mint(email string) string {
	emailPart := base64.RawURLEncoding.EncodeToString([]byte(email))

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().Unix()))
	tsPart := base64.RawURLEncoding.EncodeToString(ts)

	body := emailPart + "." + tsPart
	sig := s.sign(body)

	return body + "." + base64.RawURLEncoding.EncodeToString(sig)
}

// Verify はトークンを検証し、署名されたメールアドレスを返す。
// 署名不一致・形式不正の場合はErrInvalidToken、
// 発行からmaxAgeを超過している場合はErrExpiredTokenを返す。
func (s *MagicLinkSigner) Verify(tok string) (string, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidToken
	}

	body := parts[0] + "." + parts[1]
	expected := s.sign(body)
	if !hmac.Equal(expected, sig) {
		return "", ErrInvalidToken
	}

	// 署名検証後に有効期限を判定する（期限切れは署名が正しい場合のみ意味を持つ）
	tsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || len(tsBytes) != 8 {
		return "", ErrInvalidToken
	}
	issuedAt := time.Unix(int64(binary.BigEndian.Uint64(tsBytes)), 0)
	if s.now().Sub(issuedAt) > s.maxAge {
		return "", ErrExpiredToken
	}

	email, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidToken
	}

	return string(email), nil
}

// sign はHMAC-SHA256署名を計算する。
func (s *MagicLinkSigner) sign(body string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
