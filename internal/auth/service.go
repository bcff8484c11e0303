// Package auth はマジックリンク認証フロー、セッション発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/token"
)

// Mailer はマジックリンクメールの送信インターフェース。
type Mailer interface {
	// SendMagicLink はログイン用マジックリンクをメールで送信する。
	SendMagicLink(ctx context.Context, to, magicURL string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// AllowedEmailDomains はログインを許可するメールドメインの一覧。
	AllowedEmailDomains []string
	// FrontendURL はマジックリンクのリンク先となるフロントエンドのベースURL。
	FrontendURL string
	// Production が真の場合、メール未設定時の開発用バイパスを拒否する。
	Production bool
}

// LinkResult はマジックリンク要求の結果。
type LinkResult struct {
	// Sent はメール送信が行われたかどうか。
	Sent bool
	// MagicLink はメール未設定の開発環境でのみ設定される直接リンク。
	MagicLink string
}

// Service はマジックリンク認証に関するビジネスロジックを提供する。
type Service struct {
	signer   *token.MagicLinkSigner
	sessions *token.SessionCodec
	userRepo repository.UserRepository
	mailer   Mailer // nilの場合はメール未設定
	config   ServiceConfig
	logger   *slog.Logger
}

// NewService はServiceを生成する。mailerがnilの場合、開発環境では
// マジックリンクをレスポンスで直接返すバイパスが有効になる。
func NewService(
	signer *token.MagicLinkSigner,
	sessions *token.SessionCodec,
	userRepo repository.UserRepository,
	mailer Mailer,
	config ServiceConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		signer:   signer,
		sessions: sessions,
		userRepo: userRepo,
		mailer:   mailer,
		config:   config,
		logger:   logger,
	}
}

// RequestLink はマジックリンクを発行し、メールで送信する。
// メールアドレスは小文字に正規化され、許可ドメインのみ受け付ける。
// メール未設定の開発環境ではリンクを直接返す。
func (s *Service) RequestLink(ctx context.Context, email string) (*LinkResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !s.domainAllowed(email) {
		return nil, model.NewDomainNotAllowedError(s.config.AllowedEmailDomains)
	}

	magicURL, err := s.buildMagicURL(s.signer.Mint(email))
	if err != nil {
		return nil, err
	}

	if s.mailer == nil {
		if s.config.Production {
			// 本番環境ではリンクの直接返却を許可しない
			s.logger.Error("メール送信が未設定のためマジックリンクを発行できません")
			return nil, model.NewDeliveryFailureError("メール送信が設定されていません")
		}
		s.logger.Info("開発モード: マジックリンクを直接返します",
			slog.String("email", email),
		)
		return &LinkResult{Sent: false, MagicLink: magicURL}, nil
	}

	if err := s.mailer.SendMagicLink(ctx, email, magicURL); err != nil {
		s.logger.Error("マジックリンクメールの送信に失敗しました",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDeliveryFailureError(err.Error())
	}

	s.logger.Info("マジックリンクメールを送信しました",
		slog.String("email", email),
	)
	return &LinkResult{Sent: true}, nil
}

// Redeem はマジックリンクトークンを検証し、ユーザーとセッショントークンを返す。
// 初回ログインのユーザーは自動登録される。
// 検証失敗は理由を区別せず一律にInvalidTokenエラーを返す。
func (s *Service) Redeem(ctx context.Context, magicToken string) (*model.User, string, error) {
	email, err := s.signer.Verify(magicToken)
	if err != nil {
		return nil, "", model.NewInvalidTokenError()
	}

	user, err := s.userRepo.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find or create user: %w", err)
	}

	sessionToken, err := s.sessions.Mint(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mint session token: %w", err)
	}

	s.logger.Info("ログインしました",
		slog.Int64("user_id", user.ID),
	)
	return user, sessionToken, nil
}

// domainAllowed はメールアドレスのドメインが許可リストに含まれるか判定する。
func (s *Service) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range s.config.AllowedEmailDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}

// buildMagicURL はフロントエンドのコールバックURLにトークンを付与する。
func (s *Service) buildMagicURL(magicToken string) (string, error) {
	base, err := url.Parse(s.config.FrontendURL)
	if err != nil {
		return "", fmt.Errorf("フロントエンドURLのパースに失敗しました: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + "/auth/callback"
	q := base.Query()
	q.Set("token", magicToken)
	base.RawQuery = q.Encode()
	return base.String(), nil
}
