package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/token"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	findByIDAndEmailFn  func(ctx context.Context, id int64, email string) (*model.User, error)
	findOrCreateFn      func(ctx context.Context, email string) (*model.User, error)
	updateProfileFn     func(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByIDAndEmail(ctx context.Context, id int64, email string) (*model.User, error) {
	if m.findByIDAndEmailFn != nil {
		return m.findByIDAndEmailFn(ctx, id, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindOrCreateByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, email)
	}
	return &model.User{ID: 1, Email: email}, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, update)
	}
	return nil, nil
}

type mockMailer struct {
	sendFn func(ctx context.Context, to, magicURL string) error
	sent   []string
}

func (m *mockMailer) SendMagicLink(ctx context.Context, to, magicURL string) error {
	m.sent = append(m.sent, magicURL)
	if m.sendFn != nil {
		return m.sendFn(ctx, to, magicURL)
	}
	return nil
}

func newTestService(mailer Mailer, production bool) *Service {
	return NewService(
		token.NewMagicLinkSigner("magic-secret", 15*time.Minute),
		token.NewSessionCodec("session-secret", time.Hour),
		&mockUserRepo{},
		mailer,
		ServiceConfig{
			AllowedEmailDomains: []string{"vanderbilt.edu", "gmail.com"},
			FrontendURL:         "http://localhost:5173",
			Production:          production,
		},
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
}

// --- RequestLink ---

// 許可ドメインのメールにマジックリンクが送信されることを検証
func TestService_RequestLink_SendsMail(t *testing.T) {
	mailer := &mockMailer{}
	svc := newTestService(mailer, false)

	result, err := svc.RequestLink(context.Background(), "Alice@Vanderbilt.EDU")
	if err != nil {
		t.Fatalf("RequestLink() error = %v", err)
	}
	if !result.Sent {
		t.Error("expected Sent = true")
	}
	if result.MagicLink != "" {
		t.Error("magic link must not be returned when mail is configured")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	if !strings.HasPrefix(mailer.sent[0], "http://localhost:5173/auth/callback?token=") {
		t.Errorf("magic URL = %q", mailer.sent[0])
	}
}

// 許可外ドメインが拒否されることを検証
func TestService_RequestLink_DomainNotAllowed(t *testing.T) {
	svc := newTestService(&mockMailer{}, false)

	tests := []string{
		"eve@blocked.com",
		"mallory@vanderbilt.edu.evil.com",
		"no-at-sign",
		"@vanderbilt.edu",
	}

	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			_, err := svc.RequestLink(context.Background(), email)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDomainNotAllowed {
				t.Fatalf("RequestLink(%q) error = %v, want DOMAIN_NOT_ALLOWED", email, err)
			}
			// エラーメッセージに許可ドメインが含まれること
			if !strings.Contains(apiErr.Message, "vanderbilt.edu") {
				t.Errorf("message %q does not name allowed domains", apiErr.Message)
			}
		})
	}
}

// メール未設定の開発環境ではリンクを直接返すことを検証
func TestService_RequestLink_DevBypass(t *testing.T) {
	svc := newTestService(nil, false)

	result, err := svc.RequestLink(context.Background(), "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("RequestLink() error = %v", err)
	}
	if result.Sent {
		t.Error("expected Sent = false in dev bypass")
	}
	if !strings.Contains(result.MagicLink, "token=") {
		t.Errorf("MagicLink = %q, want direct link", result.MagicLink)
	}
}

// 本番環境ではメール未設定のバイパスを拒否することを検証
func TestService_RequestLink_ProductionRefusesBypass(t *testing.T) {
	svc := newTestService(nil, true)

	_, err := svc.RequestLink(context.Background(), "alice@vanderbilt.edu")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeliveryFailure {
		t.Fatalf("error = %v, want DELIVERY_FAILURE", err)
	}
}

// メール送信失敗がDeliveryFailureになり、送信側のエラー内容を含むことを検証
func TestService_RequestLink_MailFailure(t *testing.T) {
	mailer := &mockMailer{
		sendFn: func(ctx context.Context, to, magicURL string) error {
			return errors.New("resend is down")
		},
	}
	svc := newTestService(mailer, true)

	_, err := svc.RequestLink(context.Background(), "alice@vanderbilt.edu")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDeliveryFailure {
		t.Fatalf("error = %v, want DELIVERY_FAILURE", err)
	}
	if !strings.Contains(apiErr.Message, "resend is down") {
		t.Errorf("message = %q, want it to include the mailer error", apiErr.Message)
	}
}

// --- Redeem ---

// 正規トークンの引き換えでユーザー登録とセッション発行が行われることを検証
func TestService_Redeem_CreatesUserAndSession(t *testing.T) {
	svc := newTestService(nil, false)

	result, err := svc.RequestLink(context.Background(), "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("RequestLink() error = %v", err)
	}
	magicToken := extractToken(t, result.MagicLink)

	user, sessionToken, err := svc.Redeem(context.Background(), magicToken)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if user.Email != "alice@vanderbilt.edu" {
		t.Errorf("user.Email = %q", user.Email)
	}

	claims, err := svc.sessions.Verify(sessionToken)
	if err != nil {
		t.Fatalf("session token invalid: %v", err)
	}
	if claims.Email != "alice@vanderbilt.edu" {
		t.Errorf("claims.Email = %q", claims.Email)
	}
}

// 不正・期限切れトークンが一律のInvalidTokenエラーになることを検証
func TestService_Redeem_InvalidToken(t *testing.T) {
	svc := newTestService(nil, false)

	// 負のmaxAgeで発行直後から期限切れのトークンを作る
	expiredSigner := token.NewMagicLinkSigner("magic-secret", -time.Second)
	expired := expiredSigner.Mint("alice@vanderbilt.edu")

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-real-token"},
		{name: "empty", token: ""},
		{name: "expired", token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Redeem(context.Background(), tt.token)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
				t.Fatalf("Redeem() error = %v, want INVALID_TOKEN", err)
			}
		})
	}
}

// 同一メールの同時引き換えでも単一ユーザーに収束することを検証
// （リポジトリが一意制約違反後の再読込で既存行を返すケース）
func TestService_Redeem_ConcurrentFindOrCreate(t *testing.T) {
	existing := &model.User{ID: 7, Email: "alice@vanderbilt.edu"}
	calls := 0
	repo := &mockUserRepo{
		findOrCreateFn: func(ctx context.Context, email string) (*model.User, error) {
			calls++
			// 2回目以降は既存行が返る想定
			return existing, nil
		},
	}

	svc := newTestService(nil, false)
	svc.userRepo = repo

	result, err := svc.RequestLink(context.Background(), "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("RequestLink() error = %v", err)
	}
	magicToken := extractToken(t, result.MagicLink)

	u1, _, err := svc.Redeem(context.Background(), magicToken)
	if err != nil {
		t.Fatalf("first Redeem() error = %v", err)
	}
	u2, _, err := svc.Redeem(context.Background(), magicToken)
	if err != nil {
		t.Fatalf("second Redeem() error = %v", err)
	}
	if u1.ID != u2.ID {
		t.Errorf("redeems resolved to different users: %d / %d", u1.ID, u2.ID)
	}
	if calls != 2 {
		t.Errorf("FindOrCreateByEmail called %d times, want 2", calls)
	}
}

// extractToken はマジックリンクURLからtokenクエリパラメータを抜き出す。
func extractToken(t *testing.T, magicURL string) string {
	t.Helper()
	idx := strings.Index(magicURL, "token=")
	if idx < 0 {
		t.Fatalf("no token in %q", magicURL)
	}
	return magicURL[idx+len("token="):]
}
