package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/abroadly/internal/auth"
	"github.com/hitoshi/abroadly/internal/metrics"
	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// RequestLink はマジックリンクを発行し、メール送信または直接返却する。
	RequestLink(ctx context.Context, email string) (*auth.LinkResult, error)
	// Redeem はマジックリンクトークンを検証してセッションJWTを発行する。
	Redeem(ctx context.Context, magicToken string) (*model.User, string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieName    string
	SessionMaxAge int  // セッションCookieの有効期間（秒）
	Production    bool // Cookie属性の選択に使用
}

// AuthHandler はマジックリンク認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector // nil可
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// WithMetrics はメトリクスの記録先を設定したAuthHandlerを返す。
func (h *AuthHandler) WithMetrics(collector metrics.MetricsCollector) *AuthHandler {
	h.collector = collector
	return h
}

// requestLinkRequest はマジックリンク発行リクエストのボディ。
type requestLinkRequest struct {
	Email string `json:"email"`
}

// RequestLink はマジックリンクの発行を処理する。
// 開発環境でメール未設定の場合はリンクを直接返す。
// POST /auth/request-link
func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req requestLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.Email == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("メールアドレスが空です。"))
		return
	}

	result, err := h.service.RequestLink(r.Context(), req.Email)
	if err != nil {
		var apiErr *model.APIError
		if h.collector != nil && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDeliveryFailure {
			h.collector.RecordMailFailure()
		}
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordMagicLinkIssued()
	}

	body := map[string]any{"ok": true}
	if result.Sent {
		body["sent"] = "email"
	} else {
		// 開発モード: メール送信の代わりにリンクを直接返す
		body["magic_link"] = result.MagicLink
	}
	writeJSON(w, http.StatusOK, body)
}

// Callback はマジックリンクのトークンを検証し、セッションCookieを設定する。
// GET /auth/callback?token=xxx
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	magicToken := r.URL.Query().Get("token")
	if magicToken == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
		return
	}

	user, sessionToken, err := h.service.Redeem(r.Context(), magicToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.collector != nil {
		h.collector.RecordMagicLinkRedeemed()
	}

	h.setSessionCookie(w, sessionToken)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"token": sessionToken,
		"user":  toUserResponse(user),
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout はセッションCookieをクリアする。
// セッションはステートレスなJWTのためサーバー側の破棄は行わない。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// setSessionCookie は環境に応じた属性でセッションCookieを設定する。
// 本番: Secure + SameSite=None（クロスサイトのフロントエンドを許可）。
// 開発: SameSite=Lax、Secure無し。Domainは常に未指定（ホスト限定）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionToken string) {
	cookie := &http.Cookie{
		Name:     h.config.CookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
	}
	if h.config.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	if h.config.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, cookie)
}
