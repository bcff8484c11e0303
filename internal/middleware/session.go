// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// credentialExtractor はリクエストからセッショントークンを取り出す。
// トークンが存在しない場合は空文字列を返す。
type credentialExtractor func(r *http.Request) string

// cookieExtractor は指定名のCookieからトークンを取り出す。
func cookieExtractor(cookieName string) credentialExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// bearerExtractor はAuthorizationヘッダーのBearerトークンを取り出す。
func bearerExtractor(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// NewSessionMiddleware はCookieまたはAuthorizationヘッダーのセッションJWTを
// 検証するミドルウェアを返す。Cookieを優先し、なければBearerトークンを使う。
// トークンのユーザーがDBに存在しメールアドレスも一致する場合のみ通過させ、
// 認証済みユーザーをリクエストコンテキストに注入する。
// 失敗理由は区別せず、常に401 UNAUTHENTICATEDを返す。
func NewSessionMiddleware(sessions *token.SessionCodec, userRepo repository.UserRepository, cookieName string) func(next http.Handler) http.Handler {
	// 抽出順は固定: Cookie → Authorizationヘッダー
	extractors := []credentialExtractor{
		cookieExtractor(cookieName),
		bearerExtractor,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			for _, extract := range extractors {
				if tokenStr = extract(r); tokenStr != "" {
					break
				}
			}
			if tokenStr == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			claims, err := sessions.Verify(tokenStr)
			if err != nil {
				// トークンの中身はログに出さない
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// トークンが有効でも、IDとメールの組がDBに存在しなければ拒否する
			user, err := userRepo.FindByIDAndEmail(r.Context(), userID, claims.Email)
			if err != nil {
				slog.Error("failed to find user for session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
