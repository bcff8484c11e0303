package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/abroadly/internal/model"
)

func testLimiterConfig(generalBurst, aiBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.0001), // テスト中に補充されない程度に遅く
		GeneralBurst:    generalBurst,
		AIRate:          rate.Limit(0.0001),
		AIBurst:         aiBurst,
		CleanupInterval: time.Hour,
	}
}

func authedRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/programs", nil)
	user := &model.User{ID: userID, Email: "alice@vanderbilt.edu"}
	return req.WithContext(ContextWithUser(req.Context(), user))
}

func TestGeneralMiddlewareAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(3, 1), nil)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest(1))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("バースト超過後のstatus = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーが設定されていない")
	}
}

// ユーザーごとに独立したリミッターを持つ。
func TestGeneralMiddlewarePerUser(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1), nil)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusOK {
		t.Fatalf("user1 first request: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user1 second request: status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(2))
	if w.Code != http.StatusOK {
		t.Errorf("別ユーザーはuser1の制限の影響を受けない: status = %d", w.Code)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
}

// AIのレート制限はAPI全般の制限と独立に動作する。
func TestAIMiddlewareIndependent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 1), nil)
	defer rl.Stop()

	aiHandler := rl.AIMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	generalHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	aiHandler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusOK {
		t.Fatalf("first AI request: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	aiHandler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second AI request: status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	generalHandler.ServeHTTP(w, authedRequest(1))
	if w.Code != http.StatusOK {
		t.Errorf("AI制限超過後もAPI全般は利用可能: status = %d", w.Code)
	}
}

func TestRateLimitUnauthenticated(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1), nil)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("未認証リクエストがハンドラーに到達した")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/programs", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRateLimiterConfigFromLimits(t *testing.T) {
	cfg := RateLimiterConfigFromLimits(60, 5)
	if cfg.GeneralBurst != 60 {
		t.Errorf("GeneralBurst = %d, want 60", cfg.GeneralBurst)
	}
	if cfg.GeneralRate != rate.Limit(1.0) {
		t.Errorf("GeneralRate = %v, want 1.0", cfg.GeneralRate)
	}
	if cfg.AIBurst != 5 {
		t.Errorf("AIBurst = %d, want 5", cfg.AIBurst)
	}
}
