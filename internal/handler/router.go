package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/abroadly/internal/metrics"
	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/token"
)

// HealthChecker はDB疎通確認に使うインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionCodec      *token.SessionCodec
	UserRepo          repository.UserRepository
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Collector         metrics.MetricsCollector
	Gatherer          prometheus.Gatherer
	Logger            *slog.Logger

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// プロフィール
	UserService UserServiceInterface

	// コンテンツ
	ProgramService ProgramServiceInterface
	PlaceService   PlaceServiceInterface
	TripService    TripServiceInterface

	// ブックマーク・メッセージ
	BookmarkService BookmarkServiceInterface
	MessageService  MessageServiceInterface

	// AI旅行プランナー
	AIService AIServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Metrics → Recovery →
//	（認証ルートのみ）Session → RateLimit(General) →（AIルートのみ）RateLimit(AI)
//
// マジックリンク発行・検証、/health、/metrics、およびカタログ・レビュー・
// 公開プロフィールの読み取り系はセッションミドルウェアの外に配置する。
// 書き込み系、ブックマーク、メッセージ、AIは認証必須。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig).WithMetrics(deps.Collector)
	userHandler := NewUserHandler(deps.UserService)
	programHandler := NewProgramHandler(deps.ProgramService)
	placeHandler := NewPlaceHandler(deps.PlaceService)
	tripHandler := NewTripHandler(deps.TripService)
	bookmarkHandler := NewBookmarkHandler(deps.BookmarkService)
	messageHandler := NewMessageHandler(deps.MessageService)
	aiHandler := NewAIHandler(deps.AIService, deps.Collector)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))
	}

	sessionMW := middleware.NewSessionMiddleware(deps.SessionCodec, deps.UserRepo, deps.AuthConfig.CookieName)
	generalRL := deps.RateLimiter.GeneralMiddleware()

	// 認証・プロフィール
	r.Route("/auth", func(r chi.Router) {
		// マジックリンクフローと公開プロフィールは認証不要
		r.Post("/request-link", authHandler.RequestLink)
		r.Get("/callback", authHandler.Callback)
		r.Get("/users/{id}/profile", userHandler.PublicProfile)
		r.Get("/users/{id}/reviews", userHandler.UserReviews)

		r.Group(func(r chi.Router) {
			r.Use(sessionMW, generalRL)

			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)

			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)

			r.Get("/my-reviews", userHandler.MyReviews)
			r.Delete("/my-reviews/{type}/{id}", userHandler.DeleteMyReview)

			r.Get("/my-programs", userHandler.MyPrograms)
			r.Get("/my-places", userHandler.MyPlaces)
			r.Get("/my-trips", userHandler.MyTrips)
		})
	})

	// プログラム管理。読み取りは公開、書き込みは認証必須。
	r.Route("/api/programs", func(r chi.Router) {
		r.Get("/", programHandler.List)
		r.With(sessionMW, generalRL).Post("/", programHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", programHandler.Get)
			r.Get("/reviews", programHandler.ListReviews)
			r.Get("/courses/reviews", programHandler.ListCourseReviews)
			r.Get("/housing/reviews", programHandler.ListHousingReviews)

			r.Group(func(r chi.Router) {
				r.Use(sessionMW, generalRL)

				r.Put("/", programHandler.Update)
				r.Delete("/", programHandler.Delete)
				r.Post("/reviews", programHandler.AddReview)
				r.Post("/courses/reviews", programHandler.AddCourseReview)
				r.Post("/housing/reviews", programHandler.AddHousingReview)
			})
		})
	})

	// スポット管理
	r.Route("/api/places", func(r chi.Router) {
		r.Get("/", placeHandler.List)
		r.With(sessionMW, generalRL).Post("/", placeHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", placeHandler.Get)
			r.Get("/reviews", placeHandler.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(sessionMW, generalRL)

				r.Put("/", placeHandler.Update)
				r.Delete("/", placeHandler.Delete)
				r.Post("/reviews", placeHandler.AddReview)
			})
		})
	})

	// 旅行管理
	r.Route("/api/trips", func(r chi.Router) {
		r.Get("/", tripHandler.List)
		r.With(sessionMW, generalRL).Post("/", tripHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", tripHandler.Get)
			r.Get("/reviews", tripHandler.ListReviews)

			r.Group(func(r chi.Router) {
				r.Use(sessionMW, generalRL)

				r.Put("/", tripHandler.Update)
				r.Delete("/", tripHandler.Delete)
				r.Post("/reviews", tripHandler.AddReview)
			})
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(sessionMW, generalRL)

		// ブックマーク管理
		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", bookmarkHandler.ListAll)
			r.Get("/programs", bookmarkHandler.ListPrograms)
			r.Get("/places", bookmarkHandler.ListPlaces)
			r.Get("/trips", bookmarkHandler.ListTrips)

			r.Post("/{kind}/{id}", bookmarkHandler.Add)
			r.Delete("/{kind}/{id}", bookmarkHandler.Remove)
		})

		// メッセージ管理
		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messageHandler.Send)
			r.Get("/inbox", messageHandler.Inbox)
			r.Get("/sent", messageHandler.Sent)
			r.Get("/unread-count", messageHandler.UnreadCount)
			r.Get("/conversation/{other}", messageHandler.Conversation)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", messageHandler.Get)
				r.Delete("/", messageHandler.Delete)
				r.Put("/read", messageHandler.MarkRead)
			})
		})

		// AI旅行プランナー（専用レート制限を追加）
		r.Route("/ai", func(r chi.Router) {
			r.With(deps.RateLimiter.AIMiddleware()).Post("/plan-trip", aiHandler.PlanTrip)
			r.With(deps.RateLimiter.AIMiddleware()).Post("/quick-suggestion", aiHandler.QuickSuggestion)
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
