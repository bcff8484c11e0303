package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/abroadly/internal/ai"
	"github.com/hitoshi/abroadly/internal/auth"
	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/config"
	"github.com/hitoshi/abroadly/internal/database"
	"github.com/hitoshi/abroadly/internal/handler"
	"github.com/hitoshi/abroadly/internal/logger"
	"github.com/hitoshi/abroadly/internal/mail"
	"github.com/hitoshi/abroadly/internal/message"
	"github.com/hitoshi/abroadly/internal/metrics"
	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/place"
	"github.com/hitoshi/abroadly/internal/program"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
	"github.com/hitoshi/abroadly/internal/token"
	"github.com/hitoshi/abroadly/internal/trip"
	"github.com/hitoshi/abroadly/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("environment", string(cfg.Environment)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	programRepo := repository.NewPostgresProgramRepo(db)
	placeRepo := repository.NewPostgresPlaceRepo(db)
	tripRepo := repository.NewPostgresTripRepo(db)
	bookmarkRepo := repository.NewPostgresBookmarkRepo(db)
	messageRepo := repository.NewPostgresMessageRepo(db)

	// 3. トークン・セキュリティ・メトリクスの初期化
	magicSigner := token.NewMagicLinkSigner(cfg.MagicLinkSecret, cfg.MagicLinkTTL)
	sessionCodec := token.NewSessionCodec(cfg.JWTSecret, cfg.JWTTTL)
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. メール送信の初期化（APIキー未設定時は開発モード）
	var mailer auth.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = mail.NewClient(
			&http.Client{Timeout: 10 * time.Second},
			slog.Default(), cfg.ResendAPIKey, cfg.EmailFrom,
		)
	} else {
		slog.Warn("RESEND_API_KEYが未設定のため開発モードで起動します")
	}

	// 5. ドメインサービスの初期化
	authService := auth.NewService(
		magicSigner, sessionCodec, userRepo, mailer,
		auth.ServiceConfig{
			AllowedEmailDomains: cfg.AllowedEmailDomains,
			FrontendURL:         cfg.FrontendURL,
			Production:          cfg.IsProduction(),
		},
		slog.Default(),
	)
	userService := user.NewService(userRepo, programRepo, placeRepo, tripRepo, sanitizer, slog.Default())
	programService := program.NewService(programRepo, sanitizer, slog.Default())
	placeService := place.NewService(placeRepo, sanitizer, slog.Default())
	tripService := trip.NewService(tripRepo, sanitizer, slog.Default())
	bookmarkService := bookmark.NewService(bookmarkRepo, programRepo, placeRepo, tripRepo, slog.Default())
	messageService := message.NewService(messageRepo, userRepo, sanitizer, slog.Default())

	// 6. AIクライアントの初期化（APIキー未設定時は機能無効）
	var chatClient ai.ChatClient
	if cfg.OpenAIAPIKey != "" {
		chatClient = ai.NewOpenAIClient(
			&http.Client{Timeout: 120 * time.Second},
			slog.Default(), cfg.OpenAIAPIKey, cfg.OpenAIModel,
		)
	} else {
		slog.Warn("OPENAI_API_KEYが未設定のためAI機能は無効です")
	}
	aiService := ai.NewService(chatClient, bookmarkService, programRepo, placeRepo, tripRepo, slog.Default())

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFromLimits(cfg.RateLimitGeneral, cfg.RateLimitAI),
		collector,
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionCodec:      sessionCodec,
		UserRepo:          userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Collector:         collector,
		Gatherer:          registry,
		Logger:            slog.Default(),

		HealthChecker: db,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieName:    cfg.CookieName,
			SessionMaxAge: int(cfg.JWTTTL.Seconds()),
			Production:    cfg.IsProduction(),
		},

		UserService:     userService,
		ProgramService:  programService,
		PlaceService:    placeService,
		TripService:     tripService,
		BookmarkService: bookmarkService,
		MessageService:  messageService,
		AIService:       aiService,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	// WriteTimeoutはAIプランのストリーミングより長く取る
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
