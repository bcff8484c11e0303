// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment はデプロイ環境を表す列挙値。
// Cookie属性の選択と開発用マジックリンク直接返却の可否を決める。
type Environment string

const (
	// EnvDevelopment はローカル開発環境。
	EnvDevelopment Environment = "development"
	// EnvProduction は本番環境。
	EnvProduction Environment = "production"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// グローバル参照はせず、必要なコンポーネントへ明示的に渡す。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	MagicLinkSecret string
	MagicLinkTTL    time.Duration
	JWTSecret       string
	JWTTTL          time.Duration
	CookieName      string

	// 許可するメールドメイン（小文字）
	AllowedEmailDomains []string

	// Email delivery (Resend)。未設定時は開発モードとしてリンクを直接返す。
	ResendAPIKey string
	EmailFrom    string

	// AI
	OpenAIAPIKey string
	OpenAIModel  string

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitAI      int

	// Server
	ServerPort  string
	AppURL      string // バックエンドの公開URL
	FrontendURL string // マジックリンクの着地先

	// CORS
	CORSAllowedOrigin string

	// Environment は起動時に1回だけ解決される。
	// 優先順位: ENVIRONMENT 環境変数 → APP_URLのスキーム（https=production）。
	// 暗黙のファイル存在チェック等のヒューリスティックは行わない。
	Environment Environment
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.MagicLinkSecret = os.Getenv("MAGIC_LINK_SECRET")
	if cfg.MagicLinkSecret == "" {
		missing = append(missing, "MAGIC_LINK_SECRET")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.AppURL = os.Getenv("APP_URL")
	if cfg.AppURL == "" {
		missing = append(missing, "APP_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MagicLinkTTL = getEnvDuration("MAGIC_LINK_TTL", 15*time.Minute)
	cfg.JWTTTL = getEnvDuration("JWT_TTL", 60*time.Minute)
	cfg.CookieName = getEnvString("COOKIE_NAME", "abroadly_session")
	cfg.AllowedEmailDomains = splitDomains(getEnvString("ALLOWED_EMAIL_DOMAINS", "vanderbilt.edu,gmail.com"))
	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-4o-mini")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAI = getEnvInt("RATE_LIMIT_AI", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.FrontendURL = getEnvString("FRONTEND_URL", "http://localhost:5173")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	env, err := resolveEnvironment(os.Getenv("ENVIRONMENT"), cfg.AppURL)
	if err != nil {
		return nil, err
	}
	cfg.Environment = env

	return cfg, nil
}

// resolveEnvironment はデプロイ環境を決定する。
// ENVIRONMENTが明示されていればそれを使い、未設定の場合のみ
// APP_URLがhttpsなら本番、それ以外は開発と判定する。
func resolveEnvironment(explicit, appURL string) (Environment, error) {
	switch strings.ToLower(explicit) {
	case "":
		if strings.HasPrefix(appURL, "https://") {
			return EnvProduction, nil
		}
		return EnvDevelopment, nil
	case string(EnvDevelopment):
		return EnvDevelopment, nil
	case string(EnvProduction):
		return EnvProduction, nil
	default:
		return "", fmt.Errorf("invalid ENVIRONMENT value: %q (must be development or production)", explicit)
	}
}

// splitDomains はカンマ区切りのドメインリストを小文字化して分割する。
func splitDomains(value string) []string {
	var domains []string
	for _, d := range strings.Split(value, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
