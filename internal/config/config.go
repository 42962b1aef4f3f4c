// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	productionFrontendURL  = "https://junki-portfolio.com"
	developmentFrontendURL = "http://localhost:5173"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Credential
	JWTSecret string
	TokenTTL  time.Duration

	// OAuth
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string

	// AdminEmails はアカウント作成時に管理者フラグを付与するメールアドレス（小文字）。
	AdminEmails []string

	// Server
	Environment string
	ServerPort  string
	APIBaseURL  string
	FrontendURL string

	// CORS
	CORSAllowedOrigins []string

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitComment int

	// TrustLegacyIdentityHeaders が true の場合のみ X-User-Id / X-User-Admin を信頼する。
	TrustLegacyIdentityHeaders bool

	// TrustProxyHeaders が true の場合のみ X-Forwarded-For / X-Real-IP をクライアントIPとして扱う。
	// リバースプロキシの背後で起動する場合に設定する。
	TrustProxyHeaders bool
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	cfg.AdminEmails = splitList(os.Getenv("ADMIN_EMAILS"), true)

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.APIBaseURL = strings.TrimRight(getEnvString("API_BASE_URL", "http://localhost:"+cfg.ServerPort), "/")

	defaultFrontend := developmentFrontendURL
	if cfg.IsProduction() {
		defaultFrontend = productionFrontendURL
	}
	cfg.FrontendURL = strings.TrimRight(getEnvString("FRONTEND_URL", defaultFrontend), "/")

	cfg.CORSAllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"), false)

	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 7*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitComment = getEnvInt("RATE_LIMIT_COMMENT", 10)
	cfg.TrustLegacyIdentityHeaders = getEnvBool("TRUST_LEGACY_IDENTITY_HEADERS", false)
	cfg.TrustProxyHeaders = getEnvBool("TRUST_PROXY_HEADERS", false)

	return cfg, nil
}

// IsProduction は本番環境で起動しているかを返す。
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GitHubEnabled はGitHub OAuthの認証情報が揃っているかを返す。
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// GoogleEnabled はGoogle OAuthの認証情報が揃っているかを返す。
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// OAuthRedirectURL はプロバイダーごとのコールバックURLを返す。
func (c *Config) OAuthRedirectURL(provider string) string {
	return c.APIBaseURL + "/api/auth/" + provider + "/callback"
}

// splitList はカンマ区切りの値を空要素を除いて分割する。
func splitList(v string, lower bool) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
