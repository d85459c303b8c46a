package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Upstream
	UpstreamBaseURL string
	RevalidateTTL   time.Duration
	FetchTimeout    time.Duration
	FetchMaxSize    int64

	// View
	PageSize       int
	SearchDebounce time.Duration
	PreviewEnabled bool

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// defaultUpstreamBaseURL はリモートコレクションのデフォルトのベースオリジン。
const defaultUpstreamBaseURL = "https://jsonplaceholder.typicode.com"

// Load は環境変数からConfigを読み込む。
// 全フィールドにデフォルト値があるため、未設定の環境変数はエラーにならない。
// UPSTREAM_BASE_URLが不正なURLの場合のみエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.UpstreamBaseURL = getEnvString("UPSTREAM_BASE_URL", defaultUpstreamBaseURL)
	if _, err := url.ParseRequestURI(cfg.UpstreamBaseURL); err != nil {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL が不正です: %w", err)
	}

	cfg.RevalidateTTL = getEnvDuration("REVALIDATE_TTL", 300*time.Second)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.PageSize = getEnvInt("PAGE_SIZE", 9)
	if cfg.PageSize < 1 {
		cfg.PageSize = 9
	}
	cfg.SearchDebounce = getEnvDuration("SEARCH_DEBOUNCE", 600*time.Millisecond)
	cfg.PreviewEnabled = getEnvBool("PREVIEW_ENABLED", true)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
