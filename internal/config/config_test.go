package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.UpstreamBaseURL != "https://jsonplaceholder.typicode.com" {
		t.Errorf("UpstreamBaseURL = %q, want %q", cfg.UpstreamBaseURL, "https://jsonplaceholder.typicode.com")
	}
	if cfg.RevalidateTTL != 300*time.Second {
		t.Errorf("RevalidateTTL = %v, want %v", cfg.RevalidateTTL, 300*time.Second)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want %v", cfg.FetchTimeout, 10*time.Second)
	}
	if cfg.FetchMaxSize != 5242880 {
		t.Errorf("FetchMaxSize = %d, want %d", cfg.FetchMaxSize, 5242880)
	}
	if cfg.PageSize != 9 {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, 9)
	}
	if cfg.SearchDebounce != 600*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want %v", cfg.SearchDebounce, 600*time.Millisecond)
	}
	if !cfg.PreviewEnabled {
		t.Error("PreviewEnabled = false, want true")
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_OverrideValues(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:9090")
	t.Setenv("REVALIDATE_TTL", "30s")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("SEARCH_DEBOUNCE", "200ms")
	t.Setenv("PREVIEW_ENABLED", "false")
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.UpstreamBaseURL != "http://localhost:9090" {
		t.Errorf("UpstreamBaseURL = %q, want %q", cfg.UpstreamBaseURL, "http://localhost:9090")
	}
	if cfg.RevalidateTTL != 30*time.Second {
		t.Errorf("RevalidateTTL = %v, want %v", cfg.RevalidateTTL, 30*time.Second)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, 10)
	}
	if cfg.SearchDebounce != 200*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want %v", cfg.SearchDebounce, 200*time.Millisecond)
	}
	if cfg.PreviewEnabled {
		t.Error("PreviewEnabled = true, want false")
	}
	if cfg.ServerPort != "9999" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9999")
	}
}

func TestLoad_InvalidUpstreamURL_ReturnsError(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "://not-a-url")

	if _, err := Load(); err == nil {
		t.Fatal("不正なUPSTREAM_BASE_URLに対してエラーが返らなかった")
	}
}

func TestLoad_MalformedOptionalValues_FallBackToDefaults(t *testing.T) {
	t.Setenv("REVALIDATE_TTL", "not-a-duration")
	t.Setenv("PAGE_SIZE", "abc")
	t.Setenv("PREVIEW_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RevalidateTTL != 300*time.Second {
		t.Errorf("RevalidateTTL = %v, want デフォルト %v", cfg.RevalidateTTL, 300*time.Second)
	}
	if cfg.PageSize != 9 {
		t.Errorf("PageSize = %d, want デフォルト %d", cfg.PageSize, 9)
	}
	if !cfg.PreviewEnabled {
		t.Error("PreviewEnabled = false, want デフォルト true")
	}
}

func TestLoad_ZeroPageSize_FallsBackToDefault(t *testing.T) {
	t.Setenv("PAGE_SIZE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.PageSize != 9 {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, 9)
	}
}
