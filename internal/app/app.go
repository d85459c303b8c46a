// Package app はアプリケーションの起動・ワイヤリング・シャットダウンを司る。
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

	"github.com/hitoshi/blogview/internal/config"
	"github.com/hitoshi/blogview/internal/handler"
	"github.com/hitoshi/blogview/internal/logger"
	"github.com/hitoshi/blogview/internal/metrics"
	"github.com/hitoshi/blogview/internal/middleware"
	"github.com/hitoshi/blogview/internal/preview"
	"github.com/hitoshi/blogview/internal/resolve"
	"github.com/hitoshi/blogview/internal/security"
	"github.com/hitoshi/blogview/internal/source"
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
		slog.String("upstream", cfg.UpstreamBaseURL),
	)

	switch cmd {
	case CommandCheck:
		return runCheck(cfg)
	case CommandServe:
		return runServe(cfg)
	default:
		return runServe(cfg)
	}
}

// buildSourceClient は上流クライアントとその依存をワイヤリングする。
func buildSourceClient(cfg *config.Config, recorder source.MetricsRecorder) (*source.Client, security.SSRFGuardService) {
	ssrfGuard := security.NewSSRFGuard()
	httpClient := ssrfGuard.NewSafeClient(cfg.FetchTimeout, cfg.FetchMaxSize)

	client := source.NewClient(httpClient, slog.Default(), source.Options{
		BaseURL:         cfg.UpstreamBaseURL,
		RevalidateTTL:   cfg.RevalidateTTL,
		MaxResponseSize: cfg.FetchMaxSize,
		Metrics:         recorder,
	})
	return client, ssrfGuard
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 上流クライアントとセキュリティサービスの初期化
	sourceClient, ssrfGuard := buildSourceClient(cfg, collector)
	sanitizer := security.NewContentSanitizer()

	// 3. ドメインサービスの初期化
	resolver := resolve.NewService(sourceClient, sanitizer, slog.Default())
	previewService := preview.NewService(ssrfGuard, slog.Default(), cfg.FetchTimeout, cfg.FetchMaxSize)

	// 4. レート制限の初期化
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral), slog.Default())
	defer rateLimiter.Stop()

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,

		PostResolver: resolver,
		UserResolver: resolver,
		PageSize:     cfg.PageSize,

		PreviewFetcher: previewService,
		PreviewEnabled: cfg.PreviewEnabled,

		FeedConfig: handler.FeedConfig{
			Title:       "Blogview",
			BaseURL:     cfg.BaseURL,
			Description: "最新記事のフィード",
			PageSize:    cfg.PageSize,
		},

		MetricsHandler: metrics.Handler(registry),
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

// runCheck は上流接続の一回限りの疎通確認を実行する。
// 記事・著者コレクションを取得し、件数をログに出力する。
// デプロイ後の設定検証用サブコマンド。
func runCheck(cfg *config.Config) error {
	client, _ := buildSourceClient(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	return checkUpstream(ctx, cfg.UpstreamBaseURL, client)
}

// checkUpstream は記事・著者コレクションを取得し、件数をログに出力する。
func checkUpstream(ctx context.Context, upstream string, client *source.Client) error {
	posts, err := client.GetPosts(ctx)
	if err != nil {
		return fmt.Errorf("upstream check failed (posts): %w", err)
	}

	users, err := client.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("upstream check failed (users): %w", err)
	}

	slog.Info("upstream check succeeded",
		slog.String("upstream", upstream),
		slog.Int("posts", len(posts)),
		slog.Int("users", len(users)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
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
