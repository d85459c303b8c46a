package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogview/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder

	// 記事・著者
	PostResolver PostResolverInterface
	UserResolver UserResolverInterface
	PageSize     int

	// ウェブサイトプレビュー
	PreviewFetcher PreviewFetcherInterface
	PreviewEnabled bool

	// フィード配信
	FeedConfig FeedConfig

	// Prometheusスクレイプ用ハンドラー。nilの場合/metricsは公開しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → RequestID → Logging → Recovery → SecurityHeaders → RateLimit
//
// /healthzと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	postHandler := NewPostHandler(deps.PostResolver, deps.PageSize)
	userHandler := NewUserHandler(deps.UserResolver, deps.PreviewFetcher, deps.PreviewEnabled)
	feedHandler := NewFeedHandler(deps.PostResolver, deps.FeedConfig)

	// --- レート制限付きのルート ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 記事閲覧
		r.Route("/api/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.Get("/{id}", postHandler.GetPost)
		})

		// 著者情報
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
		})

		// フィード配信
		r.Get("/feed.rss", feedHandler.RSS)
		r.Get("/feed.atom", feedHandler.Atom)
	})

	// --- レート制限の外のルート ---

	// ヘルスチェック
	r.Get("/healthz", healthzHandler)

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}

// healthzHandler はヘルスチェックエンドポイント。
// 上流には触れず、プロセスの生存のみを応答する。
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
