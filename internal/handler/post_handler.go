// Package handler はHTTP APIのハンドラー群を提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogview/internal/middleware"
	"github.com/hitoshi/blogview/internal/model"
	"github.com/hitoshi/blogview/internal/query"
	"github.com/hitoshi/blogview/internal/resolve"
)

// PostResolverInterface は記事ハンドラーが必要とする解決サービスのインターフェース。
type PostResolverInterface interface {
	// Resolve は一覧Queryをページネーション済みの結果セットへ解決する。
	Resolve(ctx context.Context, q model.Query) (*model.PostPage, error)
	// ResolvePost は記事詳細を解決する。記事が存在しない場合は(nil, nil)。
	ResolvePost(ctx context.Context, id int) (*resolve.PostDetail, error)
}

// PostHandler は記事閲覧のHTTPハンドラー。
type PostHandler struct {
	resolver PostResolverInterface
	pageSize int
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(resolver PostResolverInterface, pageSize int) *PostHandler {
	return &PostHandler{
		resolver: resolver,
		pageSize: pageSize,
	}
}

// --- レスポンス型 ---

// queryResponse はレスポンスに含める、解決に使われたQueryのエコー。
// クライアントは到着した結果が最新のナビゲーションに対応するものか
// これで照合する。
type queryResponse struct {
	UserID   int    `json:"userId,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// postListResponse は記事一覧のレスポンス。
type postListResponse struct {
	Items      []model.EnrichedPost `json:"items"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
	HasNext    bool                 `json:"has_next"`
	HasPrev    bool                 `json:"has_prev"`
	PageWindow []resolve.PageRef    `json:"page_window,omitempty"`
	Query      queryResponse        `json:"query"`
}

// ListPosts は記事一覧をフィルタ・検索・ページネーション付きで取得する。
// GET /api/posts?userId=2&search=xxx&page=3
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := query.Decode(r.URL.Query(), h.pageSize)

	page, err := h.resolver.Resolve(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(postListResponse{
		Items:      page.Items,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
		PageWindow: resolve.PageWindow(q.Page, page.TotalPages),
		Query: queryResponse{
			UserID:   q.UserID,
			Search:   q.Search,
			Page:     q.Page,
			PageSize: q.PageSize,
		},
	})
}

// GetPost は記事詳細（記事・著者・コメント）を取得する。
// GET /api/posts/:id
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "記事IDは正の整数で指定してください。",
			Category: "validation",
			Action:   "URLを確認してください。",
		})
		return
	}

	detail, err := h.resolver.ResolvePost(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if detail == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
