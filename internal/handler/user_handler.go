package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogview/internal/middleware"
	"github.com/hitoshi/blogview/internal/model"
	"github.com/hitoshi/blogview/internal/preview"
)

// UserResolverInterface は著者ハンドラーが必要とする解決サービスのインターフェース。
type UserResolverInterface interface {
	// ResolveUsers は著者一覧を表示用に解決する。
	ResolveUsers(ctx context.Context) ([]model.EnrichedUser, error)
	// ResolveUser は著者を1件解決する。存在しない場合は(nil, nil)。
	ResolveUser(ctx context.Context, id int) (*model.EnrichedUser, error)
}

// PreviewFetcherInterface はウェブサイトプレビュー取得のインターフェース。
type PreviewFetcherInterface interface {
	// Fetch はプレビューを取得する。失敗時はnil。
	Fetch(ctx context.Context, website string) *preview.SitePreview
}

// UserHandler は著者情報のHTTPハンドラー。
type UserHandler struct {
	resolver       UserResolverInterface
	previewer      PreviewFetcherInterface
	previewEnabled bool
}

// NewUserHandler はUserHandlerを生成する。
// previewerがnil、またはpreviewEnabledがfalseの場合、ウェブサイト
// プレビューは常に省略される。
func NewUserHandler(resolver UserResolverInterface, previewer PreviewFetcherInterface, previewEnabled bool) *UserHandler {
	return &UserHandler{
		resolver:       resolver,
		previewer:      previewer,
		previewEnabled: previewEnabled,
	}
}

// userListResponse は著者一覧のレスポンス。
type userListResponse struct {
	Users []model.EnrichedUser `json:"users"`
}

// userDetailResponse は著者詳細のレスポンス。
type userDetailResponse struct {
	User model.EnrichedUser `json:"user"`
	// Preview はウェブサイトプレビュー。取得できなかった場合は省略。
	Preview *preview.SitePreview `json:"preview,omitempty"`
}

// ListUsers は著者一覧を取得する。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.resolver.ResolveUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userListResponse{Users: users})
}

// GetUser は著者詳細を取得する。
// GET /api/users/:id?preview=true
// preview=trueの場合、著者のウェブサイトのプレビューを同梱する。
// プレビューの取得失敗はレスポンスからの省略であり、エラーにはならない。
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "著者IDは正の整数で指定してください。",
			Category: "validation",
			Action:   "URLを確認してください。",
		})
		return
	}

	user, err := h.resolver.ResolveUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError(id))
		return
	}

	resp := userDetailResponse{User: *user}
	if h.previewEnabled && h.previewer != nil && user.Website != "" && r.URL.Query().Get("preview") == "true" {
		resp.Preview = h.previewer.Fetch(r.Context(), user.Website)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
