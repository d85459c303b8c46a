package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogview/internal/middleware"
	"github.com/hitoshi/blogview/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// コレクション取得失敗（*model.DataUnavailable）は再試行で回復可能なため、
// Retry-After付きの503として返す。
func handleServiceError(w http.ResponseWriter, err error) {
	if model.IsDataUnavailable(err) {
		w.Header().Set("Retry-After", "30")
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewDataUnavailableError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodePostNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDataUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeUpstreamFetch:
		return http.StatusBadGateway
	case "INVALID_REQUEST":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
