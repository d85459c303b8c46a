package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// requestIDKey はコンテキストにリクエストIDを格納するキー。
const requestIDKey contextKey = "request_id"

// requestIDHeader はリクエストIDを返すレスポンスヘッダー名。
const requestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware は各リクエストにUUIDのリクエストIDを割り当てる
// ミドルウェアを返す。IDはコンテキストとX-Request-IDヘッダーの両方に
// 設定され、ログとエラー報告の突き合わせに使う。
// クライアントが有効なX-Request-IDを送ってきた場合はそれを引き継ぐ。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はコンテキストからリクエストIDを取得する。
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", fmt.Errorf("リクエストIDがコンテキストに存在しません")
	}
	return requestID, nil
}
