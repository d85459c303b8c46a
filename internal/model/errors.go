// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound    = "POST_NOT_FOUND"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeUpstreamFetch   = "UPSTREAM_FETCH_FAILED"
)

// FetchError はリモートコレクションへのトランスポートまたは
// デコードの失敗を表す。404（不在）はエラーではなく欠損値として
// 扱うため、このエラーにはならない。
type FetchError struct {
	// Endpoint は失敗したエンドポイントのパス。
	Endpoint string
	// StatusCode はHTTPステータスコード。トランスポート層で
	// 失敗した場合は0。
	StatusCode int
	// Err は内部原因。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("リモートコレクションの取得に失敗しました: %s (status %d)", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("リモートコレクションの取得に失敗しました: %s: %v", e.Endpoint, e.Err)
}

// Unwrap は内部原因を返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// DataUnavailable はコレクション単位のフェッチ失敗により解決全体が
// 中断されたことを表す。部分的な結果は決して返さない。
// 次のナビゲーションでの再試行により回復可能。
type DataUnavailable struct {
	// Err は内部原因（通常は*FetchError）。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *DataUnavailable) Error() string {
	return fmt.Sprintf("コレクションデータを利用できません: %v", e.Err)
}

// Unwrap は内部原因を返す。
func (e *DataUnavailable) Unwrap() error {
	return e.Err
}

// IsDataUnavailable はエラーがDataUnavailableかどうかを判定する。
func IsDataUnavailable(err error) bool {
	var du *DataUnavailable
	return errors.As(err, &du)
}

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(postID int) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %d", postID),
		Category: "validation",
		Action:   "記事IDを確認してください。",
	}
}

// NewUserNotFoundError は著者未検出エラーを生成する。
func NewUserNotFoundError(userID int) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定された著者が見つかりません: %d", userID),
		Category: "validation",
		Action:   "著者IDを確認してください。",
	}
}

// NewDataUnavailableError はコレクション取得失敗のAPIエラーを生成する。
func NewDataUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeDataUnavailable,
		Message:  "コンテンツの取得に失敗しました。",
		Category: "upstream",
		Action:   "しばらく待ってから再読み込みしてください。",
	}
}
