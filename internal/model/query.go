// Package model はドメインモデルを定義する。
package model

// DefaultPageSize は記事一覧の1ページあたりの件数（デフォルト）。
const DefaultPageSize = 9

// Query はビューのフィルタ・検索・ページ状態を構造化した値。
// URLクエリパラメータのデコード結果として生成される。
type Query struct {
	// UserID は著者フィルタ。0は「フィルタなし」を表す（パラメータの
	// 定義域は正整数のため0は衝突しない）。
	UserID int
	// Search は自由テキスト検索。空文字列は「検索なし」。
	Search string
	// Page は1始まりのページ番号。常に1以上。範囲外のページは
	// 空ページを返し、エラーにはしない。
	Page int
	// PageSize は1ページあたりの件数。ビューごとに固定。
	PageSize int
}

// HasUserFilter は著者フィルタが指定されているかを返す。
func (q Query) HasUserFilter() bool {
	return q.UserID > 0
}

// HasSearch は検索テキストが指定されているかを返す。
func (q Query) HasSearch() bool {
	return q.Search != ""
}

// PostPage は1回の解決で得られる、ページネーション済みの結果セット。
// 解決呼び出しごとに新しく生成され、返却後は変更してはならない。
type PostPage struct {
	// Items は原コレクション順を保った記事列。フィルタは順序を変えない。
	// 長さは常にPageSize以下。
	Items []EnrichedPost `json:"items"`
	// TotalCount はフィルタ適用後・ページ分割前の総件数。
	TotalCount int `json:"total_count"`
	// TotalPages はceil(TotalCount / PageSize)。TotalCountが0のときは0。
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}
