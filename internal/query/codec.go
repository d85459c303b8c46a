// Package query はビュー状態（著者フィルタ・検索・ページ）と
// URLクエリパラメータの双方向マッピングを提供する。
//
// デコードは寛容に行う: 欠落・非数値・範囲外のパラメータはエラーに
// ならず、各フィールドのデフォルト値に縮退する。エンコードは正準形を
// 生成する: デフォルト値のフィールドはキーごと省略され、Queryが
// 所有しないキーはそのまま通過する。正準形のURLは page=1 や空の
// search を決して持たない。
package query

import (
	"net/url"
	"strconv"

	"github.com/hitoshi/blogview/internal/model"
)

// Queryが所有するパラメータキー。これ以外のキーはエンコード時に
// 変更されずに通過する。
const (
	// ParamUserID は著者フィルタのパラメータキー（正整数）。
	ParamUserID = "userId"
	// ParamSearch は自由テキスト検索のパラメータキー。
	ParamSearch = "search"
	// ParamPage はページ番号のパラメータキー（正整数、1始まり）。
	ParamPage = "page"
)

// Decode はフラットなパラメータ集合を構造化されたQueryに変換する。
// pageSizeはビューごとに固定の1ページあたり件数。1未満の場合は
// model.DefaultPageSizeを使う。
// 不正な値は静かにデフォルトへ正規化され、エラーは発生しない。
func Decode(params url.Values, pageSize int) model.Query {
	if pageSize < 1 {
		pageSize = model.DefaultPageSize
	}

	q := model.Query{
		Page:     1,
		PageSize: pageSize,
		Search:   params.Get(ParamSearch),
	}

	if v := params.Get(ParamPage); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page >= 1 {
			q.Page = page
		}
	}

	if v := params.Get(ParamUserID); v != "" {
		if userID, err := strconv.Atoi(v); err == nil && userID >= 1 {
			q.UserID = userID
		}
	}

	return q
}

// Encode はQueryのフィールドをbaseのコピーにマージし、正準形の
// パラメータ集合を返す。baseに含まれるQuery非所有のキーは保持される。
// デフォルト値のフィールド（page=1、空のsearch、フィルタなし）は
// キーごと削除される。baseは変更されない。
func Encode(q model.Query, base url.Values) url.Values {
	out := make(url.Values, len(base))
	for key, values := range base {
		out[key] = append([]string(nil), values...)
	}

	if q.UserID > 0 {
		out.Set(ParamUserID, strconv.Itoa(q.UserID))
	} else {
		out.Del(ParamUserID)
	}

	if q.Search != "" {
		out.Set(ParamSearch, q.Search)
	} else {
		out.Del(ParamSearch)
	}

	if q.Page > 1 {
		out.Set(ParamPage, strconv.Itoa(q.Page))
	} else {
		out.Del(ParamPage)
	}

	return out
}

// EncodeString はEncodeの結果をURLエンコード済み文字列として返す。
// url.Values.Encodeはキーをソートするため、出力は安定で再現可能。
func EncodeString(q model.Query, base url.Values) string {
	return Encode(q, base).Encode()
}
