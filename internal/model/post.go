// Package model はドメインモデルを定義する。
package model

import "time"

// Post はリモートコレクションから取得した記事を表す。
// フェッチ後はイミュータブルとして扱い、ローカルで書き換えない。
// 派生フィールドはEnrichedPostとして新しい値に付与する。
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// EnrichedPost は記事に表示用の派生フィールドを付与した合成値。
// 派生フィールドは非権威的であり、記事IDから決定論的に導出される。
type EnrichedPost struct {
	Post
	CoverURL        string     `json:"cover_url"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	Tags            []string   `json:"tags"`
	PublishedAt     time.Time  `json:"published_at"`
	ReadTimeMinutes int        `json:"read_time_minutes"`
	// Author は解決済みの著者。ロード済みユーザーコレクションに
	// 該当IDが存在しない場合はnil（エラーではない）。
	Author *EnrichedUser `json:"author"`
}
