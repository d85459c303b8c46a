// Package enrich は表示用の派生フィールドを導出する純粋関数を提供する。
//
// 全関数は副作用を持たず、ネットワークアクセスも行わず、決して失敗しない。
// 派生はエンティティのIDをシードとして決定論的に行われるため、
// 同一の入力に対して常に同一の出力を返す。
package enrich

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/blogview/internal/model"
)

const (
	// tagsPerPost は1記事に付与するタグ数。
	tagsPerPost = 3
	// readWordsPerMinute は読了時間の推定に使う1分あたりの語数。
	readWordsPerMinute = 200
	// publishCycleDays は公開日オフセットの周期（日）。
	publishCycleDays = 28
	// avatarVariants はアバター画像のバリエーション数。
	avatarVariants = 70
)

// tagPool はタグ選択の固定プール。
// タグはtagPool[(id+i) % len(tagPool)]（i = 0..tagsPerPost-1）で選択する。
// プール長がtagsPerPostより大きいため、選択されるタグは常に相異なる。
var tagPool = []string{
	"design",
	"research",
	"technology",
	"leadership",
	"product",
	"frameworks",
	"software",
	"culture",
	"productivity",
	"tools",
}

// bioPool は短い経歴文の固定ルックアップテーブル。
// 経歴はbioPool[id % len(bioPool)]で選択する。
var bioPool = []string{
	"Writer and editor covering product and engineering culture.",
	"Engineer turned storyteller. Writes about building things that last.",
	"Design researcher exploring how teams make decisions.",
	"Product leader sharing lessons from shipping software at scale.",
	"Technologist writing about tools, workflows, and craft.",
	"Essayist on software, systems, and the people who build them.",
}

// Post は記事から表示用の派生フィールドを導出し、EnrichedPostを返す。
// nowは公開日の基準となる現在日付で、呼び出し側が与える（テストで固定可能）。
// 公開日は「nowのUTC深夜0時から (id % 28) 日前」という決定論的な規則で導出する。
// Author フィールドは付与しない（著者の解決は解決エンジンの責務）。
func Post(p model.Post, now time.Time) model.EnrichedPost {
	return model.EnrichedPost{
		Post:            p,
		CoverURL:        fmt.Sprintf("https://picsum.photos/seed/post-%d/1200/640", p.ID),
		ThumbnailURL:    fmt.Sprintf("https://picsum.photos/seed/post-%d/336/240", p.ID),
		Tags:            tagsFor(p.ID),
		PublishedAt:     publishDateFor(p.ID, now),
		ReadTimeMinutes: readTimeFor(p.Body),
	}
}

// User は著者から表示用の派生フィールドを導出し、EnrichedUserを返す。
// アバター参照と経歴はIDによる固定テーブル参照で決定論的に選択される。
func User(u model.User) model.EnrichedUser {
	return model.EnrichedUser{
		User:      u,
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?img=%d", u.ID%avatarVariants+1),
		Bio:       bioPool[u.ID%len(bioPool)],
	}
}

// tagsFor はIDをシードにタグプールから決定論的にタグを選択する。
func tagsFor(id int) []string {
	tags := make([]string, 0, tagsPerPost)
	for i := 0; i < tagsPerPost; i++ {
		tags = append(tags, tagPool[(id+i)%len(tagPool)])
	}
	return tags
}

// publishDateFor は公開日を決定論的に導出する。
func publishDateFor(id int, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -(id % publishCycleDays))
}

// readTimeFor は本文の語数から読了時間（分）を推定する。
// 200語/分で切り上げ。空の本文は0分。
func readTimeFor(body string) int {
	words := len(strings.Fields(body))
	return (words + readWordsPerMinute - 1) / readWordsPerMinute
}
