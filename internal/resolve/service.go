// Package resolve は構造化されたQueryから、順序付き・フィルタ済み・
// エンリッチ済み・ページ分割済みの結果セットを導出する解決エンジンを
// 提供する。
package resolve

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/blogview/internal/enrich"
	"github.com/hitoshi/blogview/internal/model"
)

// PostSource は解決エンジンが必要とするリモートコレクションの
// インターフェース。
type PostSource interface {
	GetPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, id int) (*model.Post, error)
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int) (*model.User, error)
	GetComments(ctx context.Context, postID int) ([]model.Comment, error)
}

// Sanitizer はアップストリーム由来のテキストを結果セットへ取り込む
// 境界で使用するサニタイズ機能のインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service は解決エンジンの実装。
type Service struct {
	source    PostSource
	sanitizer Sanitizer
	logger    *slog.Logger

	// now は公開日導出の基準時刻。テストで固定可能。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(source PostSource, sanitizer Sanitizer, logger *slog.Logger) *Service {
	return &Service{
		source:    source,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve はQueryから結果セットを導出する。手順は固定:
// 並列フェッチ → 著者フィルタ → 検索フィルタ → エンリッチ＋著者解決 →
// ページ分割 → メタデータ計算。
//
// いずれかのコレクションのフェッチに失敗した場合は解決全体が
// *model.DataUnavailable で中断される。部分的な結果は決して返さない。
// 空の結果セットは正常な結果であり、エラーとは区別される。
func (s *Service) Resolve(ctx context.Context, q model.Query) (*model.PostPage, error) {
	posts, users, err := s.fetchCollections(ctx)
	if err != nil {
		return nil, err
	}

	// 著者フィルタ → 検索フィルタの順で適用する（契約上の宣言順）。
	// どちらも安定で、原コレクションの順序を保つ。
	filtered := posts
	if q.HasUserFilter() {
		filtered = filterByUser(filtered, q.UserID)
	}
	if q.HasSearch() {
		filtered = filterBySearch(filtered, q.Search)
	}

	usersByID := make(map[int]model.EnrichedUser, len(users))
	for _, u := range users {
		usersByID[u.ID] = enrich.User(u)
	}

	now := s.now()
	enriched := make([]model.EnrichedPost, 0, len(filtered))
	for _, p := range filtered {
		e := enrich.Post(p, now)
		e.Title = s.sanitizer.Sanitize(e.Title)
		e.Body = s.sanitizer.Sanitize(e.Body)
		// 著者が見つからない場合はnilのまま（エラーでも除外でもない）
		if author, ok := usersByID[p.UserID]; ok {
			a := author
			e.Author = &a
		}
		enriched = append(enriched, e)
	}

	return paginate(enriched, q), nil
}

// PostDetail は記事詳細の解決結果。
type PostDetail struct {
	Post     model.EnrichedPost `json:"post"`
	Comments []model.Comment    `json:"comments"`
}

// ResolvePost は記事詳細（記事・著者・コメント）を解決する。
// 記事が存在しない場合は(nil, nil)を返す。
// 記事またはコメントのフェッチ失敗は*model.DataUnavailableになる。
// 著者の不在は欠損値として扱い、解決を続行する。
func (s *Service) ResolvePost(ctx context.Context, id int) (*PostDetail, error) {
	var (
		wg          sync.WaitGroup
		post        *model.Post
		comments    []model.Comment
		postErr     error
		commentsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		post, postErr = s.source.GetPost(ctx, id)
	}()
	go func() {
		defer wg.Done()
		comments, commentsErr = s.source.GetComments(ctx, id)
	}()
	wg.Wait()

	if postErr != nil {
		return nil, &model.DataUnavailable{Err: postErr}
	}
	if post == nil {
		return nil, nil
	}
	if commentsErr != nil {
		return nil, &model.DataUnavailable{Err: commentsErr}
	}

	e := enrich.Post(*post, s.now())
	e.Title = s.sanitizer.Sanitize(e.Title)
	e.Body = s.sanitizer.Sanitize(e.Body)

	author, err := s.source.GetUser(ctx, post.UserID)
	if err != nil {
		return nil, &model.DataUnavailable{Err: err}
	}
	if author != nil {
		a := enrich.User(*author)
		e.Author = &a
	} else {
		s.logger.Warn("記事の著者が解決できません",
			slog.Int("post_id", post.ID),
			slog.Int("user_id", post.UserID),
		)
	}

	sanitized := make([]model.Comment, 0, len(comments))
	for _, cm := range comments {
		cm.Name = s.sanitizer.Sanitize(cm.Name)
		cm.Body = s.sanitizer.Sanitize(cm.Body)
		sanitized = append(sanitized, cm)
	}

	return &PostDetail{Post: e, Comments: sanitized}, nil
}

// ResolveUsers は著者フィルタコントロール用の著者一覧を解決する。
func (s *Service) ResolveUsers(ctx context.Context) ([]model.EnrichedUser, error) {
	users, err := s.source.GetUsers(ctx)
	if err != nil {
		return nil, &model.DataUnavailable{Err: err}
	}

	enriched := make([]model.EnrichedUser, 0, len(users))
	for _, u := range users {
		enriched = append(enriched, enrich.User(u))
	}
	return enriched, nil
}

// ResolveUser は著者を1件解決する。存在しない場合は(nil, nil)。
func (s *Service) ResolveUser(ctx context.Context, id int) (*model.EnrichedUser, error) {
	user, err := s.source.GetUser(ctx, id)
	if err != nil {
		return nil, &model.DataUnavailable{Err: err}
	}
	if user == nil {
		return nil, nil
	}
	e := enrich.User(*user)
	return &e, nil
}

// fetchCollections は記事と著者の全コレクションを並列に取得する。
// 両方の完了を待ち、どちらかが失敗した場合はDataUnavailableを返す。
func (s *Service) fetchCollections(ctx context.Context) ([]model.Post, []model.User, error) {
	var (
		wg       sync.WaitGroup
		posts    []model.Post
		users    []model.User
		postsErr error
		usersErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		posts, postsErr = s.source.GetPosts(ctx)
	}()
	go func() {
		defer wg.Done()
		users, usersErr = s.source.GetUsers(ctx)
	}()
	wg.Wait()

	if postsErr != nil {
		return nil, nil, &model.DataUnavailable{Err: postsErr}
	}
	if usersErr != nil {
		return nil, nil, &model.DataUnavailable{Err: usersErr}
	}

	return posts, users, nil
}

// filterByUser は所有著者IDが一致する記事のみを残す。順序は保存される。
func filterByUser(posts []model.Post, userID int) []model.Post {
	filtered := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if p.UserID == userID {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// filterBySearch はタイトルまたは本文に検索テキストを含む記事のみを残す。
// 比較は小文字化した部分文字列一致で、トークン化やダイアクリティカル
// マークの正規化は行わない。順序は保存される。
func filterBySearch(posts []model.Post, search string) []model.Post {
	needle := strings.ToLower(search)
	filtered := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Body), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// paginate は結果列をページ分割してメタデータを付与する。
// 範囲外のページは空のスライスになる（エラーにせず、ページ番号も
// 切り詰めない）。
func paginate(items []model.EnrichedPost, q model.Query) *model.PostPage {
	total := len(items)
	totalPages := 0
	if total > 0 {
		totalPages = (total + q.PageSize - 1) / q.PageSize
	}

	start := (q.Page - 1) * q.PageSize
	end := start + q.PageSize

	var pageItems []model.EnrichedPost
	if start < total {
		if end > total {
			end = total
		}
		pageItems = items[start:end]
	} else {
		pageItems = []model.EnrichedPost{}
	}

	return &model.PostPage{
		Items:      pageItems,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}
}
