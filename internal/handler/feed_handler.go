package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/feeds"

	"github.com/hitoshi/blogview/internal/model"
	"github.com/hitoshi/blogview/internal/query"
)

// FeedResolverInterface はフィードハンドラーが必要とする解決サービスのインターフェース。
type FeedResolverInterface interface {
	Resolve(ctx context.Context, q model.Query) (*model.PostPage, error)
}

// FeedConfig はフィード出力の設定。
type FeedConfig struct {
	// Title はフィードのタイトル。
	Title string
	// BaseURL は記事リンクの起点となる公開URL。
	BaseURL string
	// Description はフィードの説明。
	Description string
	// PageSize はフィードに含める最新記事の件数。
	PageSize int
}

// FeedHandler は最新記事のRSS/Atomフィードを配信するHTTPハンドラー。
type FeedHandler struct {
	resolver FeedResolverInterface
	config   FeedConfig
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(resolver FeedResolverInterface, config FeedConfig) *FeedHandler {
	return &FeedHandler{
		resolver: resolver,
		config:   config,
	}
}

// RSS は最新記事をRSS形式で配信する。
// GET /feed.rss?userId=2
// userIdを指定すると著者で絞り込んだフィードになる。
func (h *FeedHandler) RSS(w http.ResponseWriter, r *http.Request) {
	feed, err := h.buildFeed(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body, err := feed.ToRss()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// Atom は最新記事をAtom形式で配信する。
// GET /feed.atom?userId=2
func (h *FeedHandler) Atom(w http.ResponseWriter, r *http.Request) {
	feed, err := h.buildFeed(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body, err := feed.ToAtom()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// buildFeed は先頭ページの記事からフィードを構築する。
// userIdパラメータのみを引き継ぎ、検索とページ指定は無視する。
func (h *FeedHandler) buildFeed(r *http.Request) (*feeds.Feed, error) {
	q := query.Decode(r.URL.Query(), h.config.PageSize)
	page, err := h.resolver.Resolve(r.Context(), model.Query{
		UserID:   q.UserID,
		Page:     1,
		PageSize: h.config.PageSize,
	})
	if err != nil {
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       h.config.Title,
		Link:        &feeds.Link{Href: h.config.BaseURL},
		Description: h.config.Description,
	}

	for _, post := range page.Items {
		item := &feeds.Item{
			Id:          fmt.Sprintf("%s/posts/%d", h.config.BaseURL, post.ID),
			Title:       post.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/posts/%d", h.config.BaseURL, post.ID)},
			Description: post.Body,
			Created:     post.PublishedAt,
		}
		if post.Author != nil {
			item.Author = &feeds.Author{Name: post.Author.Name, Email: post.Author.Email}
		}
		feed.Items = append(feed.Items, item)

		// フィードの更新日時は最も新しい記事に合わせる
		if post.PublishedAt.After(feed.Updated) {
			feed.Updated = post.PublishedAt
		}
	}

	return feed, nil
}
