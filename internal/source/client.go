// Package source はリモートコレクション（記事・著者・コメント）の
// クライアントを提供する。
//
// 各「ID指定」の取得はソースが404を報告した場合に(nil, nil)を返す
// （不在はエラーではなく欠損値）。それ以外のトランスポート・デコード
// 失敗は*model.FetchErrorになる。この層ではリトライしない。
// リトライ方針は呼び出し側の責務。
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/blogview/internal/model"
)

// MetricsRecorder はクライアントが必要とするメトリクス収集の
// インターフェース。
type MetricsRecorder interface {
	RecordUpstreamSuccess(endpoint string)
	RecordUpstreamFailure(endpoint string, statusCode int)
	RecordUpstreamLatency(duration time.Duration)
	RecordCacheResult(hit bool)
}

// nopMetrics は何も記録しないMetricsRecorder。
type nopMetrics struct{}

func (nopMetrics) RecordUpstreamSuccess(string)        {}
func (nopMetrics) RecordUpstreamFailure(string, int)   {}
func (nopMetrics) RecordUpstreamLatency(time.Duration) {}
func (nopMetrics) RecordCacheResult(bool)              {}

// Options はClientの生成オプション。
type Options struct {
	// BaseURL はリモートコレクションの固定ベースオリジン。
	BaseURL string
	// RevalidateTTL は再検証ウィンドウ。この間隔内の再呼び出しは
	// キャッシュ済みの値を返し、経過後の呼び出しは再フェッチする。
	// これ以外のキャッシュ保証はない。
	RevalidateTTL time.Duration
	// MaxResponseSize はレスポンスボディの最大サイズ（バイト）。
	MaxResponseSize int64
	// Metrics はメトリクス収集。nilの場合は記録しない。
	Metrics MetricsRecorder
}

// cacheEntry は再検証ウィンドウ内で使い回す取得済みレスポンス。
type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// Client はリモートコレクションのHTTPクライアント。
// 成功レスポンスのボディをエンドポイントごとに保持し、
// RevalidateTTLの間は再フェッチせずに返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	ttl        time.Duration
	maxSize    int64
	metrics    MetricsRecorder

	mu    sync.Mutex
	cache map[string]cacheEntry

	// now はテストで時刻を固定するためのフック。
	now func() time.Time
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, opts Options) *Client {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	maxSize := opts.MaxResponseSize
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    opts.BaseURL,
		ttl:        opts.RevalidateTTL,
		maxSize:    maxSize,
		metrics:    metrics,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// GetPosts は全記事を取得する。
func (c *Client) GetPosts(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if _, err := c.getJSON(ctx, "/posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost はIDを指定して記事を1件取得する。
// ソースが404を報告した場合は(nil, nil)を返す。
func (c *Client) GetPost(ctx context.Context, id int) (*model.Post, error) {
	var post model.Post
	found, err := c.getJSON(ctx, fmt.Sprintf("/posts/%d", id), &post)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &post, nil
}

// GetUsers は全著者を取得する。
func (c *Client) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := c.getJSON(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser はIDを指定して著者を1件取得する。
// ソースが404を報告した場合は(nil, nil)を返す。
func (c *Client) GetUser(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	found, err := c.getJSON(ctx, fmt.Sprintf("/users/%d", id), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// GetComments は記事に付いたコメントを取得する。
func (c *Client) GetComments(ctx context.Context, postID int) ([]model.Comment, error) {
	var comments []model.Comment
	if _, err := c.getJSON(ctx, fmt.Sprintf("/posts/%d/comments", postID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// getJSON はエンドポイントからJSONを取得してoutにデコードする。
// 戻り値のboolは値が存在したかどうか（404の場合false）。
// 再検証ウィンドウ内のキャッシュがあればネットワークアクセスを行わない。
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (bool, error) {
	if body, ok := c.cachedBody(endpoint); ok {
		c.metrics.RecordCacheResult(true)
		if err := json.Unmarshal(body, out); err != nil {
			return false, &model.FetchError{Endpoint: endpoint, Err: err}
		}
		return true, nil
	}
	c.metrics.RecordCacheResult(false)

	body, notFound, err := c.fetch(ctx, endpoint)
	if err != nil {
		return false, err
	}
	if notFound {
		return false, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("レスポンスJSONのデコードに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordUpstreamFailure(endpoint, 0)
		return false, &model.FetchError{Endpoint: endpoint, Err: err}
	}

	c.storeBody(endpoint, body)
	return true, nil
}

// fetch はHTTP GETを実行してボディを返す。
// 404の場合はnotFound=trueを返す（エラーではない）。
// 2xx以外のステータスはトランスポート失敗として扱う。
func (c *Client) fetch(ctx context.Context, endpoint string) (body []byte, notFound bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, false, &model.FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Blogview/1.0")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordUpstreamLatency(c.now().Sub(start))
	if err != nil {
		c.logger.Error("リモートコレクションへのリクエストに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		c.metrics.RecordUpstreamFailure(endpoint, 0)
		return nil, false, &model.FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("リモートコレクションがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		c.metrics.RecordUpstreamFailure(endpoint, resp.StatusCode)
		return nil, false, &model.FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxSize))
	if err != nil {
		c.metrics.RecordUpstreamFailure(endpoint, 0)
		return nil, false, &model.FetchError{Endpoint: endpoint, Err: err}
	}

	c.metrics.RecordUpstreamSuccess(endpoint)
	return body, false, nil
}

// cachedBody は再検証ウィンドウ内のキャッシュ済みボディを返す。
func (c *Client) cachedBody(endpoint string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[endpoint]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.body, true
}

// storeBody は成功レスポンスのボディをキャッシュに保存する。
func (c *Client) storeBody(endpoint string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[endpoint] = cacheEntry{body: body, fetchedAt: c.now()}
}
