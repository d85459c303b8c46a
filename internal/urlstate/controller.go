// Package urlstate はビュー状態とナビゲート可能なアドレスの同期を
// 司るコントローラーを提供する。
//
// コントローラーはブラウザのロケーションのようなグローバル状態を
// 直接変更しない。現在のパラメータのスナップショットを入力として
// 受け取り、ナビゲーション意図をNavigatorへの明示的なメッセージと
// して出力する。これによりルーティングホストなしで単体テストできる。
package urlstate

import (
	"net/url"
	"sync"
	"time"

	"github.com/hitoshi/blogview/internal/model"
	"github.com/hitoshi/blogview/internal/query"
)

// Intent はナビゲーション意図を表す。ナビゲーション自体が周囲の
// ビューによる再解決を引き起こすため、コントローラーはデータの
// 再読み込みを行わない。
type Intent struct {
	// Params は正準形にエンコードされたパラメータ集合。
	Params url.Values
	// Query は意図を生成したQuery。解決結果の到着時に最新の意図と
	// 照合し、古い解決結果を破棄するために使う（last-navigation-wins）。
	Query model.Query
	// ReplaceHistory は履歴エントリを積まずに置き換えるかどうか。
	ReplaceHistory bool
}

// Navigator はナビゲーション意図の送信先。
type Navigator interface {
	Navigate(intent Intent)
}

// Patch はQueryの部分更新。nilのフィールドは変更しない。
type Patch struct {
	UserID *int
	Search *string
	Page   *int
}

// NavigateOptions はナビゲーションの動作オプション。
type NavigateOptions struct {
	// ReplaceHistory は履歴を置き換えるナビゲーションを行う。
	ReplaceHistory bool
	// ResetPage はエンコード前にページ番号を既定値へ戻す。
	// フィルタや検索の変更でビューを1ページ目へ戻すときに使う。
	ResetPage bool
}

// Controller はURL同期コントローラー。
// ビューインスタンスごとに1つ生成し、破棄時にCloseを呼ぶ。
type Controller struct {
	nav      Navigator
	pageSize int
	delay    time.Duration

	mu     sync.Mutex
	params url.Values
	timer  *time.Timer
	seq    int
	closed bool
}

// NewController はControllerの新しいインスタンスを生成する。
// initialは現在のアドレスのパラメータスナップショット。
// delayはDebouncedSearchCommitの確定待ち時間。
func NewController(nav Navigator, initial url.Values, pageSize int, delay time.Duration) *Controller {
	params := make(url.Values, len(initial))
	for k, vs := range initial {
		params[k] = append([]string(nil), vs...)
	}
	return &Controller{
		nav:      nav,
		pageSize: pageSize,
		delay:    delay,
		params:   params,
	}
}

// CurrentQuery は現在のパラメータスナップショットをデコードした
// Queryを返す。
func (c *Controller) CurrentQuery() model.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return query.Decode(c.params, c.pageSize)
}

// SetParams はアドレス変更（再入）時にホストが呼び出し、
// スナップショットを最新のパラメータ集合へ更新する。
func (c *Controller) SetParams(params url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(url.Values, len(params))
	for k, vs := range params {
		next[k] = append([]string(nil), vs...)
	}
	c.params = next
}

// Navigate は現在のQueryにpatchをマージし、正準形にエンコードした
// ナビゲーション意図を送出する。Queryが所有しないパラメータは
// 変更されずに保持される。
func (c *Controller) Navigate(patch Patch, opts NavigateOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigateLocked(patch, opts)
}

// DebouncedSearchCommit は検索テキストの確定を遅延付きでスケジュール
// する。待ち時間内の再呼び出しは以前のスケジュールをキャンセルする
// （末尾トリガのデバウンス、最後の値のみが勝つ）。
// 空文字列は待たずに同期的に確定し、パラメータを即座に消去する
// （検索のクリアは即時に感じられる必要がある）。
// 検索の確定は常にビューを1ページ目へ戻す。
func (c *Controller) DebouncedSearchCommit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.cancelPendingLocked()

	if text == "" {
		empty := ""
		c.navigateLocked(Patch{Search: &empty}, NavigateOptions{ResetPage: true})
		return
	}

	c.seq++
	seq := c.seq
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Closeまたは後続のスケジュールに追い越された確定は破棄する
		if c.closed || seq != c.seq {
			return
		}
		c.navigateLocked(Patch{Search: &text}, NavigateOptions{ResetPage: true})
	})
}

// ResetParams は指定されたキー（未指定の場合は全キー）を現在の
// アドレスから削除し、履歴を置き換えるナビゲーション意図を送出する。
func (c *Controller) ResetParams(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.params = url.Values{}
	} else {
		for _, key := range keys {
			c.params.Del(key)
		}
	}

	params := make(url.Values, len(c.params))
	for k, vs := range c.params {
		params[k] = append([]string(nil), vs...)
	}
	c.nav.Navigate(Intent{
		Params:         params,
		Query:          query.Decode(c.params, c.pageSize),
		ReplaceHistory: true,
	})
}

// Close は保留中のデバウンス確定をキャンセルする。
// Close後にいかなる確定も発火しない（破棄後のナビゲーション防止）。
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelPendingLocked()
}

// navigateLocked はロック保持中にマージ・エンコード・送出を行う。
func (c *Controller) navigateLocked(patch Patch, opts NavigateOptions) {
	q := query.Decode(c.params, c.pageSize)

	if patch.UserID != nil {
		q.UserID = *patch.UserID
	}
	if patch.Search != nil {
		q.Search = *patch.Search
	}
	if patch.Page != nil {
		q.Page = *patch.Page
	}
	if opts.ResetPage {
		q.Page = 1
	}

	encoded := query.Encode(q, c.params)
	c.params = encoded

	params := make(url.Values, len(encoded))
	for k, vs := range encoded {
		params[k] = append([]string(nil), vs...)
	}
	c.nav.Navigate(Intent{
		Params:         params,
		Query:          q,
		ReplaceHistory: opts.ReplaceHistory,
	})
}

// cancelPendingLocked は保留中のタイマーを停止する。
func (c *Controller) cancelPendingLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
}
