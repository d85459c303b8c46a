package urlstate

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/blogview/internal/model"
)

// recordingNavigator は送出されたナビゲーション意図を記録する。
type recordingNavigator struct {
	mu      sync.Mutex
	intents []Intent
}

func (r *recordingNavigator) Navigate(intent Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

func (r *recordingNavigator) snapshot() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Intent(nil), r.intents...)
}

func (r *recordingNavigator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.intents)
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestController_CurrentQuery(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{
		"userId": {"3"},
		"search": {"golang"},
		"page":   {"2"},
	}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	got := c.CurrentQuery()
	want := model.Query{UserID: 3, Search: "golang", Page: 2, PageSize: model.DefaultPageSize}
	if got != want {
		t.Errorf("CurrentQuery() = %+v, 期待値 %+v", got, want)
	}
}

func TestController_Navigate_MergesPatchIntoCurrentState(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"search": {"golang"}, "page": {"3"}}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.Navigate(Patch{UserID: intPtr(5)}, NavigateOptions{})

	intents := nav.snapshot()
	if len(intents) != 1 {
		t.Fatalf("送出された意図の数 = %d, 期待値 1", len(intents))
	}
	got := intents[0]
	if got.Params.Get("userId") != "5" {
		t.Errorf("userId = %q, 期待値 \"5\"", got.Params.Get("userId"))
	}
	if got.Params.Get("search") != "golang" {
		t.Errorf("パッチに含まれないsearchが保持されていない: %q", got.Params.Get("search"))
	}
	if got.Params.Get("page") != "3" {
		t.Errorf("パッチに含まれないpageが保持されていない: %q", got.Params.Get("page"))
	}
	if got.ReplaceHistory {
		t.Error("ReplaceHistory指定なしで履歴置き換えになっている")
	}
}

func TestController_Navigate_ResetPageDropsPageKey(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"page": {"7"}}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.Navigate(Patch{UserID: intPtr(2)}, NavigateOptions{ResetPage: true})

	got := nav.snapshot()[0]
	if got.Params.Has("page") {
		t.Errorf("ResetPage指定なのにpageキーが残っている: %q", got.Params.Get("page"))
	}
	if got.Query.Page != 1 {
		t.Errorf("Query.Page = %d, 期待値 1", got.Query.Page)
	}
}

func TestController_Navigate_OmitsDefaultValues(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"userId": {"2"}}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	// フィルタ解除はキーの削除としてエンコードされる
	c.Navigate(Patch{UserID: intPtr(0)}, NavigateOptions{ResetPage: true})

	got := nav.snapshot()[0]
	if len(got.Params) != 0 {
		t.Errorf("既定値のみのクエリは空のパラメータになるが %v が残った", got.Params)
	}
}

func TestController_Navigate_PreservesPassthroughKeys(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"theme": {"dark"}}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.Navigate(Patch{Search: strPtr("cloud")}, NavigateOptions{ResetPage: true})

	got := nav.snapshot()[0]
	if got.Params.Get("theme") != "dark" {
		t.Errorf("管理外キーthemeが保持されていない: %v", got.Params)
	}
	if got.Params.Get("search") != "cloud" {
		t.Errorf("search = %q, 期待値 \"cloud\"", got.Params.Get("search"))
	}
}

func TestController_Navigate_UpdatesSnapshotForNextNavigation(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.Navigate(Patch{UserID: intPtr(4)}, NavigateOptions{ResetPage: true})
	c.Navigate(Patch{Page: intPtr(3)}, NavigateOptions{})

	intents := nav.snapshot()
	if len(intents) != 2 {
		t.Fatalf("送出された意図の数 = %d, 期待値 2", len(intents))
	}
	got := intents[1]
	if got.Params.Get("userId") != "4" {
		t.Errorf("前回のナビゲーション結果が引き継がれていない: %v", got.Params)
	}
	if got.Params.Get("page") != "3" {
		t.Errorf("page = %q, 期待値 \"3\"", got.Params.Get("page"))
	}
}

func TestController_Navigate_ReplaceHistory(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.Navigate(Patch{Page: intPtr(2)}, NavigateOptions{ReplaceHistory: true})

	if !nav.snapshot()[0].ReplaceHistory {
		t.Error("ReplaceHistoryが意図に反映されていない")
	}
}

func TestController_DebouncedSearchCommit_LastValueWins(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{}, model.DefaultPageSize, 30*time.Millisecond)
	defer c.Close()

	// 待ち時間内の連続入力は最後の値のみ確定する
	c.DebouncedSearchCommit("g")
	c.DebouncedSearchCommit("go")
	c.DebouncedSearchCommit("golang")

	waitForIntents(t, nav, 1)

	got := nav.snapshot()
	if len(got) != 1 {
		t.Fatalf("送出された意図の数 = %d, 期待値 1", len(got))
	}
	if got[0].Params.Get("search") != "golang" {
		t.Errorf("search = %q, 期待値 \"golang\"", got[0].Params.Get("search"))
	}
	if got[0].Query.Page != 1 {
		t.Errorf("検索確定後のQuery.Page = %d, 期待値 1", got[0].Query.Page)
	}
}

func TestController_DebouncedSearchCommit_EmptyCommitsSynchronously(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"search": {"golang"}, "page": {"4"}}, model.DefaultPageSize, time.Hour)
	defer c.Close()

	c.DebouncedSearchCommit("")

	// 待ち時間がtime.Hourでも空文字列は即座に確定する
	got := nav.snapshot()
	if len(got) != 1 {
		t.Fatalf("送出された意図の数 = %d, 期待値 1", len(got))
	}
	if got[0].Params.Has("search") {
		t.Errorf("空文字列の確定後もsearchキーが残っている: %v", got[0].Params)
	}
	if got[0].Params.Has("page") {
		t.Errorf("検索クリア後もpageキーが残っている: %v", got[0].Params)
	}
}

func TestController_DebouncedSearchCommit_EmptyCancelsPending(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{}, model.DefaultPageSize, 20*time.Millisecond)
	defer c.Close()

	c.DebouncedSearchCommit("golang")
	c.DebouncedSearchCommit("")

	time.Sleep(60 * time.Millisecond)

	got := nav.snapshot()
	if len(got) != 1 {
		t.Fatalf("送出された意図の数 = %d, 期待値 1（空文字列の確定のみ）", len(got))
	}
	if got[0].Params.Has("search") {
		t.Errorf("キャンセルされたはずの確定が発火した: %v", got[0].Params)
	}
}

func TestController_Close_PreventsPendingCommit(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{}, model.DefaultPageSize, 20*time.Millisecond)

	c.DebouncedSearchCommit("golang")
	c.Close()

	time.Sleep(60 * time.Millisecond)

	if n := nav.count(); n != 0 {
		t.Errorf("Close後に確定が発火した（意図の数 = %d）", n)
	}
}

func TestController_ResetParams_ClearsAllKeys(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{
		"userId": {"2"},
		"search": {"golang"},
		"theme":  {"dark"},
	}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.ResetParams()

	got := nav.snapshot()[0]
	if len(got.Params) != 0 {
		t.Errorf("全消去後のパラメータ = %v, 期待値 空", got.Params)
	}
	if !got.ReplaceHistory {
		t.Error("リセットは履歴を置き換えるべき")
	}
}

func TestController_ResetParams_DeletesOnlyListedKeys(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{
		"userId": {"2"},
		"search": {"golang"},
	}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.ResetParams("search")

	got := nav.snapshot()[0]
	if got.Params.Has("search") {
		t.Errorf("削除指定したsearchが残っている: %v", got.Params)
	}
	if got.Params.Get("userId") != "2" {
		t.Errorf("削除指定していないuserIdが消えた: %v", got.Params)
	}
}

func TestController_SetParams_ReplacesSnapshot(t *testing.T) {
	nav := &recordingNavigator{}
	c := NewController(nav, url.Values{"userId": {"2"}}, model.DefaultPageSize, 10*time.Millisecond)
	defer c.Close()

	c.SetParams(url.Values{"search": {"cloud"}})

	got := c.CurrentQuery()
	if got.UserID != 0 || got.Search != "cloud" {
		t.Errorf("CurrentQuery() = %+v, スナップショットが置き換わっていない", got)
	}
}

// waitForIntents はナビゲーション意図がn件送出されるまで待つ。
func waitForIntents(t *testing.T, nav *recordingNavigator, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if nav.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("意図が%d件送出されるのを待ったがタイムアウトした", n)
}
