package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/blogview/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// newTestClient はテスト用サーバーに向けたClientを生成する。
func newTestClient(t *testing.T, server *httptest.Server, ttl time.Duration) *Client {
	t.Helper()
	var buf bytes.Buffer
	return NewClient(server.Client(), newTestLogger(&buf), Options{
		BaseURL:       server.URL,
		RevalidateTTL: ttl,
	})
}

func TestGetPosts_DecodesCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("HTTPメソッド = %s, want GET", r.Method)
		}
		if r.URL.Path != "/posts" {
			t.Errorf("パス = %s, want /posts", r.URL.Path)
		}

		posts := []model.Post{
			{ID: 1, UserID: 1, Title: "First Blog Post", Body: "body one"},
			{ID: 2, UserID: 2, Title: "Second Blog Post", Body: "body two"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(posts)
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	posts, err := c.GetPosts(context.Background())
	if err != nil {
		t.Fatalf("GetPosts がエラーを返した: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("記事数 = %d, want 2", len(posts))
	}
	if posts[0].ID != 1 || posts[0].Title != "First Blog Post" {
		t.Errorf("posts[0] = %+v", posts[0])
	}
	if posts[1].UserID != 2 {
		t.Errorf("posts[1].UserID = %d, want 2", posts[1].UserID)
	}
}

func TestGetPost_NotFound_ReturnsNilWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	post, err := c.GetPost(context.Background(), 9999)
	if err != nil {
		t.Fatalf("404はエラーではなく欠損値として扱うべき: %v", err)
	}
	if post != nil {
		t.Errorf("post = %+v, want nil", post)
	}
}

func TestGetPost_ByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/3" {
			t.Errorf("パス = %s, want /posts/3", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.Post{ID: 3, UserID: 2, Title: "Third", Body: "b"})
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	post, err := c.GetPost(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetPost がエラーを返した: %v", err)
	}
	if post == nil || post.ID != 3 {
		t.Errorf("post = %+v, want ID 3", post)
	}
}

func TestGetPost_ServerError_ReturnsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	_, err := c.GetPost(context.Background(), 1)
	if err == nil {
		t.Fatal("500に対してエラーが返らなかった")
	}

	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("エラー型 = %T, want *model.FetchError", err)
	}
	if fetchErr.Endpoint != "/posts/1" {
		t.Errorf("Endpoint = %q, want %q", fetchErr.Endpoint, "/posts/1")
	}
	if fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, http.StatusInternalServerError)
	}
}

func TestGetPosts_MalformedJSON_ReturnsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not valid json"))
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	_, err := c.GetPosts(context.Background())
	if err == nil {
		t.Fatal("不正なJSONに対してエラーが返らなかった")
	}
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("エラー型 = %T, want *model.FetchError", err)
	}
}

func TestGetUsers_DecodesCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("パス = %s, want /users", r.URL.Path)
		}
		users := []model.User{
			{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "leanne@example.com", Website: "hildegard.org"},
		}
		json.NewEncoder(w).Encode(users)
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	users, err := c.GetUsers(context.Background())
	if err != nil {
		t.Fatalf("GetUsers がエラーを返した: %v", err)
	}
	if len(users) != 1 || users[0].Username != "Bret" {
		t.Errorf("users = %+v", users)
	}
}

func TestGetComments_UsesNestedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/7/comments" {
			t.Errorf("パス = %s, want /posts/7/comments", r.URL.Path)
		}
		comments := []model.Comment{
			{ID: 1, PostID: 7, Name: "c1", Email: "a@example.com", Body: "nice"},
			{ID: 2, PostID: 7, Name: "c2", Email: "b@example.com", Body: "great"},
		}
		json.NewEncoder(w).Encode(comments)
	}))
	defer server.Close()

	c := newTestClient(t, server, 0)

	comments, err := c.GetComments(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetComments がエラーを返した: %v", err)
	}
	if len(comments) != 2 {
		t.Errorf("コメント数 = %d, want 2", len(comments))
	}
}

func TestClient_RevalidationWindow(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode([]model.Post{{ID: 1, UserID: 1, Title: "t", Body: "b"}})
	}))
	defer server.Close()

	c := newTestClient(t, server, 300*time.Second)

	// テスト用に時刻を固定して進める
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	ctx := context.Background()

	// ウィンドウ内の2回目の呼び出しはアップストリームに到達しない
	if _, err := c.GetPosts(ctx); err != nil {
		t.Fatalf("1回目のGetPostsがエラーを返した: %v", err)
	}
	current = current.Add(299 * time.Second)
	if _, err := c.GetPosts(ctx); err != nil {
		t.Fatalf("2回目のGetPostsがエラーを返した: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("ウィンドウ内のアップストリーム呼び出し回数 = %d, want 1", got)
	}

	// ウィンドウ経過後は再フェッチが許可される
	current = current.Add(2 * time.Second)
	if _, err := c.GetPosts(ctx); err != nil {
		t.Fatalf("3回目のGetPostsがエラーを返した: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("ウィンドウ経過後のアップストリーム呼び出し回数 = %d, want 2", got)
	}
}

func TestClient_CacheIsPerEndpoint(t *testing.T) {
	var postCalls, userCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posts":
			postCalls.Add(1)
			json.NewEncoder(w).Encode([]model.Post{})
		case "/users":
			userCalls.Add(1)
			json.NewEncoder(w).Encode([]model.User{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server, time.Minute)
	ctx := context.Background()

	if _, err := c.GetPosts(ctx); err != nil {
		t.Fatalf("GetPosts がエラーを返した: %v", err)
	}
	if _, err := c.GetUsers(ctx); err != nil {
		t.Fatalf("GetUsers がエラーを返した: %v", err)
	}
	if _, err := c.GetPosts(ctx); err != nil {
		t.Fatalf("GetPosts がエラーを返した: %v", err)
	}

	if postCalls.Load() != 1 || userCalls.Load() != 1 {
		t.Errorf("呼び出し回数 posts=%d users=%d, want 1/1", postCalls.Load(), userCalls.Load())
	}
}

func TestClient_FailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]model.Post{{ID: 1}})
	}))
	defer server.Close()

	c := newTestClient(t, server, time.Minute)
	ctx := context.Background()

	if _, err := c.GetPosts(ctx); err == nil {
		t.Fatal("502に対してエラーが返らなかった")
	}

	// 失敗はキャッシュされず、次の呼び出しで再フェッチして成功する
	posts, err := c.GetPosts(ctx)
	if err != nil {
		t.Fatalf("再フェッチがエラーを返した: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("記事数 = %d, want 1", len(posts))
	}
}
