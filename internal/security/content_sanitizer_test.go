package security

import (
	"strings"
	"testing"
)

// TestSanitize_StripsAllTags はすべてのマークアップが除去されることを検証する。
func TestSanitize_StripsAllTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま通過する",
			input: "quia et suscipit recusandae consequuntur",
			want:  "quia et suscipit recusandae consequuntur",
		},
		{
			name:  "pタグが除去される",
			input: "<p>段落テキスト</p>",
			want:  "段落テキスト",
		},
		{
			name:  "strongタグが除去される",
			input: "before <strong>bold</strong> after",
			want:  "before bold after",
		},
		{
			name:  "aタグが除去されテキストが残る",
			input: `<a href="https://example.com">リンク</a>`,
			want:  "リンク",
		},
		{
			name:  "imgタグが丸ごと除去される",
			input: `text <img src="https://example.com/x.png" alt="x"> more`,
			want:  "text  more",
		},
		{
			name:  "空文字列は空文字列を返す",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_RemovesDangerousContent は危険なコンテンツの除去を検証する。
func TestSanitize_RemovesDangerousContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{
			name:       "scriptタグが除去される",
			input:      `title <script>alert("xss")</script>`,
			wantAbsent: []string{"<script", "alert"},
		},
		{
			name:       "iframeタグが除去される",
			input:      `<iframe src="https://evil.example.com"></iframe>body`,
			wantAbsent: []string{"<iframe", "evil.example.com"},
		},
		{
			name:       "styleタグが除去される",
			input:      `<style>body{display:none}</style>text`,
			wantAbsent: []string{"<style", "display:none"},
		},
		{
			name:       "onclickイベント属性が除去される",
			input:      `<p onclick="steal()">click me</p>`,
			wantAbsent: []string{"onclick", "steal"},
		},
		{
			name:       "javascriptスキームが除去される",
			input:      `<a href="javascript:alert(1)">x</a>`,
			wantAbsent: []string{"javascript:", "href"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, %q を含んではならない", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対する出力の冪等性を検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	inputs := []string{
		"plain text body",
		"<p>markup <strong>mixed</strong> body</p>",
		`<script>alert(1)</script>残り`,
	}

	for _, input := range inputs {
		first := sanitizer.Sanitize(input)
		second := sanitizer.Sanitize(first)
		if first != second {
			t.Errorf("サニタイズが冪等でない: input=%q first=%q second=%q", input, first, second)
		}
	}
}
