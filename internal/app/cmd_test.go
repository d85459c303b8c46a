package app

import "testing"

// TestParseCommand はサブコマンド解析を検証する。
func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "引数なしはserve", args: []string{}, want: CommandServe},
		{name: "serve", args: []string{"serve"}, want: CommandServe},
		{name: "check", args: []string{"check"}, want: CommandCheck},
		{name: "healthcheck", args: []string{"healthcheck"}, want: CommandHealthcheck},
		{name: "サポート外はserve", args: []string{"unknown"}, want: CommandServe},
		{name: "後続の引数は無視", args: []string{"check", "--verbose"}, want: CommandCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, 期待値 %q", tt.args, got, tt.want)
			}
		})
	}
}
