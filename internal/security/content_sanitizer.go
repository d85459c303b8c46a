// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はリモートコレクション由来のテキスト
// （記事タイトル・本文、コメント本文など）をサニタイズし、
// 侵害されたアップストリームがマークアップを混入させた場合でも
// XSS攻撃からユーザーを保護する。コレクションのデータモデルは
// プレーンテキストのため、bluemondayのStrictPolicyで
// すべてのタグを除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストフィールドのサニタイズ機能の
// インターフェースを定義する。解決エンジンがアップストリームの
// 値を結果セットへ取り込む境界で使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはいかなるタグ・属性も許可しないため、
// script、iframe、styleおよびon*イベント属性を含む
// すべてのマークアップが除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去したテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
