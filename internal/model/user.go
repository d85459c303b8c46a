// Package model はドメインモデルを定義する。
package model

// User はコンテンツの著者を表す。フェッチ後はイミュータブル。
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Website  string `json:"website,omitempty"`
}

// EnrichedUser は著者に表示用の派生フィールドを付与した合成値。
// アバター参照と短い経歴はIDから決定論的に導出される。
type EnrichedUser struct {
	User
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

// Comment は記事に対するコメントを表す。
// Emailは自由記述であり、Userコレクションと一致する保証はない
// （部分的な外部キー関係）。フェッチ後はイミュータブル。
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}
