// Package modelsはエンティティとリクエスト/レスポンスの構造体を定義します。
package models

import "time"

// Todo はタスクのデータベース構造体です。
// CompletedAt は completed が true のときだけ non-nil になります。
type Todo struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt"`
	CollectionID string     `json:"parentCollection"`
	CreatedBy    string     `json:"createdBy"`
	SharedAccess []string   `json:"sharedAccess"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type TodoCreateRequest struct {
	Title   string `json:"title" binding:"required,min=5,max=30"`
	Content string `json:"content" binding:"omitempty,max=500"`
}

// TodoUpdateRequest は部分更新用です。Content はポインタで
// 「空文字に更新」と「変更なし」を区別します。
type TodoUpdateRequest struct {
	Title   string  `json:"title" binding:"omitempty,min=5,max=30"`
	Content *string `json:"content" binding:"omitempty,max=500"`
}

// TodoShareRequest は共有・共有解除の対象ユーザーを指定します。
type TodoShareRequest struct {
	Username string `json:"username" binding:"required"`
}

// SharedWith は指定ユーザーが共有アクセスを持つかを返します。
func (t *Todo) SharedWith(userID string) bool {
	for _, id := range t.SharedAccess {
		if id == userID {
			return true
		}
	}
	return false
}
