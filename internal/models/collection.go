package models

import "time"

// DefaultCollectionColor は色が未指定のときに適用されます。
// 選択肢はリクエスト構造体の oneof タグで検証されます。
const DefaultCollectionColor = "blue"

// Collection はTodoをまとめるコレクションのデータベース構造体です。
// owner は一覧レスポンスでは省略されるため omitempty を付けています。
type Collection struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	OwnerID     string    `json:"owner,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CollectionCreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"required,min=1,max=500"`
	Color       string `json:"color" binding:"omitempty,oneof=red green blue orange black yellow"`
}

// CollectionUpdateRequest は部分更新用で、空のフィールドは変更されません。
type CollectionUpdateRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=50"`
	Description string `json:"description" binding:"omitempty,min=1,max=500"`
	Color       string `json:"color" binding:"omitempty,oneof=red green blue orange black yellow"`
}

// CollectionPublicView は他ユーザーへ公開するコレクション表現です。
// owner と isPrivate は含めません。
type CollectionPublicView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PublicView は owner と isPrivate を取り除いた表現を返します。
func (c *Collection) PublicView() CollectionPublicView {
	return CollectionPublicView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
