// Package services はビジネスロジックを提供します。
package services

import (
	"errors"
	"net/http"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
)

// Action はリソースに対する操作の種類です。
type Action int

const (
	// ActionRead は参照です。コレクションはTodoの作成・一覧にも適用されます。
	ActionRead Action = iota
	// ActionWrite は更新・トグルです。
	ActionWrite
	// ActionShare は共有・共有解除・削除で、所有者にのみ許可されます。
	ActionShare
)

// AuthzService はリクエストユーザーがリソースに対して操作できるかを判定します。
// チェックの順序は契約です: ID形式(400) → 存在(404) → 権限(403)。
// 許可された場合は取得済みのリソースを返すため、呼び出し側での再取得は不要です。
type AuthzService struct {
	collectionRepo *repositories.CollectionRepository
	todoRepo       *repositories.TodoRepository
}

// NewAuthzService は新しいAuthzServiceを作成します。
func NewAuthzService(collectionRepo *repositories.CollectionRepository, todoRepo *repositories.TodoRepository) *AuthzService {
	return &AuthzService{collectionRepo: collectionRepo, todoRepo: todoRepo}
}

// AuthorizeCollection はコレクションへの操作を判定します。
//   - Read: オーナー、または非公開でないコレクション
//   - Write / Share: オーナーのみ
func (s *AuthzService) AuthorizeCollection(userID, collectionID string, action Action) (*models.Collection, error) {
	if !models.IsValidID(collectionID) {
		return nil, models.NewApiError(http.StatusBadRequest, "Invalid collection ID")
	}

	collection, err := s.collectionRepo.FindByID(collectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCollectionNotFound) {
			return nil, models.NewApiError(http.StatusNotFound, "Collection not found")
		}
		return nil, err
	}

	isOwner := collection.OwnerID == userID

	switch action {
	case ActionRead:
		if !isOwner && collection.IsPrivate {
			return nil, models.NewApiError(http.StatusForbidden, "This collection is private")
		}
	default:
		if !isOwner {
			return nil, models.NewApiError(http.StatusForbidden, "Unauthorized request")
		}
	}

	return collection, nil
}

// AuthorizeTodo はTodoへの操作を判定します。
//   - Read / Write: 作成者、または共有アクセスを持つユーザー
//   - Share: 作成者のみ（削除・共有・共有解除）
func (s *AuthzService) AuthorizeTodo(userID, todoID string, action Action) (*models.Todo, error) {
	if !models.IsValidID(todoID) {
		return nil, models.NewApiError(http.StatusBadRequest, "Invalid todo ID")
	}

	todo, err := s.todoRepo.FindByID(todoID)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, models.NewApiError(http.StatusNotFound, "Todo not found")
		}
		return nil, err
	}

	isCreator := todo.CreatedBy == userID

	switch action {
	case ActionShare:
		if !isCreator {
			return nil, models.NewApiError(http.StatusForbidden, "You don't have permission to access this todo")
		}
	default:
		if !isCreator && !todo.SharedWith(userID) {
			return nil, models.NewApiError(http.StatusForbidden, "You don't have permission to access this todo")
		}
	}

	return todo, nil
}
