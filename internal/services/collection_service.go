package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
)

// CollectionService はコレクション関連のビジネスロジックを扱います。
type CollectionService struct {
	collectionRepo *repositories.CollectionRepository
	todoRepo       *repositories.TodoRepository
	userRepo       *repositories.UserRepository
	authz          *AuthzService
}

// NewCollectionService は新しいCollectionServiceを作成します。
func NewCollectionService(
	collectionRepo *repositories.CollectionRepository,
	todoRepo *repositories.TodoRepository,
	userRepo *repositories.UserRepository,
	authz *AuthzService,
) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		todoRepo:       todoRepo,
		userRepo:       userRepo,
		authz:          authz,
	}
}

// CreateCollection は新しいコレクションを作成します。
// 同じオーナーの下で名前は一意です。
func (s *CollectionService) CreateCollection(ownerID string, req models.CollectionCreateRequest) (*models.Collection, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" {
		return nil, models.NewApiError(http.StatusBadRequest, "Name can't be empty")
	}
	if description == "" {
		return nil, models.NewApiError(http.StatusBadRequest, "Description can't be empty")
	}

	exists, err := s.collectionRepo.ExistsByOwnerAndName(ownerID, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewApiError(http.StatusBadRequest, fmt.Sprintf("Collection with name %s already exists", name))
	}

	color := req.Color
	if color == "" {
		color = models.DefaultCollectionColor
	}

	collection := &models.Collection{
		Name:        name,
		Description: description,
		Color:       color,
		OwnerID:     ownerID,
	}
	created, err := s.collectionRepo.Create(collection)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateCollection) {
			return nil, models.NewApiError(http.StatusBadRequest, fmt.Sprintf("Collection with name %s already exists", name))
		}
		return nil, err
	}
	return created, nil
}

// GetCollection はコレクションを取得します。非公開のものはオーナーのみ参照できます。
func (s *CollectionService) GetCollection(userID, collectionID string) (*models.Collection, error) {
	return s.authz.AuthorizeCollection(userID, collectionID, ActionRead)
}

// UpdateCollection はオーナーのみがコレクション情報を更新できます。
func (s *CollectionService) UpdateCollection(userID, collectionID string, req models.CollectionUpdateRequest) (*models.Collection, error) {
	collection, err := s.authz.AuthorizeCollection(userID, collectionID, ActionWrite)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if req.Name != "" && req.Name != collection.Name {
		exists, err := s.collectionRepo.ExistsByOwnerAndName(collection.OwnerID, req.Name, collectionID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, models.NewApiError(http.StatusBadRequest, fmt.Sprintf("Collection with name %s already exists", req.Name))
		}
	}

	updated, err := s.collectionRepo.Update(collectionID, req)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateCollection) {
			return nil, models.NewApiError(http.StatusBadRequest, fmt.Sprintf("Collection with name %s already exists", req.Name))
		}
		return nil, err
	}
	return updated, nil
}

// DeleteCollection はコレクションと中のTodoをすべて削除します。
// コレクション削除後のカスケードが失敗した場合は握りつぶさずに500を返します。
func (s *CollectionService) DeleteCollection(userID, collectionID string) error {
	if _, err := s.authz.AuthorizeCollection(userID, collectionID, ActionWrite); err != nil {
		return err
	}

	if err := s.collectionRepo.Delete(collectionID); err != nil {
		if errors.Is(err, repositories.ErrCollectionNotFound) {
			return models.NewApiError(http.StatusNotFound, "Collection not found")
		}
		return err
	}

	// コレクション本体はすでに消えているため、ここでの失敗は不整合として報告する
	if err := s.todoRepo.DeleteByCollection(collectionID); err != nil {
		log.Printf("Error deleting todos in collection %s: %v", collectionID, err)
		return models.NewApiError(http.StatusInternalServerError, "Internal server error while deleting todos in collection")
	}
	return nil
}

// TogglePrivacy はコレクションの公開状態を反転して新しい状態を返します。
func (s *CollectionService) TogglePrivacy(userID, collectionID string) (bool, error) {
	collection, err := s.authz.AuthorizeCollection(userID, collectionID, ActionWrite)
	if err != nil {
		return false, err
	}

	newStatus := !collection.IsPrivate
	if err := s.collectionRepo.SetPrivacy(collectionID, newStatus); err != nil {
		return false, err
	}
	return newStatus, nil
}

// GetOwnCollections はログイン中ユーザーのコレクションをすべて取得します。
// 自分のものなのでプライバシーフィルタはかけません。
func (s *CollectionService) GetOwnCollections(userID string) ([]*models.Collection, error) {
	collections, err := s.collectionRepo.FindByOwner(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		c.OwnerID = "" // 一覧では owner を出さない
	}
	return collections, nil
}

// GetPublicCollectionsByUsername は指定ユーザーの公開コレクションのみ取得します。
// owner と isPrivate はレスポンスに含めません。
func (s *CollectionService) GetPublicCollectionsByUsername(username string) ([]models.CollectionPublicView, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, models.NewApiError(http.StatusBadRequest, "Username is required in query")
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewApiError(http.StatusNotFound, "User not found")
		}
		return nil, err
	}

	collections, err := s.collectionRepo.FindPublicByOwner(user.ID)
	if err != nil {
		return nil, err
	}

	views := []models.CollectionPublicView{}
	for _, c := range collections {
		views = append(views, c.PublicView())
	}
	return views, nil
}
