package services

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
)

// TodoService はTodo関連のビジネスロジックを扱います。
type TodoService struct {
	todoRepo *repositories.TodoRepository
	userRepo *repositories.UserRepository
	authz    *AuthzService
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository, userRepo *repositories.UserRepository, authz *AuthzService) *TodoService {
	return &TodoService{todoRepo: todoRepo, userRepo: userRepo, authz: authz}
}

// CreateTodo はコレクション内に新しいTodoを作成します。
// コレクションへの参照権限が必要です。タイトルは作成者単位で一意です。
func (s *TodoService) CreateTodo(userID, collectionID string, req models.TodoCreateRequest) (*models.Todo, error) {
	if _, err := s.authz.AuthorizeCollection(userID, collectionID, ActionRead); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	exists, err := s.todoRepo.ExistsByCreatorAndTitle(userID, title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewApiError(http.StatusBadRequest, "A todo with this title already exists")
	}

	todo := &models.Todo{
		Title:        title,
		Content:      strings.TrimSpace(req.Content),
		CollectionID: collectionID,
		CreatedBy:    userID,
	}
	created, err := s.todoRepo.Create(todo)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateTodo) {
			return nil, models.NewApiError(http.StatusBadRequest, "A todo with this title already exists")
		}
		return nil, err
	}
	return created, nil
}

// GetTodosByCollection はコレクション内のTodoを新しい順に取得します。
// completed が non-nil の場合は完了状態で絞り込みます。
func (s *TodoService) GetTodosByCollection(userID, collectionID string, completed *bool) ([]*models.Todo, error) {
	if _, err := s.authz.AuthorizeCollection(userID, collectionID, ActionRead); err != nil {
		return nil, err
	}
	return s.todoRepo.FindByCollection(collectionID, completed)
}

// GetTodoByID は指定IDのTodoを取得します。作成者か共有アクセスが必要です。
func (s *TodoService) GetTodoByID(userID, todoID string) (*models.Todo, error) {
	return s.authz.AuthorizeTodo(userID, todoID, ActionRead)
}

// UpdateTodo はタイトルと本文を更新します。作成者か共有アクセスが必要です。
// タイトルの一意性はリクエストユーザーではなくTodoの作成者に対して確認します。
func (s *TodoService) UpdateTodo(userID, todoID string, req models.TodoUpdateRequest) (*models.Todo, error) {
	todo, err := s.authz.AuthorizeTodo(userID, todoID, ActionWrite)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title != "" && title != todo.Title {
		exists, err := s.todoRepo.ExistsByCreatorAndTitle(todo.CreatedBy, title, todoID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, models.NewApiError(http.StatusBadRequest, "A todo with this title already exists")
		}
	}

	var content *string
	if req.Content != nil {
		trimmed := strings.TrimSpace(*req.Content)
		content = &trimmed
	}

	updated, err := s.todoRepo.Update(todoID, title, content)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateTodo) {
			return nil, models.NewApiError(http.StatusBadRequest, "A todo with this title already exists")
		}
		return nil, err
	}
	return updated, nil
}

// DeleteTodo はTodoを削除します。作成者のみ削除できます。
func (s *TodoService) DeleteTodo(userID, todoID string) error {
	if _, err := s.authz.AuthorizeTodo(userID, todoID, ActionShare); err != nil {
		return err
	}
	return s.todoRepo.Delete(todoID)
}

// ToggleTodoStatus は完了状態を反転します。作成者か共有アクセスが必要です。
// 完了時は completedAt を記録し、未完了に戻すと消去します。
func (s *TodoService) ToggleTodoStatus(userID, todoID string) (*models.Todo, error) {
	todo, err := s.authz.AuthorizeTodo(userID, todoID, ActionWrite)
	if err != nil {
		return nil, err
	}

	newStatus := !todo.Completed
	var completedAt *time.Time
	if newStatus {
		now := time.Now()
		completedAt = &now
	}
	return s.todoRepo.SetCompleted(todoID, newStatus, completedAt)
}

// ShareTodo はTodoを別のユーザーに共有します。作成者のみ共有できます。
func (s *TodoService) ShareTodo(userID, todoID, username string) (*models.Todo, error) {
	todo, err := s.authz.AuthorizeTodo(userID, todoID, ActionShare)
	if err != nil {
		return nil, err
	}

	target, err := s.findShareTarget(username)
	if err != nil {
		return nil, err
	}
	if target.ID == todo.CreatedBy {
		return nil, models.NewApiError(http.StatusBadRequest, "Cannot share a todo with its creator")
	}
	if todo.SharedWith(target.ID) {
		return nil, models.NewApiError(http.StatusBadRequest, "Todo already shared with this user")
	}

	if err := s.todoRepo.AddShare(todoID, target.ID); err != nil {
		return nil, err
	}
	return s.todoRepo.FindByID(todoID)
}

// UnshareTodo はTodoの共有を解除します。作成者のみ解除できます。
func (s *TodoService) UnshareTodo(userID, todoID, username string) (*models.Todo, error) {
	todo, err := s.authz.AuthorizeTodo(userID, todoID, ActionShare)
	if err != nil {
		return nil, err
	}

	target, err := s.findShareTarget(username)
	if err != nil {
		return nil, err
	}
	if !todo.SharedWith(target.ID) {
		return nil, models.NewApiError(http.StatusBadRequest, "Todo is not shared with this user")
	}

	if err := s.todoRepo.RemoveShare(todoID, target.ID); err != nil {
		return nil, err
	}
	return s.todoRepo.FindByID(todoID)
}

func (s *TodoService) findShareTarget(username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, models.NewApiError(http.StatusBadRequest, "Username is required")
	}
	target, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewApiError(http.StatusNotFound, "User not found")
		}
		return nil, err
	}
	return target, nil
}
