package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// CreateTodoHandler はコレクション内に新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.TodoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	todo, err := h.todoService.CreateTodo(userID, c.Param("collectionId"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.NewApiResponse(http.StatusCreated, todo, "Todo created successfully"))
}

// GetTodosByCollectionHandler はコレクション内のTodo一覧を返します。
// completed クエリで完了状態の絞り込みができます。
func (h *TodoHandler) GetTodosByCollectionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var completed *bool
	if v, exists := c.GetQuery("completed"); exists {
		value := v == "true"
		completed = &value
	}

	collectionID := c.Param("collectionId")
	todos, err := h.todoService.GetTodosByCollection(userID, collectionID, completed)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{
		"collectionId": collectionID,
		"count":        len(todos),
		"todos":        todos,
	}, "Todos retrieved successfully"))
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodoByID(userID, c.Param("todoId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, todo, "Todo retrieved successfully"))
}

// UpdateTodoHandler はTodoのタイトルと本文を更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.TodoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	todo, err := h.todoService.UpdateTodo(userID, c.Param("todoId"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, todo, "Todo updated successfully"))
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(userID, c.Param("todoId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{"deleted": true}, "Todo deleted successfully"))
}

// ToggleTodoStatusHandler はTodoの完了状態を反転します。
func (h *TodoHandler) ToggleTodoStatusHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.ToggleTodoStatus(userID, c.Param("todoId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Todo marked as incomplete"
	if todo.Completed {
		message = "Todo marked as completed"
	}
	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, todo, message))
}

// ShareTodoHandler はTodoを指定ユーザーに共有します。
func (h *TodoHandler) ShareTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.TodoShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Username is required"))
		return
	}

	todo, err := h.todoService.ShareTodo(userID, c.Param("todoId"), req.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, todo, fmt.Sprintf("Todo shared with %s", req.Username)))
}

// UnshareTodoHandler はTodoの共有を解除します。
func (h *TodoHandler) UnshareTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.TodoShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Username is required"))
		return
	}

	todo, err := h.todoService.UnshareTodo(userID, c.Param("todoId"), req.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, todo, fmt.Sprintf("Todo unshared with %s", req.Username)))
}
