package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/services"
)

// CollectionHandler はコレクション関連のハンドラーを管理します。
type CollectionHandler struct {
	collectionService *services.CollectionService
}

// NewCollectionHandler は新しいCollectionHandlerを作成します。
func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// CreateCollectionHandler は新しいコレクションを作成します。
func (h *CollectionHandler) CreateCollectionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CollectionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	collection, err := h.collectionService.CreateCollection(userID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.NewApiResponse(http.StatusCreated, collection, "New collection created"))
}

// GetCollectionHandler は指定IDのコレクションを取得します。
func (h *CollectionHandler) GetCollectionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	collection, err := h.collectionService.GetCollection(userID, c.Param("collectionId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, collection, "Collection fetched"))
}

// UpdateCollectionHandler はコレクション情報を更新します。
func (h *CollectionHandler) UpdateCollectionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CollectionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	collection, err := h.collectionService.UpdateCollection(userID, c.Param("collectionId"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, collection, "Collection information updated"))
}

// DeleteCollectionHandler はコレクションと中のTodoを削除します。
func (h *CollectionHandler) DeleteCollectionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.collectionService.DeleteCollection(userID, c.Param("collectionId")); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{"isDeleted": true}, "Collection deleted"))
}

// TogglePrivacyHandler はコレクションの公開状態を反転します。
func (h *CollectionHandler) TogglePrivacyHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	isPrivate, err := h.collectionService.TogglePrivacy(userID, c.Param("collectionId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{"isPrivate": isPrivate}, "Status toggled"))
}

// GetOwnCollectionsHandler はログイン中ユーザーのコレクション一覧を返します。
func (h *CollectionHandler) GetOwnCollectionsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	collections, err := h.collectionService.GetOwnCollections(userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	username, _ := c.Get("username")
	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{
		"owner":            username,
		"totalCollections": len(collections),
		"collections":      collections,
	}, "Collections for logged in user"))
}

// GetCollectionsByUsernameHandler は指定ユーザーの公開コレクション一覧を返します。
func (h *CollectionHandler) GetCollectionsByUsernameHandler(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	username := c.Query("username")
	collections, err := h.collectionService.GetPublicCollectionsByUsername(username)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{
		"owner":            username,
		"totalCollections": len(collections),
		"collections":      collections,
	}, fmt.Sprintf("Collections for user %s", username)))
}
