// Package handlers はGinのリクエストハンドラーを提供します。
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/models"
)

// currentUserID は認証ミドルウェアが設定したユーザーIDを取り出します。
// 設定されていない場合は401エラーをcに積んで false を返します。
func currentUserID(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		_ = c.Error(models.NewApiError(http.StatusUnauthorized, "User ID not found in context"))
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		_ = c.Error(models.NewApiError(http.StatusInternalServerError, "Invalid user ID type in context"))
		return "", false
	}
	return userID, true
}
