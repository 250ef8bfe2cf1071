package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/services"
)

// AuthMiddleware はアクセストークンを検証し、ユーザー情報をコンテキストに
// 設定するミドルウェアです。トークンはCookieまたはAuthorizationヘッダーで
// 受け取ります。検証に失敗したリクエストは必ず401で遮断されます。
func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("accessToken")
		if err != nil || tokenString == "" {
			header := c.GetHeader("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				_ = c.Error(models.NewApiError(http.StatusUnauthorized, "Unauthorized"))
				c.Abort()
				return
			}
			tokenString = header[len("Bearer "):]
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			_ = c.Error(models.NewApiError(http.StatusUnauthorized, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("email", claims.Email)
		c.Set("fullname", claims.Fullname)
		c.Next()
	}
}

// ErrorMiddleware はハンドラーが積んだエラーを共通レスポンス形式
// {statusCode, data, message, success} に変換する境界のミドルウェアです。
// ApiError以外のエラーは詳細を漏らさず500に丸めてログに残します。
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *models.ApiError
		if !errors.As(err, &apiErr) {
			log.Printf("Unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			apiErr = models.NewApiError(http.StatusInternalServerError, "Something went wrong")
		}

		c.JSON(apiErr.StatusCode, apiErr.Response())
	}
}
