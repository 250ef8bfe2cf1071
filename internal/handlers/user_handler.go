package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/services"
)

// UserHandler はユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService *services.UserService
	jwtService  *services.JWTService
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{userService: userService, jwtService: jwtService}
}

// setAuthCookies はアクセス・リフレッシュ両方のトークンをhttpOnlyのsecure
// Cookieとして設定します。
func (h *UserHandler) setAuthCookies(c *gin.Context, pair *services.TokenPair) {
	c.SetCookie("accessToken", pair.AccessToken, int(h.jwtService.AccessTokenTTL().Seconds()), "/", "", true, true)
	c.SetCookie("refreshToken", pair.RefreshToken, int(h.jwtService.RefreshTokenTTL().Seconds()), "/", "", true, true)
}

func clearAuthCookies(c *gin.Context) {
	c.SetCookie("accessToken", "", -1, "/", "", true, true)
	c.SetCookie("refreshToken", "", -1, "/", "", true, true)
}

// RegisterHandler はユーザー登録を処理します。
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, err := h.userService.RegisterUser(req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.NewApiResponse(http.StatusCreated, user, "New user registered"))
}

// LoginHandler はユーザーログインを処理し、トークンをCookieに設定します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, pair, err := h.userService.LoginUser(req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, user, "User logged in"))
}

// LogoutHandler はサーバー側のリフレッシュトークンを破棄し、Cookieを消します。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.userService.LogoutUser(userID); err != nil {
		_ = c.Error(err)
		return
	}

	clearAuthCookies(c)
	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{}, "User logged out"))
}

// RefreshTokenHandler はリフレッシュトークンをローテーションして
// 新しいトークンペアを発行します。トークンはCookieかボディで受け取ります。
func (h *UserHandler) RefreshTokenHandler(c *gin.Context) {
	presented, err := c.Cookie("refreshToken")
	if err != nil || presented == "" {
		var req models.RefreshTokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		_ = c.Error(models.NewApiError(http.StatusUnauthorized, "Refresh token required"))
		return
	}

	user, pair, err := h.userService.RefreshTokens(presented)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, user, "Tokens refreshed"))
}

// GetCurrentUserHandler はログイン中のユーザー情報を返します。
func (h *UserHandler) GetCurrentUserHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, user, "Current user fetched"))
}

// ChangePasswordHandler は現在のパスワードを確認してから変更します。
func (h *UserHandler) ChangePasswordHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UserChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(models.NewApiError(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	if err := h.userService.ChangePassword(userID, req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.NewApiResponse(http.StatusOK, gin.H{}, "Password changed"))
}
