package models

import "time"

// User はユーザーのデータベース構造体を表します。
// JSONタグ: クライアントとの通信用
// bindingタグ: Ginでのリクエストバリデーション用
type User struct {
	ID           string    `json:"id,omitempty"`
	Fullname     string    `json:"fullname"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // JSONに出さない
	RefreshToken string    `json:"-"` // 現在有効なリフレッシュトークン（単一スロット）
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserRegisterRequest struct {
	Fullname string `json:"fullname" binding:"required,min=2,max=50"`
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"` // 生パスワード
}

// UserLoginRequest はusernameまたはemailのどちらかでログインできます。
type UserLoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"` // 生パスワード
}

type UserChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// RefreshTokenRequest はCookieを送れないクライアント向けのボディ渡しです。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// JWTClaims はアクセストークンに含まれるユーザー情報です。
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}
