package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-collection-todo/backend/internal/models"
)

// トークン種別ごとの既定の有効期限。環境変数で上書きできます。
const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// JWTService はアクセストークンとリフレッシュトークンの生成と検証を扱います。
// 種別ごとに別のシークレットで署名します。
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTService は環境変数から設定を読み込んで新しいJWTServiceを作成します。
func NewJWTService() *JWTService {
	accessSecret := os.Getenv("ACCESS_TOKEN_SECRET")
	refreshSecret := os.Getenv("REFRESH_TOKEN_SECRET")
	if accessSecret == "" || refreshSecret == "" {
		log.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET environment variables must be set")
	}
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     ttlFromEnv("ACCESS_TOKEN_EXPIRY", defaultAccessTokenTTL),
		refreshTTL:    ttlFromEnv("REFRESH_TOKEN_EXPIRY", defaultRefreshTokenTTL),
	}
}

func ttlFromEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	ttl, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s %q, using default %s", key, value, fallback)
		return fallback
	}
	return ttl
}

// AccessTokenTTL はCookieのMax-Age設定用にアクセストークンの有効期限を返します。
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// RefreshTokenTTL はリフレッシュトークンの有効期限を返します。
func (s *JWTService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// GenerateAccessToken はユーザー情報を含むアクセストークンを生成します。
func (s *JWTService) GenerateAccessToken(u *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"username": u.Username,
		"email":    u.Email,
		"fullname": u.Fullname,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// GenerateRefreshToken はユーザーIDのみを含むリフレッシュトークンを生成します。
// jtiを含めるため、同時刻に発行されたトークンも常に異なる文字列になります。
func (s *JWTService) GenerateRefreshToken(userID string) (string, error) {
	jti, err := models.NewID()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     jti,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(s.refreshTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

func parseToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewApiError(http.StatusUnauthorized, "Token expired")
		}
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	return claims, nil
}

// ValidateAccessToken はアクセストークンを検証し、クレームを返します。
func (s *JWTService) ValidateAccessToken(tokenString string) (*models.JWTClaims, error) {
	claims, err := parseToken(tokenString, s.accessSecret)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	fullname, ok := claims["fullname"].(string)
	if !ok {
		return nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	return &models.JWTClaims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Fullname: fullname,
	}, nil
}

// ValidateRefreshToken はリフレッシュトークンを検証し、ユーザーIDを返します。
func (s *JWTService) ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := parseToken(tokenString, s.refreshSecret)
	if err != nil {
		return "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", models.NewApiError(http.StatusUnauthorized, "Invalid token")
	}
	return userID, nil
}
