package services

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserService はユーザー登録とセッション関連のビジネスロジックを扱います。
type UserService struct {
	userRepo   *repositories.UserRepository
	jwtService *JWTService
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository, jwtService *JWTService) *UserService {
	return &UserService{userRepo: userRepo, jwtService: jwtService}
}

// TokenPair はログインとリフレッシュで発行されるトークンの組です。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterUser はユーザーを登録します。usernameとemailは小文字に正規化されます。
func (s *UserService) RegisterUser(req models.UserRegisterRequest) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, models.NewApiError(http.StatusBadRequest, "Username can only contain letters, numbers, and underscores")
	}

	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Fullname:     strings.TrimSpace(req.Fullname),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashedPassword,
	}

	createdUser, err := s.userRepo.Create(newUser)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, models.NewApiError(http.StatusBadRequest, "User already exists, please log in")
		}
		return nil, err
	}
	createdUser.PasswordHash = "" // レスポンスにパスワードを含めない
	return createdUser, nil
}

// LoginUser はユーザーを認証し、トークンペアを発行して
// リフレッシュトークンをユーザーに保存します。
// ユーザーの存在とパスワードの誤りは区別せず同じエラーを返します。
func (s *UserService) LoginUser(req models.UserLoginRequest) (*models.User, *TokenPair, error) {
	if req.Username == "" && req.Email == "" {
		return nil, nil, models.NewApiError(http.StatusBadRequest, "Both username and email can't be empty")
	}

	foundUser, err := s.findByIdentifier(req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, models.NewApiError(http.StatusUnauthorized, "Invalid credentials")
		}
		return nil, nil, err
	}

	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, nil, models.NewApiError(http.StatusUnauthorized, "Invalid credentials")
	}

	pair, err := s.issueTokenPair(foundUser)
	if err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.SetRefreshToken(foundUser.ID, pair.RefreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	foundUser.PasswordHash = "" // レスポンスにパスワードを含めない
	foundUser.RefreshToken = ""
	return foundUser, pair, nil
}

func (s *UserService) findByIdentifier(username, email string) (*models.User, error) {
	if username != "" {
		return s.userRepo.FindByUsername(strings.ToLower(strings.TrimSpace(username)))
	}
	return s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) issueTokenPair(u *models.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// LogoutUser は保存済みのリフレッシュトークンを破棄します。
// 発行済みのリフレッシュトークンは署名が有効でも使えなくなります。
func (s *UserService) LogoutUser(userID string) error {
	return s.userRepo.ClearRefreshToken(userID)
}

// RefreshTokens はリフレッシュトークンを検証してトークンペアを再発行します。
// トークンはローテーションされ、古いトークンは以後拒否されます。
// 署名は正しいが保存済みの値と一致しない場合は再利用の兆候として403を返します。
func (s *UserService) RefreshTokens(presented string) (*models.User, *TokenPair, error) {
	userID, err := s.jwtService.ValidateRefreshToken(presented)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, models.NewApiError(http.StatusUnauthorized, "Invalid token")
		}
		return nil, nil, err
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return nil, nil, models.NewApiError(http.StatusForbidden, "Refresh token reuse detected")
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	// compare-and-swap: 同時リフレッシュで負けた側は再利用として扱う
	if err := s.userRepo.RotateRefreshToken(user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenMismatch) {
			return nil, nil, models.NewApiError(http.StatusForbidden, "Refresh token reuse detected")
		}
		return nil, nil, err
	}

	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, pair, nil
}

// GetUserByID はIDでユーザーを取得します。
func (s *UserService) GetUserByID(userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewApiError(http.StatusNotFound, "User not found")
		}
		return nil, err
	}
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, nil
}

// ChangePassword は現在のパスワードを確認してから新しいパスワードを保存します。
// 新しいパスワードが保存済みハッシュと一致する場合は再ハッシュせずに終了します。
func (s *UserService) ChangePassword(userID string, req models.UserChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.NewApiError(http.StatusNotFound, "User not found")
		}
		return err
	}

	if err := repositories.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return models.NewApiError(http.StatusUnauthorized, "Invalid credentials")
	}

	// 変更されていないパスワードを再ハッシュしない
	if err := repositories.VerifyPassword(user.PasswordHash, req.NewPassword); err == nil {
		return nil
	}

	newHash, err := repositories.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(userID, newHash)
}
