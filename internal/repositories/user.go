// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/go-sql-driver/mysql"

	"go-collection-todo/backend/internal/models"

	"golang.org/x/crypto/bcrypt" // パスワードのハッシュ化用
)

var (
	ErrDuplicateUser        = errors.New("duplicate username or email")
	ErrUserNotFound         = errors.New("user not found")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
)

// UserRepository はusersテーブルを操作するための構造体です。
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Create は新しいユーザーをデータベースに挿入します。
func (r *UserRepository) Create(u *models.User) (*models.User, error) {
	id, err := models.NewID()
	if err != nil {
		return nil, err
	}

	query := "INSERT INTO users (id, fullname, username, email, password_hash) VALUES (?, ?, ?, ?, ?)"
	_, err = r.DB.Exec(query, id, u.Fullname, u.Username, u.Email, u.PasswordHash)
	if err != nil {
		// MySQLの重複エントリーエラーコード1062をチェック
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateUser // カスタムエラーを返す
		}
		log.Printf("Failed to insert user: %v", err)
		return nil, fmt.Errorf("could not insert user: %w", err)
	}
	u.ID = id

	return r.FindByID(id)
}

const userColumns = "id, fullname, username, email, password_hash, COALESCE(refresh_token, ''), created_at, updated_at"

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Fullname,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to query user: %v", err)
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.DB.QueryRow(query, id))
}

// FindByUsername はユーザー名でユーザーを検索します。
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return r.scanUser(r.DB.QueryRow(query, username))
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.DB.QueryRow(query, email))
}

// UpdatePassword はユーザーのパスワードハッシュを更新します。
func (r *UserRepository) UpdatePassword(userID, newHash string) error {
	res, err := r.DB.Exec("UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", newHash, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRefreshToken はリフレッシュトークンを無条件で保存します（ログイン時）。
func (r *UserRepository) SetRefreshToken(userID, token string) error {
	_, err := r.DB.Exec("UPDATE users SET refresh_token = ? WHERE id = ?", token, userID)
	return err
}

// RotateRefreshToken は保存済みトークンが previous と一致する場合のみ
// next に差し替えます（compare-and-swap）。一致しなければ
// ErrRefreshTokenMismatch を返します。
func (r *UserRepository) RotateRefreshToken(userID, previous, next string) error {
	res, err := r.DB.Exec(
		"UPDATE users SET refresh_token = ? WHERE id = ? AND refresh_token = ?",
		next, userID, previous,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// ClearRefreshToken はリフレッシュトークンを破棄します（ログアウト時）。
// 発行済みのリフレッシュトークンは全て即座に無効になります。
func (r *UserRepository) ClearRefreshToken(userID string) error {
	_, err := r.DB.Exec("UPDATE users SET refresh_token = NULL WHERE id = ?", userID)
	return err
}
