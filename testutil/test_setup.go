// Package testutil はDBを使う統合テストの共通セットアップを提供します。
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"go-collection-todo/backend/internal/database"
	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
	"go-collection-todo/backend/internal/routes"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// テストで使うシードユーザー。パスワードはすべて "password123" です。
var SeedUsers = []models.User{
	{Fullname: "Alice Example", Username: "alice", Email: "alice@example.com"},
	{Fullname: "Bob Example", Username: "bob", Email: "bob@example.com"},
	{Fullname: "Carol Example", Username: "carol", Email: "carol@example.com"},
}

const SeedPassword = "password123"

// SetupTestDB はテスト用のデータベース接続を確立し、テーブルを作成し、
// シードユーザーを投入してルーターを返します。
func SetupTestDB(t *testing.T) (*sql.DB, *gin.Engine) {
	t.Helper()

	_ = godotenv.Load("../../.env")

	// JWTServiceが必須とするシークレットのデフォルト
	if os.Getenv("ACCESS_TOKEN_SECRET") == "" {
		os.Setenv("ACCESS_TOKEN_SECRET", "test-access-secret")
	}
	if os.Getenv("REFRESH_TOKEN_SECRET") == "" {
		os.Setenv("REFRESH_TOKEN_SECRET", "test-refresh-secret")
	}

	gin.SetMode(gin.TestMode)

	dbUser := os.Getenv("TEST_DB_USER")
	dbPass := os.Getenv("TEST_DB_PASS")
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbName := os.Getenv("TEST_DB_NAME")

	// In Docker container, use "db" as hostname instead of 127.0.0.1
	if dbHost == "127.0.0.1" {
		dbHost = "db"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	// 既存のテーブルを空にする (テストのたびにクリーンな状態にするため)
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS=0;"); err != nil {
		log.Printf("Failed to disable foreign key checks: %v", err)
	}
	for _, table := range []string{"todo_shares", "todos", "collections", "users"} {
		if _, err := db.Exec("TRUNCATE TABLE " + table); err != nil {
			log.Printf("Failed to truncate %s table (it might not exist yet): %v", table, err)
		}
	}
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS=1;"); err != nil {
		log.Printf("Failed to enable foreign key checks: %v", err)
	}

	if err := database.InitSchema(db); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	// シードユーザーを投入
	userRepo := repositories.NewUserRepository(db)
	hash, err := repositories.HashPassword(SeedPassword)
	if err != nil {
		t.Fatalf("Failed to hash seed password: %v", err)
	}
	for _, u := range SeedUsers {
		u.PasswordHash = hash
		if _, err := userRepo.Create(&u); err != nil {
			t.Fatalf("Failed to seed user %s: %v", u.Username, err)
		}
	}

	return db, routes.SetupRouter(db)
}

// Envelope は共通レスポンス形式のデコード用です。
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

// DoRequest はJSONボディ付きのリクエストをルーターに送ります。
// token が空でなければ Authorization ヘッダーに設定します。
func DoRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope はレスポンスボディを共通形式としてデコードします。
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Response should be a valid envelope")
	return env
}

// DecodeData はエンベロープのdataを指定の構造体にデコードします。
func DecodeData(t *testing.T, env Envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// LoginAndGetTokens はログインしてCookieからトークンペアを取り出します。
func LoginAndGetTokens(t *testing.T, r *gin.Engine, username, password string) (string, string) {
	t.Helper()

	w := DoRequest(t, r, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, "Login should succeed for %s", username)

	var accessToken, refreshToken string
	for _, cookie := range w.Result().Cookies() {
		switch cookie.Name {
		case "accessToken":
			accessToken = cookie.Value
		case "refreshToken":
			refreshToken = cookie.Value
		}
	}
	require.NotEmpty(t, accessToken, "accessToken cookie should be set")
	require.NotEmpty(t, refreshToken, "refreshToken cookie should be set")
	return accessToken, refreshToken
}

// CreateTestCollection はテスト用コレクションを作成して返します。
func CreateTestCollection(t *testing.T, r *gin.Engine, token, name string, isPrivate bool) models.Collection {
	t.Helper()

	w := DoRequest(t, r, http.MethodPost, "/api/v1/collections/me", token, gin.H{
		"name":        name,
		"description": "collection for testing",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Collection creation should succeed")

	var collection models.Collection
	DecodeData(t, DecodeEnvelope(t, w), &collection)

	if isPrivate {
		w = DoRequest(t, r, http.MethodPatch, "/api/v1/collections/me/"+collection.ID+"/privacy", token, nil)
		require.Equal(t, http.StatusOK, w.Code, "Privacy toggle should succeed")
		collection.IsPrivate = true
	}
	return collection
}

// CreateTestTodo はテスト用Todoを作成して返します。
func CreateTestTodo(t *testing.T, r *gin.Engine, token, collectionID, title string) models.Todo {
	t.Helper()

	w := DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+collectionID, token, gin.H{
		"title": title,
	})
	require.Equal(t, http.StatusCreated, w.Code, "Todo creation should succeed")

	var todo models.Todo
	DecodeData(t, DecodeEnvelope(t, w), &todo)
	return todo
}
