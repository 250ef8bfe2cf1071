package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-collection-todo/backend/testutil"
)

// 保護されたエンドポイントはトークンなしでは必ず401で閉じること。
func TestAuthMiddleware_MissingToken(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/users/logout"},
		{http.MethodGet, "/api/v1/collections/me"},
		{http.MethodGet, "/api/v1/todos/ffffffffffffffffffffffff"},
	}

	for _, route := range protected {
		req, _ := http.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should require a token", route.method, route.path)

		env := testutil.DecodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.value")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_TokenFromCookie(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "Access token should be accepted from the cookie")
}
