package services_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/internal/repositories"
	"go-collection-todo/backend/internal/services"
	"go-collection-todo/backend/testutil"
)

// apiStatus はApiErrorのステータスコードを取り出します。ApiError以外は0です。
func apiStatus(err error) int {
	if apiErr, ok := err.(*models.ApiError); ok {
		return apiErr.StatusCode
	}
	return 0
}

func setupAuthz(t *testing.T) (*services.AuthzService, *repositories.CollectionRepository, *repositories.TodoRepository, *repositories.UserRepository, func()) {
	db, _ := testutil.SetupTestDB(t)
	collectionRepo := repositories.NewCollectionRepository(db)
	todoRepo := repositories.NewTodoRepository(db)
	userRepo := repositories.NewUserRepository(db)
	authz := services.NewAuthzService(collectionRepo, todoRepo)
	return authz, collectionRepo, todoRepo, userRepo, func() { db.Close() }
}

func seedUserID(t *testing.T, userRepo *repositories.UserRepository, username string) string {
	u, err := userRepo.FindByUsername(username)
	require.NoError(t, err)
	return u.ID
}

func TestAuthorizeCollection_CheckOrdering(t *testing.T) {
	authz, _, _, userRepo, closeDB := setupAuthz(t)
	defer closeDB()

	alice := seedUserID(t, userRepo, "alice")

	// 形式不正のIDは存在チェックより先に400
	_, err := authz.AuthorizeCollection(alice, "nope", services.ActionRead)
	assert.Equal(t, http.StatusBadRequest, apiStatus(err))

	// 形式は正しいが存在しないIDは404
	_, err = authz.AuthorizeCollection(alice, "ffffffffffffffffffffffff", services.ActionRead)
	assert.Equal(t, http.StatusNotFound, apiStatus(err))
}

func TestAuthorizeCollection_Matrix(t *testing.T) {
	authz, collectionRepo, _, userRepo, closeDB := setupAuthz(t)
	defer closeDB()

	alice := seedUserID(t, userRepo, "alice")
	bob := seedUserID(t, userRepo, "bob")

	public, err := collectionRepo.Create(&models.Collection{
		Name: "Public", Description: "d", Color: "blue", OwnerID: alice,
	})
	require.NoError(t, err)
	private, err := collectionRepo.Create(&models.Collection{
		Name: "Private", Description: "d", Color: "blue", OwnerID: alice, IsPrivate: true,
	})
	require.NoError(t, err)

	// Read: オーナー、または公開コレクション
	_, err = authz.AuthorizeCollection(alice, private.ID, services.ActionRead)
	assert.NoError(t, err)
	_, err = authz.AuthorizeCollection(bob, public.ID, services.ActionRead)
	assert.NoError(t, err)
	_, err = authz.AuthorizeCollection(bob, private.ID, services.ActionRead)
	assert.Equal(t, http.StatusForbidden, apiStatus(err))

	// Write: 公開でもオーナー以外は拒否
	_, err = authz.AuthorizeCollection(bob, public.ID, services.ActionWrite)
	assert.Equal(t, http.StatusForbidden, apiStatus(err))
	_, err = authz.AuthorizeCollection(alice, public.ID, services.ActionWrite)
	assert.NoError(t, err)
}

func TestAuthorizeTodo_Matrix(t *testing.T) {
	authz, collectionRepo, todoRepo, userRepo, closeDB := setupAuthz(t)
	defer closeDB()

	alice := seedUserID(t, userRepo, "alice")
	bob := seedUserID(t, userRepo, "bob")
	carol := seedUserID(t, userRepo, "carol")

	collection, err := collectionRepo.Create(&models.Collection{
		Name: "Work", Description: "d", Color: "blue", OwnerID: alice,
	})
	require.NoError(t, err)
	todo, err := todoRepo.Create(&models.Todo{
		Title: "Shared task", CollectionID: collection.ID, CreatedBy: alice,
	})
	require.NoError(t, err)
	require.NoError(t, todoRepo.AddShare(todo.ID, bob))

	// 作成者: すべての操作が可能
	for _, action := range []services.Action{services.ActionRead, services.ActionWrite, services.ActionShare} {
		_, err = authz.AuthorizeTodo(alice, todo.ID, action)
		assert.NoError(t, err)
	}

	// 共有アクセス: Read/Writeのみ
	_, err = authz.AuthorizeTodo(bob, todo.ID, services.ActionRead)
	assert.NoError(t, err)
	_, err = authz.AuthorizeTodo(bob, todo.ID, services.ActionWrite)
	assert.NoError(t, err)
	_, err = authz.AuthorizeTodo(bob, todo.ID, services.ActionShare)
	assert.Equal(t, http.StatusForbidden, apiStatus(err))

	// 無関係のユーザー: すべて拒否
	for _, action := range []services.Action{services.ActionRead, services.ActionWrite, services.ActionShare} {
		_, err = authz.AuthorizeTodo(carol, todo.ID, action)
		assert.Equal(t, http.StatusForbidden, apiStatus(err))
	}
}

func TestAuthorizeTodo_CheckOrdering(t *testing.T) {
	authz, _, _, userRepo, closeDB := setupAuthz(t)
	defer closeDB()

	alice := seedUserID(t, userRepo, "alice")

	_, err := authz.AuthorizeTodo(alice, "short", services.ActionRead)
	assert.Equal(t, http.StatusBadRequest, apiStatus(err))

	_, err = authz.AuthorizeTodo(alice, "ffffffffffffffffffffffff", services.ActionRead)
	assert.Equal(t, http.StatusNotFound, apiStatus(err))
}
