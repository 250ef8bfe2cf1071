package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-collection-todo/backend/internal/models"
	"go-collection-todo/backend/testutil"
)

func TestCreateTodo_Success(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Errands", false)

	w := testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+collection.ID, access, gin.H{
		"title":   "Buy milk today",
		"content": "Two liters",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Expected HTTP Status Code 201 Created")

	var todo models.Todo
	testutil.DecodeData(t, testutil.DecodeEnvelope(t, w), &todo)
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, "Buy milk today", todo.Title)
	assert.Equal(t, collection.ID, todo.CollectionID)
	assert.False(t, todo.Completed)
	assert.Nil(t, todo.CompletedAt, "completedAt should be null until completed")
	assert.Empty(t, todo.SharedAccess)
}

func TestCreateTodo_TitleTooShort(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Errands", false)

	w := testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+collection.ID, access, gin.H{
		"title": "Hi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTodo_DuplicateTitlePerCreatorAcrossCollections(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	aliceToken, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	bobToken, _ := testutil.LoginAndGetTokens(t, r, "bob", testutil.SeedPassword)

	first := testutil.CreateTestCollection(t, r, aliceToken, "First", false)
	second := testutil.CreateTestCollection(t, r, aliceToken, "Second", false)

	testutil.CreateTestTodo(t, r, aliceToken, first.ID, "Water the plants")

	// タイトルの一意性はコレクションではなく作成者単位
	w := testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+second.ID, aliceToken, gin.H{
		"title": "Water the plants",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 別の作成者なら同じタイトルでも作成できる
	bobCollection := testutil.CreateTestCollection(t, r, bobToken, "Bob's", false)
	w = testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+bobCollection.ID, bobToken, gin.H{
		"title": "Water the plants",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateTodo_CollectionAccessRule(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	aliceToken, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	bobToken, _ := testutil.LoginAndGetTokens(t, r, "bob", testutil.SeedPassword)

	public := testutil.CreateTestCollection(t, r, aliceToken, "Shared board", false)
	private := testutil.CreateTestCollection(t, r, aliceToken, "Private board", true)

	// 公開コレクションには他ユーザーもTodoを作成できる
	w := testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+public.ID, bobToken, gin.H{
		"title": "Bob's suggestion",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// 非公開コレクションには作成できない
	w = testutil.DoRequest(t, r, http.MethodPost, "/api/v1/todos/"+private.ID, bobToken, gin.H{
		"title": "Sneaky addition",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetTodosByCollection_FilterAndPrivacy(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	aliceToken, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	bobToken, _ := testutil.LoginAndGetTokens(t, r, "bob", testutil.SeedPassword)

	collection := testutil.CreateTestCollection(t, r, aliceToken, "Mixed", false)
	done := testutil.CreateTestTodo(t, r, aliceToken, collection.ID, "Already done")
	testutil.CreateTestTodo(t, r, aliceToken, collection.ID, "Still pending")
	testutil.CreateTestTodo(t, r, bobToken, collection.ID, "Added while public")

	w := testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+done.ID+"/toggle", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// completedフィルタ
	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/getTodos/"+collection.ID+"?completed=true", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Count int           `json:"count"`
		Todos []models.Todo `json:"todos"`
	}
	testutil.DecodeData(t, testutil.DecodeEnvelope(t, w), &result)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "Already done", result.Todos[0].Title)

	// 非公開に変更すると、中にTodoを持つ作成者でも一覧できなくなる
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/collections/me/"+collection.ID+"/privacy", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/getTodos/"+collection.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestToggleTodo_CompletedAtRoundTrip(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Errands", false)
	todo := testutil.CreateTestTodo(t, r, access, collection.ID, "Buy milk today")

	require.False(t, todo.Completed)
	require.Nil(t, todo.CompletedAt)

	// 完了にすると completedAt が入る
	w := testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/toggle", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled models.Todo
	env := testutil.DecodeEnvelope(t, w)
	testutil.DecodeData(t, env, &toggled)
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)
	assert.Equal(t, "Todo marked as completed", env.Message)

	// 戻すと completedAt が消える
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/toggle", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = testutil.DecodeEnvelope(t, w)
	testutil.DecodeData(t, env, &toggled)
	assert.False(t, toggled.Completed)
	assert.Nil(t, toggled.CompletedAt)
	assert.Equal(t, "Todo marked as incomplete", env.Message)
}

func TestUpdateTodo_TitleConflict(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Errands", false)

	testutil.CreateTestTodo(t, r, access, collection.ID, "Existing title")
	other := testutil.CreateTestTodo(t, r, access, collection.ID, "Another title")

	w := testutil.DoRequest(t, r, http.MethodPut, "/api/v1/todos/"+other.ID, access, gin.H{
		"title": "Existing title",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 本文のみの更新は衝突しない
	w = testutil.DoRequest(t, r, http.MethodPut, "/api/v1/todos/"+other.ID, access, gin.H{
		"content": "updated content",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Todo
	testutil.DecodeData(t, testutil.DecodeEnvelope(t, w), &updated)
	assert.Equal(t, "updated content", updated.Content)
	assert.Equal(t, "Another title", updated.Title)
}

func TestShareTodo_PermissionMatrix(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	aliceToken, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	bobToken, _ := testutil.LoginAndGetTokens(t, r, "bob", testutil.SeedPassword)
	carolToken, _ := testutil.LoginAndGetTokens(t, r, "carol", testutil.SeedPassword)

	collection := testutil.CreateTestCollection(t, r, aliceToken, "Shared work", false)
	todo := testutil.CreateTestTodo(t, r, aliceToken, collection.ID, "Collaborative task")

	// 共有前: bobは参照できない
	w := testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/"+todo.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// aliceがbobに共有
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", aliceToken, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// bobは参照・更新・トグルができる
	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/"+todo.ID, bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, r, http.MethodPut, "/api/v1/todos/"+todo.ID, bobToken, gin.H{
		"content": "bob was here",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/toggle", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// bobは削除・共有・共有解除はできない（作成者のみ）
	w = testutil.DoRequest(t, r, http.MethodDelete, "/api/v1/todos/"+todo.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", bobToken, gin.H{
		"username": "carol",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/unshare", bobToken, gin.H{
		"username": "bob",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 共有されていないcarolは参照できない
	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/"+todo.ID, carolToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// aliceが共有を解除するとbobのアクセスは消える
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/unshare", aliceToken, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/"+todo.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestShareTodo_EdgeCases(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Edge cases", false)
	todo := testutil.CreateTestTodo(t, r, access, collection.ID, "Edge case task")

	// 作成者自身への共有は400
	w := testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", access, gin.H{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 存在しないユーザーへの共有は404
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", access, gin.H{
		"username": "nobody",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 二重共有は400
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", access, gin.H{
		"username": "bob",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/share", access, gin.H{
		"username": "bob",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 共有していないユーザーの解除は400
	w = testutil.DoRequest(t, r, http.MethodPatch, "/api/v1/todos/"+todo.ID+"/unshare", access, gin.H{
		"username": "carol",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTodo_CreatorOnly(t *testing.T) {
	db, r := testutil.SetupTestDB(t)
	defer db.Close()

	access, _ := testutil.LoginAndGetTokens(t, r, "alice", testutil.SeedPassword)
	collection := testutil.CreateTestCollection(t, r, access, "Errands", false)
	todo := testutil.CreateTestTodo(t, r, access, collection.ID, "Temporary task")

	w := testutil.DoRequest(t, r, http.MethodDelete, "/api/v1/todos/"+todo.ID, access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(t, r, http.MethodGet, "/api/v1/todos/"+todo.ID, access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
