package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql"

	"go-collection-todo/backend/internal/models"
)

var (
	ErrTodoNotFound  = errors.New("todo not found")
	ErrDuplicateTodo = errors.New("duplicate todo title for creator")
)

// TodoRepository はtodosテーブルとtodo_sharesテーブルを操作するための構造体です。
type TodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

// Create は新しいTodoをデータベースに挿入します。
// (created_by, title) のユニーク制約違反は ErrDuplicateTodo になります。
func (r *TodoRepository) Create(t *models.Todo) (*models.Todo, error) {
	id, err := models.NewID()
	if err != nil {
		return nil, err
	}

	query := "INSERT INTO todos (id, title, content, collection_id, created_by) VALUES (?, ?, ?, ?, ?)"
	_, err = r.DB.Exec(query, id, t.Title, t.Content, t.CollectionID, t.CreatedBy)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateTodo
		}
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}
	t.ID = id

	return r.FindByID(id)
}

const todoColumns = "id, title, content, completed, completed_at, collection_id, created_by, created_at, updated_at"

func scanTodo(row interface{ Scan(...any) error }) (*models.Todo, error) {
	var t models.Todo
	var completedAt sql.NullTime
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Content,
		&t.Completed,
		&completedAt,
		&t.CollectionID,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	t.SharedAccess = []string{}
	return &t, nil
}

// FindByID はIDでTodoを検索し、共有アクセスのユーザーIDも読み込みます。
func (r *TodoRepository) FindByID(id string) (*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE id = ?"
	t, err := scanTodo(r.DB.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSharedAccess(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TodoRepository) loadSharedAccess(t *models.Todo) error {
	rows, err := r.DB.Query("SELECT user_id FROM todo_shares WHERE todo_id = ? ORDER BY created_at", t.ID)
	if err != nil {
		log.Printf("Failed to query todo shares: %v", err)
		return fmt.Errorf("could not query todo shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("could not scan todo share: %w", err)
		}
		t.SharedAccess = append(t.SharedAccess, userID)
	}
	return rows.Err()
}

// FindByCollection はコレクション内のTodoを新しい順に取得します。
// completed が non-nil の場合は完了状態で絞り込みます。
func (r *TodoRepository) FindByCollection(collectionID string, completed *bool) ([]*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE collection_id = ?"
	args := []any{collectionID}
	if completed != nil {
		query += " AND completed = ?"
		args = append(args, *completed)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range todos {
		if err := r.loadSharedAccess(t); err != nil {
			return nil, err
		}
	}
	return todos, nil
}

// ExistsByCreatorAndTitle は作成者のTodoに同名タイトルがあるか確認します。
// タイトルの一意性はコレクション単位ではなく作成者単位です。
// excludeID が空でない場合、そのTodo自身は除外します。
func (r *TodoRepository) ExistsByCreatorAndTitle(creatorID, title, excludeID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM todos WHERE created_by = ? AND title = ? AND id <> ?)",
		creatorID, title, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check todo title: %w", err)
	}
	return exists, nil
}

// Update はタイトルと本文を更新し、更新後のTodoを返します。
// content は nil でなければ空文字でも反映します。
func (r *TodoRepository) Update(id, title string, content *string) (*models.Todo, error) {
	query := `UPDATE todos SET
		title = COALESCE(NULLIF(?, ''), title),
		content = COALESCE(?, content),
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.DB.Exec(query, title, content, id)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateTodo
		}
		log.Printf("Failed to update todo: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}
	return r.FindByID(id)
}

// SetCompleted は完了状態を設定します。completedAt は完了時のみ non-nil です。
func (r *TodoRepository) SetCompleted(id string, completed bool, completedAt *time.Time) (*models.Todo, error) {
	_, err := r.DB.Exec(
		"UPDATE todos SET completed = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		completed, completedAt, id,
	)
	if err != nil {
		log.Printf("Failed to toggle todo: %v", err)
		return nil, fmt.Errorf("could not toggle todo: %w", err)
	}
	return r.FindByID(id)
}

// Delete はTodoを削除します。共有レコードはFKのカスケードで消えます。
func (r *TodoRepository) Delete(id string) error {
	res, err := r.DB.Exec("DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		log.Printf("Failed to delete todo: %v", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// DeleteByCollection はコレクション内のTodoをすべて削除します。
// コレクション削除のカスケードとして呼び出されます。
func (r *TodoRepository) DeleteByCollection(collectionID string) error {
	_, err := r.DB.Exec("DELETE FROM todos WHERE collection_id = ?", collectionID)
	if err != nil {
		log.Printf("Failed to delete todos in collection %s: %v", collectionID, err)
		return fmt.Errorf("could not delete todos in collection: %w", err)
	}
	return nil
}

// AddShare はTodoの共有アクセスにユーザーを追加します。
func (r *TodoRepository) AddShare(todoID, userID string) error {
	_, err := r.DB.Exec("INSERT INTO todo_shares (todo_id, user_id) VALUES (?, ?)", todoID, userID)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			// すでに共有済み。呼び出し側が先に確認するため通常は到達しない
			return nil
		}
		log.Printf("Failed to add todo share: %v", err)
		return fmt.Errorf("could not add todo share: %w", err)
	}
	return nil
}

// RemoveShare はTodoの共有アクセスからユーザーを除外します。
func (r *TodoRepository) RemoveShare(todoID, userID string) error {
	_, err := r.DB.Exec("DELETE FROM todo_shares WHERE todo_id = ? AND user_id = ?", todoID, userID)
	if err != nil {
		log.Printf("Failed to remove todo share: %v", err)
		return fmt.Errorf("could not remove todo share: %w", err)
	}
	return nil
}
