package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/go-sql-driver/mysql"

	"go-collection-todo/backend/internal/models"
)

var (
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrDuplicateCollection = errors.New("duplicate collection name for owner")
)

// CollectionRepository はcollectionsテーブルを操作するための構造体です。
type CollectionRepository struct {
	DB *sql.DB
}

// NewCollectionRepository は新しいCollectionRepositoryインスタンスを作成します。
func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{DB: db}
}

// Create は新しいコレクションをデータベースに挿入します。
// (owner_id, name) のユニーク制約違反は ErrDuplicateCollection になります。
func (r *CollectionRepository) Create(c *models.Collection) (*models.Collection, error) {
	id, err := models.NewID()
	if err != nil {
		return nil, err
	}

	query := "INSERT INTO collections (id, name, description, color, owner_id, is_private) VALUES (?, ?, ?, ?, ?, ?)"
	_, err = r.DB.Exec(query, id, c.Name, c.Description, c.Color, c.OwnerID, c.IsPrivate)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateCollection
		}
		log.Printf("Failed to insert collection: %v", err)
		return nil, fmt.Errorf("could not insert collection: %w", err)
	}
	c.ID = id

	return r.FindByID(id)
}

const collectionColumns = "id, name, description, color, owner_id, is_private, created_at, updated_at"

func scanCollection(row interface{ Scan(...any) error }) (*models.Collection, error) {
	var c models.Collection
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Color,
		&c.OwnerID,
		&c.IsPrivate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCollectionNotFound
		}
		log.Printf("Failed to query collection: %v", err)
		return nil, fmt.Errorf("could not query collection: %w", err)
	}
	return &c, nil
}

// FindByID はIDでコレクションを検索します。
func (r *CollectionRepository) FindByID(id string) (*models.Collection, error) {
	query := "SELECT " + collectionColumns + " FROM collections WHERE id = ?"
	return scanCollection(r.DB.QueryRow(query, id))
}

// FindByOwner はオーナーのコレクションをすべて取得します。
func (r *CollectionRepository) FindByOwner(ownerID string) ([]*models.Collection, error) {
	query := "SELECT " + collectionColumns + " FROM collections WHERE owner_id = ? ORDER BY created_at DESC"
	return r.queryCollections(query, ownerID)
}

// FindPublicByOwner はオーナーの公開コレクションのみ取得します。
func (r *CollectionRepository) FindPublicByOwner(ownerID string) ([]*models.Collection, error) {
	query := "SELECT " + collectionColumns + " FROM collections WHERE owner_id = ? AND is_private = FALSE ORDER BY created_at DESC"
	return r.queryCollections(query, ownerID)
}

func (r *CollectionRepository) queryCollections(query string, args ...any) ([]*models.Collection, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		log.Printf("Failed to query collections: %v", err)
		return nil, fmt.Errorf("could not query collections: %w", err)
	}
	defer rows.Close()

	collections := []*models.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// ExistsByOwnerAndName は同名コレクションの存在を確認します。
// excludeID が空でない場合、そのIDのコレクション自身は除外します。
func (r *CollectionRepository) ExistsByOwnerAndName(ownerID, name, excludeID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM collections WHERE owner_id = ? AND name = ? AND id <> ?)",
		ownerID, name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check collection name: %w", err)
	}
	return exists, nil
}

// Update は空でないフィールドのみ更新し、更新後のコレクションを返します。
func (r *CollectionRepository) Update(id string, req models.CollectionUpdateRequest) (*models.Collection, error) {
	query := `UPDATE collections SET
		name = COALESCE(NULLIF(?, ''), name),
		description = COALESCE(NULLIF(?, ''), description),
		color = COALESCE(NULLIF(?, ''), color),
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.DB.Exec(query, req.Name, req.Description, req.Color, id)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateCollection
		}
		log.Printf("Failed to update collection: %v", err)
		return nil, fmt.Errorf("could not update collection: %w", err)
	}
	return r.FindByID(id)
}

// SetPrivacy はプライバシーフラグを設定します。
func (r *CollectionRepository) SetPrivacy(id string, isPrivate bool) error {
	res, err := r.DB.Exec("UPDATE collections SET is_private = ? WHERE id = ?", isPrivate, id)
	if err != nil {
		return fmt.Errorf("could not update privacy flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

// Delete はコレクションを削除します。中のTodoの削除は呼び出し側で行います。
func (r *CollectionRepository) Delete(id string) error {
	res, err := r.DB.Exec("DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		log.Printf("Failed to delete collection: %v", err)
		return fmt.Errorf("could not delete collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCollectionNotFound
	}
	return nil
}
