package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

// GetCategoriesSQL returns the global defaults plus the user's own
// categories.
func GetCategoriesSQL(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name, is_default, created_at
		FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY is_default DESC, name
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.IsDefault, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryByID resolves a category the user may reference: a global
// default or one of their own.
func GetCategoryByID(ctx context.Context, pool *pgxpool.Pool, userID, categoryID int64) (*models.Category, error) {
	query := `
		SELECT id, user_id, name, is_default, created_at
		FROM categories
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, categoryID, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.IsDefault, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func CreateCategory(ctx context.Context, pool *pgxpool.Pool, userID int64, name string) (*models.Category, error) {
	query := `
		INSERT INTO categories (user_id, name)
		VALUES ($1, $2)
		RETURNING id, user_id, name, is_default, created_at
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, userID, name).Scan(&c.ID, &c.UserID, &c.Name, &c.IsDefault, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCategory renames a custom category. Defaults are immutable, enforced
// by the is_default filter.
func UpdateCategory(ctx context.Context, pool *pgxpool.Pool, userID, categoryID int64, name string) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = $1
		WHERE id = $2 AND user_id = $3 AND is_default = FALSE
		RETURNING id, user_id, name, is_default, created_at
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, name, categoryID, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.IsDefault, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a custom category. The foreign key from
// transactions blocks deleting a category that is still referenced; callers
// surface that as a conflict.
func DeleteCategory(ctx context.Context, pool *pgxpool.Pool, userID, categoryID int64) (bool, error) {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2 AND is_default = FALSE`
	cmd, err := pool.Exec(ctx, query, categoryID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
