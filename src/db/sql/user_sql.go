package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

func CreateUser(ctx context.Context, pool *pgxpool.Pool, req models.RegisterRequest, passwordHash string) (*models.RegisterResponse, error) {
	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, username, super_admin
	`
	var resp models.RegisterResponse
	err := pool.QueryRow(ctx, query, req.Email, req.Username, passwordHash).
		Scan(&resp.ID, &resp.Email, &resp.Username, &resp.SuperAdmin)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func GetUserCredentials(ctx context.Context, pool *pgxpool.Pool, username string) (int64, string, bool, error) {
	query := `SELECT id, password_hash, super_admin FROM users WHERE username = $1`
	var id int64
	var hash string
	var superAdmin bool
	err := pool.QueryRow(ctx, query, username).Scan(&id, &hash, &superAdmin)
	if err != nil {
		return 0, "", false, err
	}
	return id, hash, superAdmin, nil
}

func GetPasswordHash(ctx context.Context, pool *pgxpool.Pool, userID int64) (string, error) {
	query := `SELECT password_hash FROM users WHERE id = $1`
	var hash string
	err := pool.QueryRow(ctx, query, userID).Scan(&hash)
	return hash, err
}

func UpdatePassword(ctx context.Context, pool *pgxpool.Pool, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := pool.Exec(ctx, query, passwordHash, userID)
	return err
}
