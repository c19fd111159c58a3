package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

const connectionColumns = `id, user_id, item_id, account_id, access_token, institution_id, institution_name, institution_logo,
		account_name, account_type, account_subtype, account_mask, status, sync_cursor, last_sync_date,
		error_code, error_message, created_at, updated_at`

func scanConnection(row pgx.Row) (*models.BankConnection, error) {
	var c models.BankConnection
	err := row.Scan(&c.ID, &c.UserID, &c.ItemID, &c.AccountID, &c.AccessToken, &c.InstitutionID, &c.InstitutionName,
		&c.InstitutionLogo, &c.AccountName, &c.AccountType, &c.AccountSubtype, &c.AccountMask, &c.Status,
		&c.SyncCursor, &c.LastSyncDate, &c.ErrorCode, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConnection inserts one connection per linked account. Re-linking an
// account the user already has refreshes the credential and institution
// details and reactivates the connection.
func SaveConnection(ctx context.Context, pool *pgxpool.Pool, c *models.BankConnection) (int64, error) {
	query := `
		INSERT INTO bank_connections (user_id, item_id, account_id, access_token, institution_id, institution_name,
			institution_logo, account_name, account_type, account_subtype, account_mask, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'connected')
		ON CONFLICT (user_id, account_id) DO UPDATE SET
			item_id = $2,
			access_token = $4,
			institution_id = $5,
			institution_name = $6,
			institution_logo = $7,
			account_name = $8,
			status = 'connected',
			error_code = NULL,
			error_message = NULL,
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := pool.QueryRow(ctx, query, c.UserID, c.ItemID, c.AccountID, c.AccessToken, c.InstitutionID,
		c.InstitutionName, c.InstitutionLogo, c.AccountName, c.AccountType, c.AccountSubtype, c.AccountMask).Scan(&id)
	return id, err
}

func GetConnectionsSQL(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.BankConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE user_id = $1 ORDER BY id`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []models.BankConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

func GetAllConnectionsSQL(ctx context.Context, pool *pgxpool.Pool) ([]models.BankConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections ORDER BY id`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []models.BankConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

// GetConnectionsByItem is used by the webhook path: a Plaid webhook carries
// only the item id, and one item may back several per-account connections.
func GetConnectionsByItem(ctx context.Context, pool *pgxpool.Pool, itemID string) ([]models.BankConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE item_id = $1 AND status <> 'disconnected'`
	rows, err := pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []models.BankConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, *c)
	}
	return connections, rows.Err()
}

// DisconnectConnection soft-terminates the connection. The row is retained so
// existing transactions keep their provenance.
func DisconnectConnection(ctx context.Context, pool *pgxpool.Pool, userID, connectionID int64) (bool, error) {
	query := `
		UPDATE bank_connections
		SET status = 'disconnected', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status <> 'disconnected'
	`
	cmd, err := pool.Exec(ctx, query, connectionID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
