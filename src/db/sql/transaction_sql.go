package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

const transactionColumns = `id, user_id, date, amount, description, merchant_name, category_id, tags, notes,
		is_deductible, status, pending, payment_channel, external_transaction_id, external_account_id,
		connection_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &t.Amount, &t.Description, &t.MerchantName, &t.CategoryID,
		&t.Tags, &t.Notes, &t.IsDeductible, &t.Status, &t.Pending, &t.PaymentChannel,
		&t.ExternalTransactionID, &t.ExternalAccountID, &t.ConnectionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func GetTransactionsSQL(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY date DESC, id DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func GetTransactionByID(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int64) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	return scanTransaction(pool.QueryRow(ctx, query, transactionID, userID))
}

// CreateTransaction persists a manually entered transaction. Synced
// transactions go through the reconciler's store instead.
func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, date, amount, description, merchant_name, category_id, tags, notes, is_deductible, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transactionColumns + `
	`
	status := t.Status
	if status == "" {
		status = models.TransactionStatusPending
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return scanTransaction(pool.QueryRow(ctx, query, t.UserID, t.Date, t.Amount, t.Description,
		t.MerchantName, t.CategoryID, tags, t.Notes, t.IsDeductible, status))
}

func UpdateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET date = $1, amount = $2, description = $3, merchant_name = $4, category_id = $5,
			tags = $6, notes = $7, is_deductible = $8, status = $9, updated_at = NOW()
		WHERE id = $10 AND user_id = $11 AND deleted_at IS NULL
		RETURNING ` + transactionColumns + `
	`
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return scanTransaction(pool.QueryRow(ctx, query, t.Date, t.Amount, t.Description, t.MerchantName,
		t.CategoryID, tags, t.Notes, t.IsDeductible, t.Status, t.ID, t.UserID))
}

func DeleteTransaction(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int64) (bool, error) {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	cmd, err := pool.Exec(ctx, query, transactionID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
