package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

// SyncStore implements sync.Store over the pool. Every query filters on
// user_id; an external id colliding across owners must never match.
type SyncStore struct {
	Pool *pgxpool.Pool
}

func (s *SyncStore) GetConnection(ctx context.Context, connectionID, userID int64) (*models.BankConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE id = $1 AND user_id = $2`
	c, err := scanConnection(s.Pool.QueryRow(ctx, query, connectionID, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *SyncStore) SetConnectionStatus(ctx context.Context, connectionID, userID int64, status string) error {
	query := `UPDATE bank_connections SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`
	_, err := s.Pool.Exec(ctx, query, status, connectionID, userID)
	return err
}

func (s *SyncStore) RecordSyncSuccess(ctx context.Context, connectionID, userID int64, cursor string, at time.Time) error {
	query := `
		UPDATE bank_connections
		SET sync_cursor = $1, status = 'connected', error_code = NULL, error_message = NULL,
			last_sync_date = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`
	_, err := s.Pool.Exec(ctx, query, cursor, at, connectionID, userID)
	return err
}

func (s *SyncStore) RecordSyncError(ctx context.Context, connectionID, userID int64, code, message string) error {
	query := `
		UPDATE bank_connections
		SET status = 'error', error_code = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`
	_, err := s.Pool.Exec(ctx, query, code, message, connectionID, userID)
	return err
}

func (s *SyncStore) FindByExternalID(ctx context.Context, userID int64, externalID string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND external_transaction_id = $2
	`
	t, err := scanTransaction(s.Pool.QueryRow(ctx, query, userID, externalID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *SyncStore) FindUnlinked(ctx context.Context, userID, connectionID int64, date string, amount float64, description string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND connection_id = $2 AND date = $3::date AND amount = $4 AND description = $5
			AND external_transaction_id IS NULL AND deleted_at IS NULL
		LIMIT 1
	`
	t, err := scanTransaction(s.Pool.QueryRow(ctx, query, userID, connectionID, date, amount, description))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *SyncStore) InsertSynced(ctx context.Context, userID, connectionID int64, rec models.ExternalTransaction) (bool, error) {
	query := `
		INSERT INTO transactions (user_id, date, amount, description, merchant_name, status,
			pending, payment_channel, external_transaction_id, external_account_id, connection_id)
		VALUES ($1, $2::date, $3, $4, $5, 'pending', $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, external_transaction_id) WHERE external_transaction_id IS NOT NULL DO NOTHING
	`
	cmd, err := s.Pool.Exec(ctx, query, userID, rec.Date, rec.Amount, rec.Description, rec.MerchantName,
		rec.Pending, rec.PaymentChannel, rec.ExternalTransactionID, rec.ExternalAccountID, connectionID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *SyncStore) AttachExternalIDs(ctx context.Context, userID, transactionID int64, externalTransactionID, externalAccountID string) error {
	query := `
		UPDATE transactions
		SET external_transaction_id = $1, external_account_id = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`
	_, err := s.Pool.Exec(ctx, query, externalTransactionID, externalAccountID, transactionID, userID)
	return err
}

func (s *SyncStore) UpdateFromProvider(ctx context.Context, userID int64, rec models.ExternalTransaction) (bool, error) {
	query := `
		UPDATE transactions
		SET date = $1::date, amount = $2, description = $3, merchant_name = $4,
			pending = $5, payment_channel = $6, updated_at = NOW()
		WHERE user_id = $7 AND external_transaction_id = $8
	`
	cmd, err := s.Pool.Exec(ctx, query, rec.Date, rec.Amount, rec.Description, rec.MerchantName,
		rec.Pending, rec.PaymentChannel, userID, rec.ExternalTransactionID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *SyncStore) DeleteByExternalID(ctx context.Context, userID int64, externalID string, tombstone bool) (bool, error) {
	var query string
	if tombstone {
		query = `
			UPDATE transactions SET deleted_at = NOW(), updated_at = NOW()
			WHERE user_id = $1 AND external_transaction_id = $2 AND deleted_at IS NULL
		`
	} else {
		query = `DELETE FROM transactions WHERE user_id = $1 AND external_transaction_id = $2`
	}
	cmd, err := s.Pool.Exec(ctx, query, userID, externalID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
