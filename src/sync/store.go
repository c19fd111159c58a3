package sync

import (
	"context"
	"time"

	"taxtrack-server/src/models"
)

// Provider is the external transaction source. cursor is the opaque token
// from the previous pass, empty for a from-scratch sync.
type Provider interface {
	Sync(ctx context.Context, accessToken, cursor string) (*models.SyncDelta, error)
}

// Store is the persistence surface the reconciler needs. Every method that
// touches owner-scoped rows takes the owner id and must filter on it; a row
// belonging to another owner is indistinguishable from a missing row.
type Store interface {
	// GetConnection returns nil, nil when no connection matches within the
	// owner scope.
	GetConnection(ctx context.Context, connectionID, userID int64) (*models.BankConnection, error)

	SetConnectionStatus(ctx context.Context, connectionID, userID int64, status string) error

	// RecordSyncSuccess advances the cursor, sets status=connected, clears
	// the error fields and stamps last_sync_date in one write.
	RecordSyncSuccess(ctx context.Context, connectionID, userID int64, cursor string, at time.Time) error

	// RecordSyncError sets status=error and preserves the failure for the
	// next read. The cursor is left untouched.
	RecordSyncError(ctx context.Context, connectionID, userID int64, code, message string) error

	// FindByExternalID returns nil, nil when no transaction with that
	// external id exists for the owner.
	FindByExternalID(ctx context.Context, userID int64, externalID string) (*models.Transaction, error)

	// FindUnlinked looks for a transaction with matching business fields and
	// a null external_transaction_id. Returns nil, nil when none exists.
	FindUnlinked(ctx context.Context, userID, connectionID int64, date string, amount float64, description string) (*models.Transaction, error)

	// InsertSynced inserts a new pending transaction from a provider record.
	// It reports false when the unique (user_id, external_transaction_id)
	// index rejected the row, which the caller treats as a primary match
	// discovered late.
	InsertSynced(ctx context.Context, userID, connectionID int64, rec models.ExternalTransaction) (bool, error)

	AttachExternalIDs(ctx context.Context, userID, transactionID int64, externalTransactionID, externalAccountID string) error

	// UpdateFromProvider overwrites the provider-owned fields (date, amount,
	// description, merchant, pending, payment channel) on the transaction
	// carrying rec's external id. Reports false when no row matched within
	// the owner scope.
	UpdateFromProvider(ctx context.Context, userID int64, rec models.ExternalTransaction) (bool, error)

	// DeleteByExternalID removes (or tombstones) the matching transaction.
	// Absence is not an error; it reports false.
	DeleteByExternalID(ctx context.Context, userID int64, externalID string, tombstone bool) (bool, error)
}
