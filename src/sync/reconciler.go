package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"taxtrack-server/src/models"
)

// Reconciler performs one incremental sync pass for a single BankConnection:
// fetch a delta page from the provider at the stored cursor, reconcile
// added/modified/removed against persisted transactions, then advance the
// cursor. A pass is not transactional: partial progress before a failure is
// kept and the cursor is left unchanged, so a retry re-applies the same page
// idempotently.
type Reconciler struct {
	store            Store
	provider         Provider
	guard            *DuplicateGuard
	inflight         *inflightSet
	tombstoneRemoved bool
}

func NewReconciler(store Store, provider Provider, tombstoneRemoved bool) *Reconciler {
	return &Reconciler{
		store:            store,
		provider:         provider,
		guard:            NewDuplicateGuard(store),
		inflight:         newInflightSet(),
		tombstoneRemoved: tombstoneRemoved,
	}
}

// Sync runs one pass. HasMore=true in the result means the caller should
// invoke Sync again with the same connection (now holding the advanced
// cursor) to drain the rest of the delta.
func (r *Reconciler) Sync(ctx context.Context, connectionID, userID int64) (*models.SyncResult, error) {
	conn, err := r.store.GetConnection(ctx, connectionID, userID)
	if err != nil {
		return nil, E(KindDatabase, "load connection", err)
	}
	if conn == nil {
		return nil, E(KindNotFound, "connection not found", nil)
	}
	if conn.Status == models.ConnectionStatusDisconnected {
		return nil, E(KindConnectionInactive, "connection is disconnected", nil)
	}

	if !r.inflight.acquire(connectionID) {
		return nil, E(KindConflict, "sync already in progress for this connection", nil)
	}
	defer r.inflight.release(connectionID)

	runID := uuid.NewString()
	log.Printf("INFO: sync run %s starting for connection %d (user %d)", runID, connectionID, userID)

	if err := r.store.SetConnectionStatus(ctx, connectionID, userID, models.ConnectionStatusSyncing); err != nil {
		return nil, E(KindDatabase, "mark connection syncing", err)
	}

	cursor := ""
	if conn.SyncCursor != nil {
		cursor = *conn.SyncCursor
	}

	delta, err := r.provider.Sync(ctx, conn.AccessToken, cursor)
	if err != nil {
		code, message := providerFailure(err)
		r.recordError(ctx, connectionID, userID, runID, code, message)
		return nil, E(KindProvider, "provider sync failed", err)
	}

	result := &models.SyncResult{HasMore: delta.HasMore}

	// Added before modified before removed: a removal must never race ahead
	// of an add for the same external id. Within added, provider order is
	// preserved.
	for _, rec := range delta.Added {
		if rec.ExternalAccountID != conn.AccountID {
			continue
		}
		match, err := r.guard.Classify(ctx, userID, connectionID, rec)
		if err != nil {
			r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
			return nil, E(KindDatabase, "duplicate check", err)
		}
		switch match.Kind {
		case PrimaryMatch:
			// Already synced. Skip.
		case SecondaryMatch:
			err := r.store.AttachExternalIDs(ctx, userID, match.Existing.ID, rec.ExternalTransactionID, rec.ExternalAccountID)
			if err != nil {
				r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
				return nil, E(KindDatabase, "backfill external id", err)
			}
			result.Backfilled++
		case NoMatch:
			inserted, err := r.store.InsertSynced(ctx, userID, connectionID, rec)
			if err != nil {
				r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
				return nil, E(KindDatabase, "insert transaction", err)
			}
			if inserted {
				result.Added++
			} else {
				// Unique index rejected the row: another writer got there
				// between the lookup and the insert. Same as a primary match.
				log.Printf("INFO: sync run %s: insert for %s lost to concurrent writer, skipping", runID, rec.ExternalTransactionID)
			}
		}
	}

	for _, rec := range delta.Modified {
		if rec.ExternalAccountID != conn.AccountID {
			continue
		}
		updated, err := r.store.UpdateFromProvider(ctx, userID, rec)
		if err != nil {
			r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
			return nil, E(KindDatabase, "apply modification", err)
		}
		if !updated {
			// The provider may report a modification for a transaction that
			// was filtered out on a prior page. Not fatal.
			log.Printf("INFO: sync run %s: modified record %s has no local transaction, skipping", runID, rec.ExternalTransactionID)
			continue
		}
		result.Modified++
	}

	for _, rec := range delta.Removed {
		deleted, err := r.store.DeleteByExternalID(ctx, userID, rec.ExternalTransactionID, r.tombstoneRemoved)
		if err != nil {
			r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
			return nil, E(KindDatabase, "apply removal", err)
		}
		if deleted {
			result.Removed++
		}
	}

	if err := r.store.RecordSyncSuccess(ctx, connectionID, userID, delta.NextCursor, time.Now().UTC()); err != nil {
		r.recordError(ctx, connectionID, userID, runID, "DATABASE_ERROR", err.Error())
		return nil, E(KindDatabase, "advance cursor", err)
	}

	log.Printf("INFO: sync run %s finished for connection %d: added=%d modified=%d removed=%d backfilled=%d has_more=%v",
		runID, connectionID, result.Added, result.Modified, result.Removed, result.Backfilled, result.HasMore)
	return result, nil
}

// recordError is best-effort: a failure to persist the error state is logged
// and otherwise dropped, since the caller is already getting the real error.
func (r *Reconciler) recordError(ctx context.Context, connectionID, userID int64, runID, code, message string) {
	if err := r.store.RecordSyncError(ctx, connectionID, userID, code, message); err != nil {
		log.Printf("ERROR: sync run %s: failed to record error state on connection %d: %v", runID, connectionID, err)
	}
}

// providerFailure extracts the provider's own code/message when available so
// they are preserved verbatim on the connection record.
func providerFailure(err error) (code, message string) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		code = pe.Code
		message = pe.Message
		if message == "" {
			message = pe.Error()
		}
		return code, message
	}
	return "PROVIDER_ERROR", fmt.Sprintf("provider sync failed: %v", err)
}
