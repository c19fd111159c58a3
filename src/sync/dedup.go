package sync

import (
	"context"
	"fmt"

	"taxtrack-server/src/models"
)

type MatchKind int

const (
	// NoMatch: genuinely new, caller inserts.
	NoMatch MatchKind = iota
	// PrimaryMatch: a transaction with the same external id already exists
	// for this owner; the record was fully synced before.
	PrimaryMatch
	// SecondaryMatch: same owner/connection/date/amount/description with a
	// null external id. Same real-world event entered through another path;
	// caller backfills the external ids instead of inserting.
	SecondaryMatch
)

type Match struct {
	Kind     MatchKind
	Existing *models.Transaction
}

// DuplicateGuard classifies incoming provider records against what is already
// persisted. All lookups are owner-scoped; cross-owner collisions on external
// id or business fields must never match.
type DuplicateGuard struct {
	store Store
}

func NewDuplicateGuard(store Store) *DuplicateGuard {
	return &DuplicateGuard{store: store}
}

func (g *DuplicateGuard) Classify(ctx context.Context, userID, connectionID int64, rec models.ExternalTransaction) (Match, error) {
	existing, err := g.store.FindByExternalID(ctx, userID, rec.ExternalTransactionID)
	if err != nil {
		return Match{}, fmt.Errorf("primary lookup for %s: %w", rec.ExternalTransactionID, err)
	}
	if existing != nil {
		return Match{Kind: PrimaryMatch, Existing: existing}, nil
	}

	unlinked, err := g.store.FindUnlinked(ctx, userID, connectionID, rec.Date, rec.Amount, rec.Description)
	if err != nil {
		return Match{}, fmt.Errorf("secondary lookup for %s: %w", rec.ExternalTransactionID, err)
	}
	if unlinked != nil {
		return Match{Kind: SecondaryMatch, Existing: unlinked}, nil
	}

	return Match{Kind: NoMatch}, nil
}
