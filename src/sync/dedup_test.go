package sync

import (
	"context"
	"testing"
	"time"

	"taxtrack-server/src/models"
)

func TestClassifyPrimaryMatch(t *testing.T) {
	store := newFakeStore(testConnection())
	extID := "ext-1"
	store.txns = append(store.txns, &models.Transaction{
		ID:                    1,
		UserID:                1,
		Date:                  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:                12.50,
		Description:           "STARBUCKS #4521",
		ExternalTransactionID: &extID,
	})

	guard := NewDuplicateGuard(store)
	match, err := guard.Classify(context.Background(), 1, 7, extTxn("ext-1", 999, "2025-06-06", "TOTALLY DIFFERENT"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if match.Kind != PrimaryMatch {
		t.Fatalf("kind = %v, want PrimaryMatch", match.Kind)
	}
	if match.Existing == nil || match.Existing.ID != 1 {
		t.Errorf("existing = %v, want transaction 1", match.Existing)
	}
}

func TestClassifySecondaryMatch(t *testing.T) {
	store := newFakeStore(testConnection())
	connID := int64(7)
	store.txns = append(store.txns, &models.Transaction{
		ID:           1,
		UserID:       1,
		Date:         time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:       42.00,
		Description:  "OFFICE DEPOT #112",
		ConnectionID: &connID,
	})

	guard := NewDuplicateGuard(store)
	match, err := guard.Classify(context.Background(), 1, 7, extTxn("ext-9", 42.00, "2026-01-05", "OFFICE DEPOT #112"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if match.Kind != SecondaryMatch {
		t.Fatalf("kind = %v, want SecondaryMatch", match.Kind)
	}
	if match.Existing == nil || match.Existing.ID != 1 {
		t.Errorf("existing = %v, want transaction 1", match.Existing)
	}
}

func TestClassifySecondaryRequiresAllFields(t *testing.T) {
	store := newFakeStore(testConnection())
	connID := int64(7)
	store.txns = append(store.txns, &models.Transaction{
		ID:           1,
		UserID:       1,
		Date:         time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:       42.00,
		Description:  "OFFICE DEPOT #112",
		ConnectionID: &connID,
	})

	guard := NewDuplicateGuard(store)
	cases := []struct {
		name string
		rec  models.ExternalTransaction
	}{
		{"different amount", extTxn("ext-9", 42.01, "2026-01-05", "OFFICE DEPOT #112")},
		{"different date", extTxn("ext-9", 42.00, "2026-01-06", "OFFICE DEPOT #112")},
		{"different description", extTxn("ext-9", 42.00, "2026-01-05", "OFFICE DEPOT")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := guard.Classify(context.Background(), 1, 7, tc.rec)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if match.Kind != NoMatch {
				t.Errorf("kind = %v, want NoMatch", match.Kind)
			}
		})
	}
}

func TestClassifyIsOwnerScoped(t *testing.T) {
	store := newFakeStore(testConnection())
	extID := "ext-1"
	connID := int64(7)
	// Another owner's rows with the same external id and business fields.
	store.txns = append(store.txns,
		&models.Transaction{
			ID:                    1,
			UserID:                2,
			Date:                  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Amount:                12.50,
			Description:           "STARBUCKS #4521",
			ExternalTransactionID: &extID,
		},
		&models.Transaction{
			ID:           2,
			UserID:       2,
			Date:         time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			Amount:       42.00,
			Description:  "OFFICE DEPOT #112",
			ConnectionID: &connID,
		},
	)

	guard := NewDuplicateGuard(store)
	for _, rec := range []models.ExternalTransaction{
		extTxn("ext-1", 12.50, "2026-01-01", "STARBUCKS #4521"),
		extTxn("ext-9", 42.00, "2026-01-05", "OFFICE DEPOT #112"),
	} {
		match, err := guard.Classify(context.Background(), 1, 7, rec)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if match.Kind != NoMatch {
			t.Errorf("record %s matched another owner's transaction: kind = %v", rec.ExternalTransactionID, match.Kind)
		}
	}
}

func TestClassifyNoMatch(t *testing.T) {
	store := newFakeStore(testConnection())
	guard := NewDuplicateGuard(store)
	match, err := guard.Classify(context.Background(), 1, 7, extTxn("ext-1", 12.50, "2026-01-01", "STARBUCKS #4521"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if match.Kind != NoMatch {
		t.Errorf("kind = %v, want NoMatch", match.Kind)
	}
}
