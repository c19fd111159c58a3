package rules

import (
	"context"
	"errors"
	"testing"

	"taxtrack-server/src/models"
)

type fakeRuleStore struct {
	rules []models.AutoCategorizeRule
	txns  []models.Transaction

	assigned    map[int64]int64 // transaction id -> category id
	failAssign  map[int64]bool  // transaction ids whose writes fail
	assignCalls int
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{
		assigned:   make(map[int64]int64),
		failAssign: make(map[int64]bool),
	}
}

func (s *fakeRuleStore) EnabledRules(ctx context.Context, userID int64) ([]models.AutoCategorizeRule, error) {
	var out []models.AutoCategorizeRule
	for _, r := range s.rules {
		if r.UserID == userID && r.Enabled {
			out = append(out, r)
		}
	}
	// Caller contract: priority desc, id asc on ties. The fixtures are
	// declared in that order already.
	return out, nil
}

func (s *fakeRuleStore) UncategorizedTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range s.txns {
		if t.UserID == userID && t.CategoryID == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeRuleStore) TransactionsByIDs(ctx context.Context, userID int64, ids []int64) ([]models.Transaction, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Transaction
	for _, t := range s.txns {
		if t.UserID == userID && want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeRuleStore) AssignCategory(ctx context.Context, userID, transactionID, categoryID int64) error {
	s.assignCalls++
	if s.failAssign[transactionID] {
		return errors.New("write failed")
	}
	s.assigned[transactionID] = categoryID
	return nil
}

func rule(id int64, name, pattern string, categoryID int64, priority int) models.AutoCategorizeRule {
	return models.AutoCategorizeRule{
		ID:         id,
		UserID:     1,
		Name:       name,
		Pattern:    pattern,
		CategoryID: categoryID,
		Enabled:    true,
		Priority:   priority,
	}
}

func txn(id int64, description string) models.Transaction {
	return models.Transaction{ID: id, UserID: 1, Description: description, Status: models.TransactionStatusPending}
}

func TestApplyFirstMatchingRuleWins(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{
		rule(1, "Shopping", "amazon", 10, 5),
		rule(2, "Office", "amazon|staples", 20, 1),
	}
	store.txns = []models.Transaction{txn(1, "AMAZON MKTPLACE US")}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CategorizedCount != 1 || result.TotalProcessed != 1 {
		t.Fatalf("categorized %d of %d, want 1 of 1", result.CategorizedCount, result.TotalProcessed)
	}
	if store.assigned[1] != 10 {
		t.Errorf("category = %d, want 10 (higher priority rule)", store.assigned[1])
	}
	if len(result.Details) != 1 || result.Details[0].RuleID != 1 {
		t.Errorf("details = %+v, want match from rule 1", result.Details)
	}
}

func TestApplyMatchesCaseInsensitively(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	store.txns = []models.Transaction{txn(1, "STARBUCKS #4521")}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if store.assigned[1] != 10 {
		t.Errorf("category = %d, want 10", store.assigned[1])
	}
	if result.CategorizedCount != 1 {
		t.Errorf("CategorizedCount = %d, want 1", result.CategorizedCount)
	}
}

func TestApplyMatchesMerchantName(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Rideshare", "uber", 10, 0)}
	merchant := "Uber Technologies"
	tx := txn(1, "POS DEBIT 8842")
	tx.MerchantName = &merchant
	store.txns = []models.Transaction{tx}

	engine := NewEngine(store)
	if _, err := engine.Apply(context.Background(), 1, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if store.assigned[1] != 10 {
		t.Errorf("category = %d, want 10 (matched on merchant)", store.assigned[1])
	}
}

func TestApplySkipsInvalidStoredPattern(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{
		rule(1, "Broken", "([unclosed", 10, 5),
		rule(2, "Coffee", "starbucks", 20, 0),
	}
	store.txns = []models.Transaction{txn(1, "STARBUCKS #4521")}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if store.assigned[1] != 20 {
		t.Errorf("category = %d, want 20 (broken rule skipped)", store.assigned[1])
	}
	if result.Failed != 0 {
		t.Errorf("Failed = %d, want 0", result.Failed)
	}
}

func TestApplyCountsWriteFailures(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	store.txns = []models.Transaction{
		txn(1, "STARBUCKS #4521"),
		txn(2, "STARBUCKS #7001"),
		txn(3, "STARBUCKS RESERVE"),
	}
	store.failAssign[2] = true

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CategorizedCount != 2 {
		t.Errorf("CategorizedCount = %d, want 2", result.CategorizedCount)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.TotalProcessed != 3 {
		t.Errorf("TotalProcessed = %d, want 3", result.TotalProcessed)
	}
}

func TestApplyLeavesUnmatchedUnchanged(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	store.txns = []models.Transaction{txn(1, "SHELL OIL 5742")}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CategorizedCount != 0 || result.TotalProcessed != 1 {
		t.Errorf("categorized %d of %d, want 0 of 1", result.CategorizedCount, result.TotalProcessed)
	}
	if store.assignCalls != 0 {
		t.Errorf("assignCalls = %d, want 0", store.assignCalls)
	}
}

func TestApplyAutomaticTargetsOnlyUncategorized(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	existing := int64(99)
	categorized := txn(1, "STARBUCKS #4521")
	categorized.CategoryID = &existing
	categorized.Status = models.TransactionStatusCategorized
	store.txns = []models.Transaction{categorized, txn(2, "STARBUCKS #7001")}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.TotalProcessed != 1 {
		t.Errorf("TotalProcessed = %d, want 1 (already-categorized excluded)", result.TotalProcessed)
	}
	if _, touched := store.assigned[1]; touched {
		t.Error("automatic run overwrote an existing category")
	}
	if store.assigned[2] != 10 {
		t.Errorf("transaction 2 category = %d, want 10", store.assigned[2])
	}
}

func TestApplyExplicitIDsMayOverwrite(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	existing := int64(99)
	categorized := txn(1, "STARBUCKS #4521")
	categorized.CategoryID = &existing
	categorized.Status = models.TransactionStatusCategorized
	store.txns = []models.Transaction{categorized}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, []int64{1})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.CategorizedCount != 1 {
		t.Errorf("CategorizedCount = %d, want 1", result.CategorizedCount)
	}
	if store.assigned[1] != 10 {
		t.Errorf("category = %d, want 10 (explicit run overwrites)", store.assigned[1])
	}
}

func TestApplyExplicitIDsAreOwnerScoped(t *testing.T) {
	store := newFakeRuleStore()
	store.rules = []models.AutoCategorizeRule{rule(1, "Coffee", "starbucks", 10, 0)}
	foreign := txn(1, "STARBUCKS #4521")
	foreign.UserID = 2
	store.txns = []models.Transaction{foreign}

	engine := NewEngine(store)
	result, err := engine.Apply(context.Background(), 1, []int64{1})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.TotalProcessed != 0 {
		t.Errorf("TotalProcessed = %d, want 0 (foreign ids silently absent)", result.TotalProcessed)
	}
	if store.assignCalls != 0 {
		t.Errorf("assignCalls = %d, want 0", store.assignCalls)
	}
}
