package rules

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"taxtrack-server/src/models"
)

// Store is the persistence surface the engine needs. Everything is
// owner-scoped.
type Store interface {
	// EnabledRules returns enabled rules ordered by priority descending,
	// creation order on ties.
	EnabledRules(ctx context.Context, userID int64) ([]models.AutoCategorizeRule, error)

	// UncategorizedTransactions returns the owner's transactions with no
	// category assigned.
	UncategorizedTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)

	// TransactionsByIDs returns the owner's transactions among ids. Ids that
	// do not resolve within the owner scope are silently absent.
	TransactionsByIDs(ctx context.Context, userID int64, ids []int64) ([]models.Transaction, error)

	// AssignCategory sets the category and moves the transaction to
	// status=categorized.
	AssignCategory(ctx context.Context, userID, transactionID, categoryID int64) error
}

// Engine assigns categories to transactions by evaluating user rules.
// Go's regexp is RE2, so a stored pattern cannot backtrack catastrophically
// no matter what the user saved.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply evaluates the owner's enabled rules against the target transactions.
// With transactionIDs nil the targets are the owner's uncategorized
// transactions; with explicit ids the listed transactions are re-evaluated
// even if already categorized, and a match overwrites the existing category.
// A transaction no rule matches is left unchanged. Per-transaction write
// failures are counted, never raised.
func (e *Engine) Apply(ctx context.Context, userID int64, transactionIDs []int64) (*models.RuleApplyResult, error) {
	ruleRows, err := e.store.EnabledRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	compiled := compileRules(ruleRows)

	var txns []models.Transaction
	if len(transactionIDs) > 0 {
		txns, err = e.store.TransactionsByIDs(ctx, userID, transactionIDs)
	} else {
		txns, err = e.store.UncategorizedTransactions(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	result := &models.RuleApplyResult{TotalProcessed: len(txns)}
	for _, txn := range txns {
		target := searchText(txn)
		for _, cr := range compiled {
			if !cr.re.MatchString(target) {
				continue
			}
			if err := e.store.AssignCategory(ctx, userID, txn.ID, cr.rule.CategoryID); err != nil {
				log.Printf("ERROR: rule %q failed to categorize transaction %d for user %d: %v", cr.rule.Name, txn.ID, userID, err)
				result.Failed++
				break
			}
			result.CategorizedCount++
			result.Details = append(result.Details, models.RuleMatch{
				TransactionID: txn.ID,
				CategoryID:    cr.rule.CategoryID,
				RuleID:        cr.rule.ID,
				RuleName:      cr.rule.Name,
			})
			break // first matching rule wins
		}
	}

	if result.CategorizedCount > 0 {
		log.Printf("INFO: rule engine categorized %d of %d transactions for user %d", result.CategorizedCount, result.TotalProcessed, userID)
	}
	return result, nil
}

type compiledRule struct {
	rule models.AutoCategorizeRule
	re   *regexp.Regexp
}

// compileRules compiles each pattern once per pass. Patterns are validated at
// create/update time, so a compile failure here means stored data went bad;
// the rule is skipped rather than aborting the pass or matching anything.
func compileRules(ruleRows []models.AutoCategorizeRule) []compiledRule {
	compiled := make([]compiledRule, 0, len(ruleRows))
	for _, rule := range ruleRows {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			log.Printf("ERROR: rule %d (%q) has an invalid stored pattern, skipping: %v", rule.ID, rule.Name, err)
			continue
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return compiled
}

// searchText builds the case-folded haystack: description plus merchant name.
func searchText(txn models.Transaction) string {
	merchant := ""
	if txn.MerchantName != nil {
		merchant = *txn.MerchantName
	}
	return strings.ToLower(txn.Description + " " + merchant)
}
