package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

// RuleStore implements rules.Store over the pool.
type RuleStore struct {
	Pool *pgxpool.Pool
}

func (s *RuleStore) EnabledRules(ctx context.Context, userID int64) ([]models.AutoCategorizeRule, error) {
	query := `
		SELECT id, user_id, name, pattern, category_id, enabled, priority, created_at, updated_at
		FROM auto_categorize_rules
		WHERE user_id = $1 AND enabled
		ORDER BY priority DESC, id
	`
	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AutoCategorizeRule
	for rows.Next() {
		var r models.AutoCategorizeRule
		err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Pattern, &r.CategoryID, &r.Enabled, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *RuleStore) UncategorizedTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND category_id IS NULL AND deleted_at IS NULL
		ORDER BY id
	`
	rows, err := s.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (s *RuleStore) TransactionsByIDs(ctx context.Context, userID int64, ids []int64) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND id = ANY($2) AND deleted_at IS NULL
		ORDER BY id
	`
	rows, err := s.Pool.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (s *RuleStore) AssignCategory(ctx context.Context, userID, transactionID, categoryID int64) error {
	query := `
		UPDATE transactions
		SET category_id = $1, status = 'categorized', updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`
	_, err := s.Pool.Exec(ctx, query, categoryID, transactionID, userID)
	return err
}
