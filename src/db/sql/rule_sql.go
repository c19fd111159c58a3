package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxtrack-server/src/models"
)

func CreateRule(ctx context.Context, pool *pgxpool.Pool, rule *models.AutoCategorizeRule) (*models.AutoCategorizeRule, error) {
	query := `
		INSERT INTO auto_categorize_rules (user_id, name, pattern, category_id, enabled, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, pattern, category_id, enabled, priority, created_at, updated_at
	`
	var r models.AutoCategorizeRule
	err := pool.QueryRow(ctx, query, rule.UserID, rule.Name, rule.Pattern, rule.CategoryID, rule.Enabled, rule.Priority).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Pattern, &r.CategoryID, &r.Enabled, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func GetRuleByID(ctx context.Context, pool *pgxpool.Pool, userID, ruleID int64) (*models.AutoCategorizeRule, error) {
	query := `
		SELECT id, user_id, name, pattern, category_id, enabled, priority, created_at, updated_at
		FROM auto_categorize_rules
		WHERE id = $1 AND user_id = $2
	`
	var r models.AutoCategorizeRule
	err := pool.QueryRow(ctx, query, ruleID, userID).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Pattern, &r.CategoryID, &r.Enabled, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func GetAllRules(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.AutoCategorizeRule, error) {
	query := `
		SELECT id, user_id, name, pattern, category_id, enabled, priority, created_at, updated_at
		FROM auto_categorize_rules
		WHERE user_id = $1
		ORDER BY priority DESC, id
	`
	rows, err := pool.Query(ctx, query, userID)
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

func UpdateRule(ctx context.Context, pool *pgxpool.Pool, rule *models.AutoCategorizeRule) (*models.AutoCategorizeRule, error) {
	query := `
		UPDATE auto_categorize_rules
		SET name = $1, pattern = $2, category_id = $3, enabled = $4, priority = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING id, user_id, name, pattern, category_id, enabled, priority, created_at, updated_at
	`
	var r models.AutoCategorizeRule
	err := pool.QueryRow(ctx, query, rule.Name, rule.Pattern, rule.CategoryID, rule.Enabled, rule.Priority, rule.ID, rule.UserID).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Pattern, &r.CategoryID, &r.Enabled, &r.Priority, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func DeleteRule(ctx context.Context, pool *pgxpool.Pool, userID, ruleID int64) error {
	query := `DELETE FROM auto_categorize_rules WHERE id = $1 AND user_id = $2`
	cmd, err := pool.Exec(ctx, query, ruleID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("rule not found")
	}
	return nil
}
