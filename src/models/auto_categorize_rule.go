package models

import "time"

// AutoCategorizeRule is an owner-scoped regex rule. Higher priority rules are
// evaluated first; ties break by creation order.
type AutoCategorizeRule struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Pattern    string    `json:"pattern"`
	CategoryID int64     `json:"category_id"`
	Enabled    bool      `json:"enabled"`
	Priority   int       `json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RuleMatch records which rule categorized which transaction during a pass.
type RuleMatch struct {
	TransactionID int64  `json:"transaction_id"`
	CategoryID    int64  `json:"category_id"`
	RuleID        int64  `json:"rule_id"`
	RuleName      string `json:"rule_name"`
}

// RuleApplyResult summarizes one rule-engine pass. Individual write failures
// reduce CategorizedCount and bump Failed; they never abort the pass.
type RuleApplyResult struct {
	CategorizedCount int         `json:"categorized_count"`
	TotalProcessed   int         `json:"total_processed"`
	Failed           int         `json:"failed"`
	Details          []RuleMatch `json:"details"`
}
