package models

import "time"

// Transaction statuses. pending -> categorized (rule engine or bulk
// categorize) -> reviewed (user action).
const (
	TransactionStatusPending     = "pending"
	TransactionStatusCategorized = "categorized"
	TransactionStatusReviewed    = "reviewed"
)

// Transaction is a financial event. Amount sign convention: positive is an
// expense, negative is income, preserved exactly as received from the
// provider.
type Transaction struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user_id"`
	Date                  time.Time `json:"date"`
	Amount                float64   `json:"amount"`
	Description           string    `json:"description"`
	MerchantName          *string   `json:"merchant_name"`
	CategoryID            *int64    `json:"category_id"`
	Tags                  []string  `json:"tags"`
	Notes                 string    `json:"notes"`
	IsDeductible          bool      `json:"is_deductible"`
	Status                string    `json:"status"`
	Pending               bool      `json:"pending"`
	PaymentChannel        string    `json:"payment_channel"`
	ExternalTransactionID *string   `json:"external_transaction_id"`
	ExternalAccountID     *string   `json:"external_account_id"`
	ConnectionID          *int64    `json:"connection_id"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// SyncResult summarizes one reconciliation pass. Added counts fresh inserts
// only; secondary-match backfills are reported separately so an idempotent
// retry is visible as added=0.
type SyncResult struct {
	Added      int  `json:"added"`
	Modified   int  `json:"modified"`
	Removed    int  `json:"removed"`
	Backfilled int  `json:"backfilled"`
	HasMore    bool `json:"has_more"`
}
