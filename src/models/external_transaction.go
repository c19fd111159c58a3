package models

// ExternalTransaction is one added/modified record from the transaction
// provider, converted to a strict type at the boundary before any
// reconciliation logic sees it. Date is a calendar date string (YYYY-MM-DD,
// no time component); equality is exact.
type ExternalTransaction struct {
	ExternalTransactionID string
	ExternalAccountID     string
	Amount                float64
	Date                  string
	Description           string
	MerchantName          *string
	Pending               bool
	PaymentChannel        string
}

// RemovedTransaction identifies a provider-side deletion.
type RemovedTransaction struct {
	ExternalTransactionID string
}

// SyncDelta is one page of the provider's incremental sync response.
type SyncDelta struct {
	Added      []ExternalTransaction
	Modified   []ExternalTransaction
	Removed    []RemovedTransaction
	NextCursor string
	HasMore    bool
}
