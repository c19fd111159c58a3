package models

import "time"

// BankConnection statuses. Disconnected is terminal: the row is kept for
// transaction history but no further sync is permitted.
const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusSyncing      = "syncing"
	ConnectionStatusError        = "error"
	ConnectionStatusDisconnected = "disconnected"
)

type BankConnection struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	ItemID          string     `json:"item_id"`
	AccountID       string     `json:"account_id"`
	AccessToken     string     `json:"-"`
	InstitutionID   string     `json:"institution_id"`
	InstitutionName string     `json:"institution_name"`
	InstitutionLogo string     `json:"institution_logo"`
	AccountName     string     `json:"account_name"`
	AccountType     string     `json:"account_type"`
	AccountSubtype  string     `json:"account_subtype"`
	AccountMask     string     `json:"account_mask"`
	Status          string     `json:"status"`
	SyncCursor      *string    `json:"sync_cursor"`
	LastSyncDate    *time.Time `json:"last_sync_date"`
	ErrorCode       *string    `json:"error_code"`
	ErrorMessage    *string    `json:"error_message"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
