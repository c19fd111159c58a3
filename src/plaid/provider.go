package plaid

import (
	"context"
	"log"

	"github.com/plaid/plaid-go/v41/plaid"

	"taxtrack-server/src/models"
	syncer "taxtrack-server/src/sync"
	"taxtrack-server/src/util"
)

// Provider adapts the Plaid transactions/sync endpoint to the reconciler's
// Provider interface. SDK payloads are converted to strict boundary records
// here; nothing loosely typed crosses into the sync package.
type Provider struct {
	Client *plaid.APIClient
}

func NewProvider(client *plaid.APIClient) *Provider {
	return &Provider{Client: client}
}

func (p *Provider) Sync(ctx context.Context, accessToken, cursor string) (*models.SyncDelta, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := p.Client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		if plaidErr, convErr := plaid.ToPlaidError(err); convErr == nil {
			return nil, &syncer.ProviderError{Code: plaidErr.ErrorCode, Message: plaidErr.ErrorMessage, Err: err}
		}
		return nil, &syncer.ProviderError{Code: "PROVIDER_UNREACHABLE", Err: err}
	}

	delta := &models.SyncDelta{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	for _, txn := range resp.GetAdded() {
		if rec, ok := externalRecord(txn); ok {
			delta.Added = append(delta.Added, rec)
		}
	}
	for _, txn := range resp.GetModified() {
		if rec, ok := externalRecord(txn); ok {
			delta.Modified = append(delta.Modified, rec)
		}
	}
	for _, removed := range resp.GetRemoved() {
		delta.Removed = append(delta.Removed, models.RemovedTransaction{
			ExternalTransactionID: removed.GetTransactionId(),
		})
	}
	return delta, nil
}

// externalRecord validates and coerces one SDK transaction. A record that
// fails validation is dropped with a log line rather than poisoning the pass.
func externalRecord(txn plaid.Transaction) (models.ExternalTransaction, bool) {
	rec := models.ExternalTransaction{
		ExternalTransactionID: txn.GetTransactionId(),
		ExternalAccountID:     txn.GetAccountId(),
		Amount:                txn.GetAmount(),
		Date:                  txn.GetDate(),
		Description:           txn.GetName(),
		Pending:               txn.GetPending(),
		PaymentChannel:        txn.GetPaymentChannel(),
	}
	if txn.MerchantName.IsSet() && txn.MerchantName.Get() != nil && *txn.MerchantName.Get() != "" {
		merchant := *txn.MerchantName.Get()
		rec.MerchantName = &merchant
	}
	if rec.ExternalTransactionID == "" || rec.ExternalAccountID == "" {
		log.Printf("ERROR: provider record missing ids (txn=%q account=%q), dropping", rec.ExternalTransactionID, rec.ExternalAccountID)
		return models.ExternalTransaction{}, false
	}
	if !util.ValidateDate(rec.Date) {
		log.Printf("ERROR: provider record %s has malformed date %q, dropping", rec.ExternalTransactionID, rec.Date)
		return models.ExternalTransaction{}, false
	}
	return rec, true
}
