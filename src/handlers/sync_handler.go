package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	cache "taxtrack-server/src/db"
	db "taxtrack-server/src/db/sql"
	"taxtrack-server/src/models"
	"taxtrack-server/src/rules"
	syncer "taxtrack-server/src/sync"
	"taxtrack-server/src/util"
)

// SyncConnection runs reconciliation passes for one connection until the
// provider reports no more pages, then optionally auto-applies the user's
// categorization rules to whatever came in.
func SyncConnection(reconciler *syncer.Reconciler, engine *rules.Engine, autoCategorize bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		connectionID, err := strconv.ParseInt(chi.URLParam(r, "connection_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid connection id", http.StatusBadRequest)
			return
		}

		total, err := drainSync(r, reconciler, connectionID, userID)
		if err != nil {
			status := syncErrorStatus(err)
			http.Error(w, err.Error(), status)
			log.Printf("ERROR: Sync failed for connection %d (user %d): %v", connectionID, userID, err)
			return
		}

		if autoCategorize {
			if _, err := engine.Apply(r.Context(), userID, nil); err != nil {
				// Categorization is a convenience on this path; the sync
				// itself already succeeded.
				log.Printf("ERROR: Post-sync categorization failed for user %d: %v", userID, err)
			}
		}

		cache.ClearAllTransactionCaches()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(total)
	}
}

func drainSync(r *http.Request, reconciler *syncer.Reconciler, connectionID, userID int64) (*models.SyncResult, error) {
	total := &models.SyncResult{}
	for {
		res, err := reconciler.Sync(r.Context(), connectionID, userID)
		if err != nil {
			return nil, err
		}
		total.Added += res.Added
		total.Modified += res.Modified
		total.Removed += res.Removed
		total.Backfilled += res.Backfilled
		if !res.HasMore {
			return total, nil
		}
	}
}

func syncErrorStatus(err error) int {
	switch syncer.KindOf(err) {
	case syncer.KindNotFound:
		return http.StatusNotFound
	case syncer.KindConflict:
		return http.StatusConflict
	case syncer.KindConnectionInactive:
		return http.StatusGone
	case syncer.KindValidation:
		return http.StatusBadRequest
	case syncer.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PlaidWebhook verifies the webhook signature and, for transaction webhooks,
// syncs every active connection of the item.
func PlaidWebhook(plaidClient *plaid.APIClient, pool *pgxpool.Pool, reconciler *syncer.Reconciler, engine *rules.Engine, autoCategorize bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		headers := map[string]string{}
		for name := range r.Header {
			headers[name] = r.Header.Get(name)
		}
		valid, err := util.VerifyWebhook(r.Context(), plaidClient, body, headers)
		if err != nil || !valid {
			log.Printf("ERROR: Webhook verification failed: %v", err)
			http.Error(w, "verification failed", http.StatusUnauthorized)
			return
		}

		var payload struct {
			WebhookType string `json:"webhook_type"`
			WebhookCode string `json:"webhook_code"`
			ItemID      string `json:"item_id"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if payload.WebhookType == "TRANSACTIONS" {
			connections, err := db.GetConnectionsByItem(r.Context(), pool, payload.ItemID)
			if err != nil {
				log.Printf("ERROR: Failed to load connections for item %s: %v", payload.ItemID, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			for _, conn := range connections {
				if _, err := drainSync(r, reconciler, conn.ID, conn.UserID); err != nil {
					// Keep going; each connection records its own error state.
					log.Printf("ERROR: Webhook-triggered sync failed for connection %d: %v", conn.ID, err)
					continue
				}
				if autoCategorize {
					if _, err := engine.Apply(r.Context(), conn.UserID, nil); err != nil {
						log.Printf("ERROR: Webhook-triggered categorization failed for user %d: %v", conn.UserID, err)
					}
				}
			}
			cache.ClearAllTransactionCaches()
			log.Printf("INFO: Webhook %s/%s processed for item %s (%d connections)", payload.WebhookType, payload.WebhookCode, payload.ItemID, len(connections))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}
}

// FireSandboxWebhook asks Plaid's sandbox to emit a SYNC_UPDATES_AVAILABLE
// webhook for an item, for end-to-end testing of the webhook path.
func FireSandboxWebhook(plaidClient *plaid.APIClient, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID string `json:"item_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		connections, err := db.GetConnectionsByItem(r.Context(), pool, req.ItemID)
		if err != nil || len(connections) == 0 {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}

		fireReq := plaid.NewSandboxItemFireWebhookRequest(connections[0].AccessToken, "SYNC_UPDATES_AVAILABLE")
		resp, _, err := plaidClient.PlaidApi.SandboxItemFireWebhook(r.Context()).SandboxItemFireWebhookRequest(*fireReq).Execute()
		if err != nil {
			log.Printf("ERROR: Failed to fire sandbox webhook for item %s: %v", req.ItemID, err)
			http.Error(w, "failed to fire webhook", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"fired": resp.GetWebhookFired()})
	}
}
