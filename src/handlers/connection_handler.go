package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	db "taxtrack-server/src/db/sql"
	"taxtrack-server/src/models"
)

func CreateLinkToken(plaidClient *plaid.APIClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		user := plaid.LinkTokenCreateRequestUser{
			ClientUserId: strconv.FormatInt(userID, 10),
		}
		request := plaid.NewLinkTokenCreateRequest(
			"TaxTrack",
			"en",
			[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		)
		request.SetUser(user)
		request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
		resp, _, err := plaidClient.PlaidApi.LinkTokenCreate(context.Background()).LinkTokenCreateRequest(*request).Execute()
		if err != nil {
			http.Error(w, "Failed to create link token", http.StatusInternalServerError)
			log.Printf("ERROR: Plaid link token creation failed for user %d: %v", userID, err)
			return
		}

		linkToken := resp.GetLinkToken()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"link_token": linkToken})
	}
}

// ExchangePublicToken finishes account linking. One BankConnection row is
// created per account of the item, since syncs are reconciled per account.
func ExchangePublicToken(plaidClient *plaid.APIClient, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req struct {
			PublicToken string `json:"public_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode exchange public token request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		exchangeReq := plaid.NewItemPublicTokenExchangeRequest(req.PublicToken)
		exchangeResp, _, err := plaidClient.PlaidApi.ItemPublicTokenExchange(context.Background()).ItemPublicTokenExchangeRequest(
			*exchangeReq,
		).Execute()
		if err != nil {
			http.Error(w, "Failed to exchange public token", http.StatusInternalServerError)
			log.Printf("ERROR: Plaid public token exchange failed for user %d: %v", userID, err)
			return
		}

		accessToken := exchangeResp.GetAccessToken()
		itemID := exchangeResp.GetItemId()

		institutionID, institutionName, institutionLogo := lookupInstitution(r.Context(), plaidClient, accessToken)

		accountsReq := plaid.NewAccountsGetRequest(accessToken)
		accountsResp, _, err := plaidClient.PlaidApi.AccountsGet(context.Background()).AccountsGetRequest(*accountsReq).Execute()
		if err != nil {
			http.Error(w, "Failed to fetch accounts", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to fetch accounts for user %d, item %s: %v", userID, itemID, err)
			return
		}

		var created []int64
		for _, acc := range accountsResp.GetAccounts() {
			conn := &models.BankConnection{
				UserID:          userID,
				ItemID:          itemID,
				AccountID:       acc.GetAccountId(),
				AccessToken:     accessToken,
				InstitutionID:   institutionID,
				InstitutionName: institutionName,
				InstitutionLogo: institutionLogo,
				AccountName:     acc.GetName(),
				AccountType:     string(acc.GetType()),
				AccountSubtype:  string(acc.GetSubtype()),
				AccountMask:     acc.GetMask(),
			}
			id, err := db.SaveConnection(r.Context(), pool, conn)
			if err != nil {
				http.Error(w, "Failed to save connection", http.StatusInternalServerError)
				log.Printf("ERROR: Failed to save connection for user %d, account %s: %v", userID, acc.GetAccountId(), err)
				return
			}
			created = append(created, id)
		}

		log.Printf("INFO: Linked item %s for user %d (%d connections)", itemID, userID, len(created))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"item_id":        itemID,
			"connection_ids": created,
		})
	}
}

// lookupInstitution fetches institution details for display. Failures are
// tolerated; the connection works without them.
func lookupInstitution(ctx context.Context, plaidClient *plaid.APIClient, accessToken string) (id, name, logo string) {
	itemReq := plaid.NewItemGetRequest(accessToken)
	itemResp, _, err := plaidClient.PlaidApi.ItemGet(ctx).ItemGetRequest(*itemReq).Execute()
	if err != nil {
		log.Printf("ERROR: Failed to fetch item details: %v", err)
		return "", "", ""
	}
	if !itemResp.GetItem().InstitutionId.IsSet() {
		return "", "", ""
	}
	id = *itemResp.GetItem().InstitutionId.Get()

	instReq := plaid.NewInstitutionsGetByIdRequest(id, []plaid.CountryCode{plaid.COUNTRYCODE_US})
	instResp, _, err := plaidClient.PlaidApi.InstitutionsGetById(ctx).InstitutionsGetByIdRequest(*instReq).Execute()
	if err != nil {
		log.Printf("ERROR: Failed to fetch institution %s: %v", id, err)
		return id, "", ""
	}
	institution := instResp.GetInstitution()
	return id, institution.GetName(), institution.GetLogo()
}

func GetConnections(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		connections, err := db.GetConnectionsSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve connections", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get connections for user %d: %v", userID, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(connections)
	}
}

// DisconnectConnection soft-terminates a connection. When no other active
// connection shares the item, the item itself is removed at the provider
// (best effort).
func DisconnectConnection(plaidClient *plaid.APIClient, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		connectionID, err := strconv.ParseInt(chi.URLParam(r, "connection_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid connection id", http.StatusBadRequest)
			return
		}

		store := &db.SyncStore{Pool: pool}
		conn, err := store.GetConnection(r.Context(), connectionID, userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to load connection %d for user %d: %v", connectionID, userID, err)
			return
		}
		if conn == nil {
			http.Error(w, "connection not found", http.StatusNotFound)
			return
		}

		disconnected, err := db.DisconnectConnection(r.Context(), pool, userID, connectionID)
		if err != nil {
			http.Error(w, "Failed to disconnect connection", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to disconnect connection %d for user %d: %v", connectionID, userID, err)
			return
		}
		if !disconnected {
			http.Error(w, "connection not found", http.StatusNotFound)
			return
		}

		remaining, err := db.GetConnectionsByItem(r.Context(), pool, conn.ItemID)
		if err != nil {
			log.Printf("ERROR: Failed to check remaining connections for item %s: %v", conn.ItemID, err)
		} else if len(remaining) == 0 {
			removeReq := plaid.NewItemRemoveRequest(conn.AccessToken)
			if _, _, err := plaidClient.PlaidApi.ItemRemove(context.Background()).ItemRemoveRequest(*removeReq).Execute(); err != nil {
				log.Printf("ERROR: Failed to remove item %s at provider: %v", conn.ItemID, err)
			}
		}

		log.Printf("INFO: Disconnected connection %d for user %d", connectionID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "connection disconnected"})
	}
}

func GetAllConnections(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connections, err := db.GetAllConnectionsSQL(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve connections", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get all connections: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(connections)
	}
}
