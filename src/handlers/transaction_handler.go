package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cache "taxtrack-server/src/db"
	db "taxtrack-server/src/db/sql"
	"taxtrack-server/src/models"
	"taxtrack-server/src/rules"
	"taxtrack-server/src/util"
)

type transactionRequest struct {
	Date         string   `json:"date"`
	Amount       float64  `json:"amount"`
	Description  string   `json:"description"`
	MerchantName *string  `json:"merchant_name"`
	CategoryID   *int64   `json:"category_id"`
	Tags         []string `json:"tags"`
	Notes        string   `json:"notes"`
	IsDeductible bool     `json:"is_deductible"`
}

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		cacheKey := fmt.Sprintf("transactions:%d", userID)
		if cached, found := cache.Cache.Get(cacheKey); found {
			if transactions, ok := cached.([]models.Transaction); ok {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(transactions)
				return
			}
		}

		transactions, err := db.GetTransactionsSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
			return
		}

		cache.SetTransactionCache(cacheKey, transactions)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

func CreateTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		txn, errMsg := transactionFromRequest(r, pool, userID, req)
		if errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			return
		}

		created, err := db.CreateTransaction(r.Context(), pool, txn)
		if err != nil {
			log.Printf("ERROR: Failed to create transaction for user %d: %v", userID, err)
			http.Error(w, "failed to create transaction", http.StatusInternalServerError)
			return
		}

		cache.ClearAllTransactionCaches()
		log.Printf("INFO: Created transaction %d for user %d", created.ID, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func UpdateTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		transactionID, err := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode update transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		existing, err := db.GetTransactionByID(r.Context(), pool, userID, transactionID)
		if err != nil {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		txn, errMsg := transactionFromRequest(r, pool, userID, req)
		if errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			return
		}
		txn.ID = transactionID
		if txn.CategoryID == nil {
			txn.Status = models.TransactionStatusPending
		} else if existing.Status == models.TransactionStatusReviewed {
			txn.Status = models.TransactionStatusReviewed
		}

		updated, err := db.UpdateTransaction(r.Context(), pool, txn)
		if err != nil {
			log.Printf("ERROR: Failed to update transaction %d for user %d: %v", transactionID, userID, err)
			http.Error(w, "failed to update transaction", http.StatusInternalServerError)
			return
		}

		cache.ClearAllTransactionCaches()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		transactionID, err := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		deleted, err := db.DeleteTransaction(r.Context(), pool, userID, transactionID)
		if err != nil {
			log.Printf("ERROR: Failed to delete transaction %d for user %d: %v", transactionID, userID, err)
			http.Error(w, "failed to delete transaction", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		cache.ClearAllTransactionCaches()
		log.Printf("INFO: Deleted transaction %d for user %d", transactionID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "transaction deleted"})
	}
}

// BulkCategorize re-runs the rule engine over an explicit list of
// transactions. Unlike automatic runs, this may overwrite categories the
// rules assigned before.
func BulkCategorize(engine *rules.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req struct {
			TransactionIDs []int64 `json:"transaction_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if len(req.TransactionIDs) == 0 {
			http.Error(w, "transaction_ids is required", http.StatusBadRequest)
			return
		}

		result, err := engine.Apply(r.Context(), userID, req.TransactionIDs)
		if err != nil {
			log.Printf("ERROR: Bulk categorize failed for user %d: %v", userID, err)
			http.Error(w, "failed to categorize transactions", http.StatusInternalServerError)
			return
		}

		cache.ClearAllTransactionCaches()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// ExportTransactions streams the user's transactions as CSV.
func ExportTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		transactions, err := db.GetTransactionsSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get transactions for export, user %d: %v", userID, err)
			return
		}

		categories, err := db.GetCategoriesSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve categories", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get categories for export, user %d: %v", userID, err)
			return
		}
		categoryNames := make(map[int64]string, len(categories))
		for _, c := range categories {
			categoryNames[c.ID] = c.Name
		}

		filename := fmt.Sprintf("transactions-%s.csv", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		writer := csv.NewWriter(w)
		writer.Write([]string{"date", "amount", "description", "merchant", "category", "tags", "notes", "deductible", "status"})
		for _, t := range transactions {
			merchant := ""
			if t.MerchantName != nil {
				merchant = *t.MerchantName
			}
			category := ""
			if t.CategoryID != nil {
				category = categoryNames[*t.CategoryID]
			}
			writer.Write([]string{
				t.Date.Format("2006-01-02"),
				strconv.FormatFloat(t.Amount, 'f', 2, 64),
				t.Description,
				merchant,
				category,
				strings.Join(t.Tags, ";"),
				t.Notes,
				strconv.FormatBool(t.IsDeductible),
				t.Status,
			})
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			log.Printf("ERROR: Failed to write CSV export for user %d: %v", userID, err)
		}
	}
}

// transactionFromRequest validates a create/update body before anything is
// persisted. Returns a non-empty message describing the first violation.
func transactionFromRequest(r *http.Request, pool *pgxpool.Pool, userID int64, req transactionRequest) (*models.Transaction, string) {
	if !util.ValidateDate(req.Date) {
		return nil, "date must be YYYY-MM-DD"
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, "description is required"
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	status := models.TransactionStatusPending
	if req.CategoryID != nil {
		category, err := db.GetCategoryByID(r.Context(), pool, userID, *req.CategoryID)
		if err != nil {
			log.Printf("ERROR: Failed to resolve category %d for user %d: %v", *req.CategoryID, userID, err)
			return nil, "failed to resolve category"
		}
		if category == nil {
			return nil, "category not found"
		}
		status = models.TransactionStatusCategorized
	}

	return &models.Transaction{
		UserID:       userID,
		Date:         date,
		Amount:       req.Amount,
		Description:  req.Description,
		MerchantName: req.MerchantName,
		CategoryID:   req.CategoryID,
		Tags:         req.Tags,
		Notes:        req.Notes,
		IsDeductible: req.IsDeductible,
		Status:       status,
	}, ""
}
