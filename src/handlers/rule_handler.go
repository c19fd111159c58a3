package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cache "taxtrack-server/src/db"
	db "taxtrack-server/src/db/sql"
	"taxtrack-server/src/models"
	"taxtrack-server/src/rules"
	"taxtrack-server/src/util"
)

type ruleRequest struct {
	Name       string `json:"name"`
	Pattern    string `json:"pattern"`
	CategoryID int64  `json:"category_id"`
	Enabled    *bool  `json:"enabled"`
	Priority   int    `json:"priority"`
}

// validateRuleRequest checks a create/update body. The pattern must compile
// so the engine never has to choke on it later, and the category must exist
// and belong to the user. Returns a non-empty message on the first violation.
func validateRuleRequest(r *http.Request, pool *pgxpool.Pool, userID int64, req ruleRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if !util.ValidatePattern(req.Pattern) {
		return "pattern is not a valid regular expression"
	}
	category, err := db.GetCategoryByID(r.Context(), pool, userID, req.CategoryID)
	if err != nil {
		log.Printf("ERROR: Failed to resolve category %d for user %d: %v", req.CategoryID, userID, err)
		return "failed to resolve category"
	}
	if category == nil {
		return "category not found"
	}
	return ""
}

func GetRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		cacheKey := fmt.Sprintf("rules:%d", userID)
		if cached, found := cache.Cache.Get(cacheKey); found {
			if ruleList, ok := cached.([]models.AutoCategorizeRule); ok {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(ruleList)
				return
			}
		}

		ruleList, err := db.GetAllRules(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve rules", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get rules for user %d: %v", userID, err)
			return
		}

		cache.SetRuleCache(cacheKey, ruleList)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ruleList)
	}
}

func CreateRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req ruleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if errMsg := validateRuleRequest(r, pool, userID, req); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		created, err := db.CreateRule(r.Context(), pool, &models.AutoCategorizeRule{
			UserID:     userID,
			Name:       req.Name,
			Pattern:    req.Pattern,
			CategoryID: req.CategoryID,
			Enabled:    enabled,
			Priority:   req.Priority,
		})
		if err != nil {
			log.Printf("ERROR: Failed to create rule for user %d: %v", userID, err)
			http.Error(w, "failed to create rule", http.StatusInternalServerError)
			return
		}

		cache.ClearAllRuleCaches()
		log.Printf("INFO: Created rule %d (%s) for user %d", created.ID, created.Name, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func UpdateRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		ruleID, err := strconv.ParseInt(chi.URLParam(r, "rule_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}

		var req ruleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if errMsg := validateRuleRequest(r, pool, userID, req); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		updated, err := db.UpdateRule(r.Context(), pool, &models.AutoCategorizeRule{
			ID:         ruleID,
			UserID:     userID,
			Name:       req.Name,
			Pattern:    req.Pattern,
			CategoryID: req.CategoryID,
			Enabled:    enabled,
			Priority:   req.Priority,
		})
		if err != nil {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		cache.ClearAllRuleCaches()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		ruleID, err := strconv.ParseInt(chi.URLParam(r, "rule_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}

		if err := db.DeleteRule(r.Context(), pool, userID, ruleID); err != nil {
			if strings.Contains(err.Error(), "not found") {
				http.Error(w, "rule not found", http.StatusNotFound)
				return
			}
			log.Printf("ERROR: Failed to delete rule %d for user %d: %v", ruleID, userID, err)
			http.Error(w, "failed to delete rule", http.StatusInternalServerError)
			return
		}

		cache.ClearAllRuleCaches()
		log.Printf("INFO: Deleted rule %d for user %d", ruleID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "rule deleted"})
	}
}

// ApplyRules runs the engine over every uncategorized transaction the user
// has. Already-categorized transactions are left alone on this path.
func ApplyRules(engine *rules.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		result, err := engine.Apply(r.Context(), userID, nil)
		if err != nil {
			log.Printf("ERROR: Rule application failed for user %d: %v", userID, err)
			http.Error(w, "failed to apply rules", http.StatusInternalServerError)
			return
		}

		cache.ClearAllTransactionCaches()
		log.Printf("INFO: Applied rules for user %d: %d of %d categorized", userID, result.CategorizedCount, result.TotalProcessed)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
