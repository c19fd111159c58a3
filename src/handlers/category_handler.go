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
)

func GetCategories(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		cacheKey := fmt.Sprintf("categories:%d", userID)
		if cached, found := cache.Cache.Get(cacheKey); found {
			if categories, ok := cached.([]models.Category); ok {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(categories)
				return
			}
		}

		categories, err := db.GetCategoriesSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve categories", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get categories for user %d: %v", userID, err)
			return
		}

		cache.SetCategoryCache(cacheKey, categories)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(categories)
	}
}

func CreateCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		created, err := db.CreateCategory(r.Context(), pool, userID, req.Name)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				http.Error(w, "category already exists", http.StatusConflict)
				return
			}
			log.Printf("ERROR: Failed to create category for user %d: %v", userID, err)
			http.Error(w, "failed to create category", http.StatusInternalServerError)
			return
		}

		cache.ClearAllCategoryCaches()
		log.Printf("INFO: Created category %d (%s) for user %d", created.ID, created.Name, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func UpdateCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		categoryID, err := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		updated, err := db.UpdateCategory(r.Context(), pool, userID, categoryID, req.Name)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				http.Error(w, "category already exists", http.StatusConflict)
				return
			}
			// Default categories are filtered out of the update, so a miss
			// covers both "not yours" and "not editable".
			http.Error(w, "category not found or not editable", http.StatusNotFound)
			return
		}

		cache.ClearAllCategoryCaches()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteCategory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		categoryID, err := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}

		deleted, err := db.DeleteCategory(r.Context(), pool, userID, categoryID)
		if err != nil {
			if strings.Contains(err.Error(), "foreign key") {
				http.Error(w, "category is still referenced by transactions", http.StatusConflict)
				return
			}
			log.Printf("ERROR: Failed to delete category %d for user %d: %v", categoryID, userID, err)
			http.Error(w, "failed to delete category", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "category not found or not deletable", http.StatusNotFound)
			return
		}

		cache.ClearAllCategoryCaches()
		log.Printf("INFO: Deleted category %d for user %d", categoryID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "category deleted"})
	}
}

// SuggestCategoryHandler maps a free-text category name (typically what OCR
// pulled off a receipt) to one of the user's known categories.
func SuggestCategoryHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		name := r.URL.Query().Get("name")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "name query parameter is required", http.StatusBadRequest)
			return
		}

		categories, err := db.GetCategoriesSQL(r.Context(), pool, userID)
		if err != nil {
			http.Error(w, "Failed to retrieve categories", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get categories for suggestion, user %d: %v", userID, err)
			return
		}

		suggestion := rules.SuggestCategory(name, categories)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"suggestion": suggestion,
		})
	}
}
