package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	cache "taxtrack-server/src/db"
)

// ClearCache wipes one of the named cache kinds, or everything.
func ClearCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheName := chi.URLParam(r, "cache_name")

		switch cacheName {
		case "rules":
			cache.ClearAllRuleCaches()
		case "categories":
			cache.ClearAllCategoryCaches()
		case "transactions":
			cache.ClearAllTransactionCaches()
		case "all":
			cache.ClearAllRuleCaches()
			cache.ClearAllCategoryCaches()
			cache.ClearAllTransactionCaches()
		default:
			http.Error(w, "unknown cache name", http.StatusBadRequest)
			return
		}

		log.Printf("INFO: Cleared cache %s", cacheName)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "cache cleared"})
	}
}
