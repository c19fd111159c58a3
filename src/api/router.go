package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	"taxtrack-server/src/config"
	"taxtrack-server/src/handlers"
	"taxtrack-server/src/middleware"
	"taxtrack-server/src/rules"
	syncer "taxtrack-server/src/sync"
)

func NewRouter(cfg config.Config, pool *pgxpool.Pool, plaidClient *plaid.APIClient, reconciler *syncer.Reconciler, engine *rules.Engine) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.DemoModeMiddleware(cfg.IsDemo))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(pool, cfg.JWTSecret))
		r.Post("/register", handlers.Register(pool))
		r.Post("/plaid/webhook", handlers.PlaidWebhook(plaidClient, pool, reconciler, engine, cfg.AutoCategorizeSync))
		if cfg.PlaidEnv == "sandbox" {
			r.Post("/plaid/sandbox/fire_webhook", handlers.FireSandboxWebhook(plaidClient, pool))
		}

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(cfg.JWTSecret)).Group(func(r chi.Router) {
			// User
			r.Post("/user/change-password", handlers.ChangePassword(pool))

			// Plaid linking
			r.Post("/plaid/create-link-token", handlers.CreateLinkToken(plaidClient))
			r.Post("/plaid/exchange-public-token", handlers.ExchangePublicToken(plaidClient, pool))

			// Connections
			r.Get("/connections", handlers.GetConnections(pool))
			r.Delete("/connections/{connection_id}", handlers.DisconnectConnection(plaidClient, pool))
			r.Post("/connections/{connection_id}/sync", handlers.SyncConnection(reconciler, engine, cfg.AutoCategorizeSync))

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(pool))
			r.Post("/transactions", handlers.CreateTransaction(pool))
			r.Put("/transactions/{transaction_id}", handlers.UpdateTransaction(pool))
			r.Delete("/transactions/{transaction_id}", handlers.DeleteTransaction(pool))
			r.Post("/transactions/bulk-categorize", handlers.BulkCategorize(engine))
			r.Get("/transactions/export", handlers.ExportTransactions(pool))

			// Categories
			r.Get("/categories", handlers.GetCategories(pool))
			r.Post("/categories", handlers.CreateCategory(pool))
			r.Get("/categories/suggest", handlers.SuggestCategoryHandler(pool))
			r.Put("/categories/{category_id}", handlers.UpdateCategory(pool))
			r.Delete("/categories/{category_id}", handlers.DeleteCategory(pool))

			// Categorization Rules
			r.Get("/rules", handlers.GetRules(pool))
			r.Post("/rules", handlers.CreateRule(pool))
			r.Post("/rules/apply", handlers.ApplyRules(engine))
			r.Put("/rules/{rule_id}", handlers.UpdateRule(pool))
			r.Delete("/rules/{rule_id}", handlers.DeleteRule(pool))
		})

		// Super Admin Routes
		r.With(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.SuperAdminMiddleware).Group(func(r chi.Router) {
			r.Get("/admin/connections", handlers.GetAllConnections(pool))
			r.Post("/admin/cache/clear/{cache_name}", handlers.ClearCache())
		})
	})

	return r
}
