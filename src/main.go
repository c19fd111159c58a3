package main

import (
	"log"
	"net/http"

	"taxtrack-server/src/api"
	"taxtrack-server/src/config"
	"taxtrack-server/src/db"
	dbsql "taxtrack-server/src/db/sql"
	plaidclient "taxtrack-server/src/plaid"
	"taxtrack-server/src/rules"
	syncer "taxtrack-server/src/sync"
)

func main() {
	cfg := config.Load()

	// Connect to database
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("DB migration failed: %v", err)
	}

	db.InitCache()

	client := plaidclient.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	provider := plaidclient.NewProvider(client)

	reconciler := syncer.NewReconciler(&dbsql.SyncStore{Pool: pool}, provider, cfg.TombstoneRemoved)
	engine := rules.NewEngine(&dbsql.RuleStore{Pool: pool})

	// Router
	router := api.NewRouter(cfg, pool, client, reconciler, engine)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
