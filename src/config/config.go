package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	MigrationsPath     string
	PlaidClientID      string
	PlaidSecret        string
	PlaidEnv           string
	JWTSecret          string
	AllowedOrigins     []string
	IsDemo             bool
	AutoCategorizeSync bool
	TombstoneRemoved   bool
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "migrations"),
		PlaidClientID:      getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:        getEnv("PLAID_SECRET", ""),
		PlaidEnv:           getEnv("PLAID_ENV", "sandbox"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		IsDemo:             getEnv("DEMO_MODE", "false") == "true",
		AutoCategorizeSync: getEnv("AUTO_CATEGORIZE_ON_SYNC", "true") == "true",
		TombstoneRemoved:   getEnv("SYNC_TOMBSTONE_REMOVED", "false") == "true",
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Fatal("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
