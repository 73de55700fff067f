package testutils

import (
	"os"
	"testing"

	"github.com/joho/godotenv"

	"nrgbot/config"
)

// LoadTestConfig loads database settings for integration tests from .env.test
// or the environment. Tests are skipped when no database is configured.
func LoadTestConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	_ = godotenv.Load("../.env.test")
	_ = godotenv.Load("../../.env.test")
	_ = godotenv.Load(".env.test")

	databaseURL := os.Getenv("DB_URL")
	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseURL == "" || databaseSchema == "" {
		t.Skip("DB_URL and DB_SCHEMA must be set for database tests")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}
}
