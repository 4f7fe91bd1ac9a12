// Package cli holds the shared bootstrap steps of cmd/budget and
// cmd/budget-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/storage"
)

// LoadEnvFile loads .env for local development. Missing files are fine;
// production configures through the environment.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging and sets the default logger.
func SetupLogger() *log.Logger {
	return log.Setup()
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the snapshot store, exiting the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	store, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open snapshot store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return store
}
