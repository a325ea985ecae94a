// Package cli consolidates the bootstrap steps shared by cmd/fincontrol and
// cmd/fincontrol-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"fincontrol/internal/config"
	applog "fincontrol/internal/log"
	"fincontrol/internal/storage"
)

// Bootstrap loads the environment, the configuration and the logger for one
// binary. The logger is installed as the process default. Validation failures
// end the process; a binary cannot run on a broken configuration.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	// .env is for local development only; absence is not an error
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: component,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return cfg, logger
}

// InitSQLite opens the repository and runs migrations, exiting on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
