package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; existing process variables are never overridden.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every present env file. Missing files are silently skipped.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}
