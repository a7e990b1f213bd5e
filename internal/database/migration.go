package database

import (
	"fmt"
	"path/filepath"

	"depot/internal/database/migration"

	"go.uber.org/zap"
)

// RunMigrations applies the SQL files in migrationsDir to the node store at dbURL.
// steps == 0 migrates all the way up; a negative value rolls back that many migrations.
func RunMigrations(dbURL string, migrationsDir string, steps int, logger *zap.Logger) (migration.Status, error) {
	if dbURL == "" {
		return migration.Status{}, fmt.Errorf("database URL is not set")
	}

	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return migration.Status{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return migration.Migrate(dbURL, "file://"+absPath, migration.Options{Steps: steps, Verbose: true}, logger)
}
