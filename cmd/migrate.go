package cmd

import (
	"fmt"
	"os"

	"depot/internal/core/config"
	"depot/internal/core/logger"
	"depot/internal/credentials"
	"depot/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run migrations manually.",
		Long:  `Applies the SQL migrations to a Postgres store. The URL comes from --url, DATABASE_URL or the stored credentials, in that order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			dbURL, _ := cmd.Flags().GetString("url")
			if dbURL == "" {
				dbURL = os.Getenv("DATABASE_URL")
			}
			if dbURL == "" {
				if stored := credentials.NewStore(cfg.CredentialsDir).Get(); stored != nil {
					dbURL = stored.DatabaseURL
				}
			}
			if !isPostgresURL(dbURL) {
				return fmt.Errorf("migrate needs a postgres URL, got %q", dbURL)
			}

			migrationDir, _ := cmd.Flags().GetString("dir")
			if migrationDir == "" {
				migrationDir = cfg.MigrationsDir
			}

			log := logger.NewLogger(cfg.IsProduction(), cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			steps, _ := cmd.Flags().GetInt("steps")
			status, err := database.RunMigrations(dbURL, migrationDir, steps, log)
			if err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			state := "clean"
			if status.Dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (%s).\n", status.Version, state)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Directory containing the migration files (default DEPOT_MIGRATIONS_DIR)")
	cmd.Flags().String("url", "", "Postgres URL to migrate")
	cmd.Flags().Int("steps", 0, "Migrations to apply, negative to roll back (default: all pending)")

	return cmd
}
