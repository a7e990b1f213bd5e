package cmd

import (
	"fmt"

	"depot/internal/core/config"
	"depot/internal/credentials"
	"depot/pkg/models"

	"github.com/spf13/cobra"
)

func newConfigureCmd() *cobra.Command {
	var (
		conn        models.ConnectionConfig
		clearStored bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the connection credentials for the remote store.",
		Long:  `Every field is required. Use --clear to remove stored credentials.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store := credentials.NewStore(cfg.CredentialsDir)

			if clearStored {
				if err := store.Set(nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared.")
				return nil
			}

			if err := conn.Validate(); err != nil {
				return err
			}
			if err := store.Set(&conn); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved for project %s.\n", conn.ProjectID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&conn.APIKey, "api-key", "", "API key")
	flags.StringVar(&conn.AuthDomain, "auth-domain", "", "auth domain")
	flags.StringVar(&conn.DatabaseURL, "database-url", "", "store URL (postgres://... or memory://)")
	flags.StringVar(&conn.ProjectID, "project-id", "", "project id, scopes every stored row")
	flags.StringVar(&conn.StorageBucket, "storage-bucket", "", "storage bucket")
	flags.StringVar(&conn.MessagingSenderID, "messaging-sender-id", "", "messaging sender id")
	flags.StringVar(&conn.AppID, "app-id", "", "app id")
	flags.BoolVar(&clearStored, "clear", false, "remove the stored credentials")

	return cmd
}
