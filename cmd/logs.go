package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"depot/internal/core/config"
	"depot/internal/core/logger"
	"depot/internal/credentials"
	"depot/internal/inventory/changelog"
	"depot/internal/realtime"
	"depot/pkg/models"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the change log, newest first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			formatter, err := changelog.NewFormatter(cfg.LogTimezone, cfg.LogTimeLayout)
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.IsProduction(), cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			store, err := realtime.Connect(cmd.Context(), credentials.NewStore(cfg.CredentialsDir), realtime.Open, log)
			if err != nil {
				return err
			}
			defer store.Close()

			raw, err := store.Get(cmd.Context(), realtime.PathLogs)
			if err != nil {
				return fmt.Errorf("read logs: %w", err)
			}
			entries, err := realtime.NormalizeLogs(raw)
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}

			return printLogs(cmd.OutOrStdout(), entries, formatter)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to print, 0 for all")

	return cmd
}

func printLogs(out io.Writer, entries []models.LogEntry, formatter *changelog.Formatter) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No log entries.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER\tACTION")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", formatter.Format(entry), entry.User, entry.Action)
	}
	return w.Flush()
}
