package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depot/internal/core/config"
	"depot/internal/core/container"
	"depot/internal/core/logger"
	"depot/internal/core/routes"
	"depot/internal/credentials"
	"depot/internal/database"
	"depot/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the configured store and serve the inventory API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.IsProduction(), cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	creds := credentials.NewStore(cfg.CredentialsDir)

	if cfg.AutoMigrate {
		if stored := creds.Get(); stored != nil && isPostgresURL(stored.DatabaseURL) {
			if _, err := database.RunMigrations(stored.DatabaseURL, cfg.MigrationsDir, 0, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
	}

	store, err := realtime.Initialize(ctx, creds, realtime.Open, log)
	if err != nil {
		if errors.Is(err, realtime.ErrNotConfigured) || errors.Is(err, realtime.ErrReconfigure) {
			return fmt.Errorf("%w (run `depot configure` to set the connection)", err)
		}
		return err
	}

	app, err := container.NewAppContainer(ctx, cfg, store, log)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("Error closing store", zap.Error(err))
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Host,
		Handler:           routes.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting server", zap.String("addr", cfg.Host), zap.String("operator", cfg.Operator))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func isPostgresURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "postgres" || u.Scheme == "postgresql"
}
