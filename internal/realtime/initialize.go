package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"depot/pkg/models"

	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("remote store is not configured")
	// ErrReconfigure is returned after a failed initialisation cleared the stored credentials.
	ErrReconfigure = errors.New("remote store initialisation failed, credentials were cleared")
)

type CredentialStore interface {
	Get() *models.ConnectionConfig
	Set(cfg *models.ConnectionConfig) error
}

type Opener func(ctx context.Context, cfg models.ConnectionConfig, logger *zap.Logger) (Store, error)

// Open picks the backend from the scheme of cfg.DatabaseURL.
func Open(ctx context.Context, cfg models.ConnectionConfig, logger *zap.Logger) (Store, error) {
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		store, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.ProjectID, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(logger), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}
}

// Initialize connects with the stored credentials. When the connection cannot be made the
// credentials are cleared and ErrReconfigure is returned so the caller asks for new ones.
func Initialize(ctx context.Context, creds CredentialStore, open Opener, logger *zap.Logger) (Store, error) {
	cfg := creds.Get()
	if cfg == nil {
		return nil, ErrNotConfigured
	}

	err := cfg.Validate()
	var store Store
	if err == nil {
		store, err = open(ctx, *cfg, logger)
	}
	if err != nil {
		logger.Error("Remote store initialization failed", zap.Error(err))
		if clearErr := creds.Set(nil); clearErr != nil {
			logger.Warn("Unable to clear stored credentials", zap.Error(clearErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrReconfigure, err)
	}

	logger.Info("Connected to remote store", zap.String("project", cfg.ProjectID))
	return store, nil
}

// Connect opens a store with the stored credentials and leaves them untouched on failure.
func Connect(ctx context.Context, creds CredentialStore, open Opener, logger *zap.Logger) (Store, error) {
	cfg := creds.Get()
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := open(ctx, *cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to remote store: %w", err)
	}
	return store, nil
}
