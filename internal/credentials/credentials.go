package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"depot/pkg/models"
)

// ConfigKey names the blob holding the connection credentials.
const ConfigKey = "depotConfig"

// Store persists the connection credentials as one JSON blob in a local directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir is the per-user configuration directory for depot.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".depot"
	}
	return filepath.Join(base, "depot")
}

func (s *Store) path() string {
	return filepath.Join(s.dir, ConfigKey+".json")
}

// Get returns nil when the blob is absent, holds JSON null or cannot be decoded.
func (s *Store) Get() *models.ConnectionConfig {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		return nil
	}

	var cfg *models.ConnectionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil
	}
	return cfg
}

// Set writes cfg, or removes the stored blob when cfg is nil.
func (s *Store) Set(cfg *models.ConnectionConfig) error {
	if cfg == nil {
		if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path(), raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *Store) IsConfigured() bool {
	return s.Get() != nil
}
