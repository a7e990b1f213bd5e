package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"depot/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() *models.ConnectionConfig {
	return &models.ConnectionConfig{
		APIKey:            "key",
		AuthDomain:        "depot.example.com",
		DatabaseURL:       "memory://local",
		ProjectID:         "depot",
		StorageBucket:     "bucket",
		MessagingSenderID: "123",
		AppID:             "app",
	}
}

func TestGetReturnsNilWhenAbsent(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.Nil(t, store.Get())
	assert.False(t, store.IsConfigured())
}

func TestSetThenGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := NewStore(dir)

	require.NoError(t, store.Set(sampleConfig()))

	assert.True(t, store.IsConfigured())
	assert.Equal(t, sampleConfig(), store.Get())

	raw, err := os.ReadFile(filepath.Join(dir, "depotConfig.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"databaseURL":"memory://local"`)
	assert.Contains(t, string(raw), `"messagingSenderId":"123"`)
}

func TestSetNilClears(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Set(sampleConfig()))

	require.NoError(t, store.Set(nil))
	assert.False(t, store.IsConfigured())

	// clearing twice is not an error
	assert.NoError(t, store.Set(nil))
}

func TestUnusableBlobIsNotConfigured(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"malformed", "{not json"},
		{"null", "null"},
		{"null with whitespace", " null\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "depotConfig.json"), []byte(tt.blob), 0o600))

			store := NewStore(dir)
			assert.Nil(t, store.Get())
			assert.False(t, store.IsConfigured())
		})
	}
}
