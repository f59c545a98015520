package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.Storage.DatabasePath)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Stats.TopN)
	assert.Equal(t, "en", cfg.Library.SortLocale)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sonata.toml")
	content := `
[storage]
database_path = "/tmp/custom.db"

[logging]
level = "DEBUG"

[stats]
top_n = 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Stats.TopN)
	// Untouched sections keep their defaults.
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "en", cfg.Library.SortLocale)
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.DatabasePath = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Stats.TopN = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Format = "json"
	assert.NoError(t, cfg.Validate())
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "nested", "deep", "library.db")

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(filepath.Dir(cfg.Storage.DatabasePath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
