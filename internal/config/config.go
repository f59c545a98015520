// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Storage contains persistence configuration.
type Storage struct {
	// DatabasePath is the SQLite database file location
	DatabasePath string `toml:"database_path"`
}

// Logging contains logger configuration.
type Logging struct {
	// Level is DEBUG, INFO, WARN or ERROR
	Level string `toml:"level"`

	// Format is "text" or "json"
	Format string `toml:"format"`
}

// Stats contains statistics view configuration.
type Stats struct {
	// TopN caps the most-played and recently-played views
	TopN int `toml:"top_n"`
}

// Library contains query-surface configuration.
type Library struct {
	// SortLocale is the BCP 47 tag used for locale-aware name sorting
	SortLocale string `toml:"sort_locale"`
}

// Config is the root configuration.
type Config struct {
	Storage Storage `toml:"storage"`
	Logging Logging `toml:"logging"`
	Stats   Stats   `toml:"stats"`
	Library Library `toml:"library"`
}

// Default returns the default configuration. The database lives next to the
// user's other application data.
func Default() Config {
	dataDir, err := os.UserConfigDir()
	if err != nil {
		dataDir = "."
	}
	return Config{
		Storage: Storage{
			DatabasePath: filepath.Join(dataDir, "sonata", "library.db"),
		},
		Logging: Logging{
			Level:  "INFO",
			Format: "text",
		},
		Stats: Stats{
			TopN: 10,
		},
		Library: Library{
			SortLocale: "en",
		},
	}
}

// Load reads the TOML config at path, layered over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the services cannot work with.
func (c *Config) Validate() error {
	if c.Storage.DatabasePath == "" {
		return errors.New("storage.database_path must not be empty")
	}
	if c.Stats.TopN <= 0 {
		return fmt.Errorf("stats.top_n must be positive, got %d", c.Stats.TopN)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// EnsureDirectories creates the directory that will hold the database file.
func (c *Config) EnsureDirectories() error {
	dir := filepath.Dir(c.Storage.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return nil
}
