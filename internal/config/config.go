// Package config loads tasklist's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sadopc/tasklist/internal/store"
)

// Config represents the config.toml file.
type Config struct {
	Database Database `toml:"database"`
	Server   Server   `toml:"server"`
	Upload   Upload   `toml:"upload"`
	Import   Import   `toml:"import"`
}

// Database locates the SQLite file.
type Database struct {
	Path string `toml:"path"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
	// AllowedOrigins are sent back in CORS responses.
	AllowedOrigins []string `toml:"allowed-origins"`
}

// Upload configures image attachments.
type Upload struct {
	Dir        string   `toml:"dir"`
	MaxSizeMB  int64    `toml:"max-size-mb"`
	Extensions []string `toml:"extensions"`
}

// Import configures the task line importer.
type Import struct {
	// Timezone dates in task lines are interpreted in. Empty means local time.
	Timezone string `toml:"timezone"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = "tasklist.db"
	}
	uploadDir := filepath.Join(filepath.Dir(dbPath), "uploads")
	return &Config{
		Database: Database{Path: dbPath},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Upload: Upload{
			Dir:        uploadDir,
			MaxSizeMB:  10,
			Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"},
		},
	}
}

func appDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return filepath.Join(cfg, "tasklist"), nil
}

// DefaultPath returns ~/.config/tasklist/config.toml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config at path, or at DefaultPath when path is empty.
// Keys missing from the file keep their defaults; a missing file yields the
// defaults. TASKLIST_DB and TASKLIST_ADDR override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parse config file %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if v := os.Getenv("TASKLIST_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TASKLIST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is empty")
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("config: upload.max-size-mb must be positive, got %d", c.Upload.MaxSizeMB)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves import.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Import.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Import.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: import.timezone: %w", err)
	}
	return loc, nil
}

// MaxUploadBytes is Upload.MaxSizeMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Upload.MaxSizeMB << 20
}
