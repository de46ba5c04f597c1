// Package config provides configuration loading and structs for the clausekit server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// EnvAuthSecret overrides auth.secret when set.
const EnvAuthSecret = "CLAUSEKIT_AUTH_SECRET"

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Search   SearchConfig   `yaml:"search"`
	Watch    WatchConfig    `yaml:"watch"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	UploadDir      string        `yaml:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig selects and locates the template catalog.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	CatalogPath  string `yaml:"catalog_path"`
	DatabasePath string `yaml:"database_path"`
}

// AuthConfig holds token signing settings and the accepted users.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	Users    []UserConfig  `yaml:"users"`
}

// UserConfig is one login. PasswordHash (bcrypt) takes precedence over Password.
type UserConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

// UpstreamConfig locates the clause generation and risk analysis service.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries *int          `yaml:"retries"`
}

// RetriesOrDefault returns the configured retry count; defaults to 1 when unset.
func (u *UpstreamConfig) RetriesOrDefault() int {
	if u.Retries != nil {
		return *u.Retries
	}
	return 1
}

// SearchConfig holds template search limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// WatchConfig holds template import directory settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// ExportConfig holds document rendering settings.
type ExportConfig struct {
	// PDFFont is a UTF-8 TrueType font for PDF output. Empty uses the built-in
	// Helvetica, which cannot show characters outside cp1252.
	PDFFont string `yaml:"pdf_font"`
}

// LoggingConfig controls the zap logger built at startup.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if secret := os.Getenv(EnvAuthSecret); secret != "" {
		cfg.Auth.Secret = secret
	}

	configDir := filepath.Dir(path)
	cfg.Server.UploadDir = expandPath(cfg.Server.UploadDir, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Export.PDFFont = expandPath(cfg.Export.PDFFont, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: port %d out of range", c.Server.Port)
	}
	if c.Upstream.RetriesOrDefault() < 0 {
		return fmt.Errorf("invalid config: upstream.retries must not be negative")
	}
	seen := make(map[string]struct{}, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		if u.Username == "" {
			return fmt.Errorf("invalid config: auth user without username")
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("invalid config: auth user %q has no password", u.Username)
		}
		if _, ok := seen[u.Username]; ok {
			return fmt.Errorf("invalid config: duplicate auth user %q", u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
