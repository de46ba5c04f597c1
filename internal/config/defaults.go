package config

import (
	"os"
	"path/filepath"
	"time"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = filepath.Join(os.TempDir(), "clausekit-uploads")
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = "/usr/local/var/clausekit/templates/templates.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/clausekit/data/templates.db"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 30 * time.Second
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".yaml", ".yml", ".json"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "json"
	}
}
