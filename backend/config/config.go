package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen    string         `yaml:"listen"`
	PublicURL string         `yaml:"public_url"`
	Database  DatabaseConfig `yaml:"database"`
	Session   SessionConfig  `yaml:"session"`
	Remote    RemoteConfig   `yaml:"remote"`
	Local     LocalConfig    `yaml:"local"`
	Logs      LogsConfig     `yaml:"logs"`
	RxTerms   RxTermsConfig  `yaml:"rxterms"`
	TLS       TLSConfig      `yaml:"tls"`
}

type DatabaseConfig struct {
	DSN  string `yaml:"dsn"`  // Postgres DSN; takes precedence when set
	Path string `yaml:"path"` // SQLite fallback
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Secret  string        `yaml:"secret"`
}

// RemoteConfig points the remote storage adapter at a hosted instance.
// An empty or placeholder base URL means remote mode is unavailable.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type LocalConfig struct {
	Path string `yaml:"path"` // on-device store file
}

type LogsConfig struct {
	MaxAge time.Duration `yaml:"max_age"`
}

type RxTermsConfig struct {
	Upstream string        `yaml:"upstream"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

var C Config

func Load() error {
	// Defaults
	C = Config{
		Listen:    ":8080",
		PublicURL: "http://localhost:8080",
		Database: DatabaseConfig{
			Path: "neurostack.db",
		},
		Session: SessionConfig{
			Timeout: 24 * time.Hour,
		},
		Local: LocalConfig{
			Path: "neurostack-local.db",
		},
		Logs: LogsConfig{
			MaxAge: 48 * time.Hour,
		},
		RxTerms: RxTermsConfig{
			Upstream: "https://clinicaltables.nlm.nih.gov/api/rxterms/v3/search",
			CacheTTL: time.Hour,
		},
	}

	// Load from YAML if exists
	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return err
		}
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		C.PublicURL = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		C.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		C.Database.Path = v
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Session.Timeout = d
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		C.Session.Secret = v
	}
	if v := os.Getenv("REMOTE_BASE_URL"); v != "" {
		C.Remote.BaseURL = v
	}
	if v := os.Getenv("REMOTE_API_KEY"); v != "" {
		C.Remote.APIKey = v
	}
	if v := os.Getenv("LOCAL_STORE_PATH"); v != "" {
		C.Local.Path = v
	}
	if v := os.Getenv("LOGS_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Logs.MaxAge = d
		}
	}
	if v := os.Getenv("RXTERMS_UPSTREAM"); v != "" {
		C.RxTerms.Upstream = v
	}
	if v := os.Getenv("TLS_ENABLED"); v == "true" {
		C.TLS.Enabled = true
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		C.TLS.Cert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		C.TLS.Key = v
	}

	return nil
}
