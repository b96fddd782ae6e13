// Package config provides configuration management for the sync core:
// defaults, an optional YAML file, and environment overrides, in that
// order of precedence (lowest to highest).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the full configuration of the sync core daemon.
type Config struct {
	Environment Environment    `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	Supabase    SupabaseConfig `yaml:"supabase"`
	Storage     StorageConfig  `yaml:"storage"`
	Cache       CacheConfig    `yaml:"cache"`
}

// HTTPConfig configures the loopback facade the app shell talks to.
type HTTPConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SupabaseConfig configures the hosted backend.
type SupabaseConfig struct {
	URL          string `yaml:"url"`
	AnonKey      string `yaml:"anon_key"`
	ProfileTable string `yaml:"profile_table"`
	AvatarBucket string `yaml:"avatar_bucket"`
}

// StorageConfig configures the device-local persistent store.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// CacheConfig carries the cache service's tuning constants.
type CacheConfig struct {
	TTL                time.Duration `yaml:"ttl"`
	SyncTimeout        time.Duration `yaml:"sync_timeout"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	UpdateTimeout      time.Duration `yaml:"update_timeout"`
	NotFoundAttempts   int           `yaml:"not_found_attempts"`
	NotFoundRetryDelay time.Duration `yaml:"not_found_retry_delay"`
	TransientAttempts  int           `yaml:"transient_attempts"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Environment: Development,
		HTTP: HTTPConfig{
			ListenAddr:     "127.0.0.1:8787",
			RequestTimeout: 30 * time.Second,
		},
		Supabase: SupabaseConfig{
			ProfileTable: "profiles",
			AvatarBucket: "avatars",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Cache: CacheConfig{
			TTL:                10 * time.Minute,
			SyncTimeout:        8 * time.Second,
			FetchTimeout:       10 * time.Second,
			UpdateTimeout:      10 * time.Second,
			NotFoundAttempts:   2,
			NotFoundRetryDelay: 500 * time.Millisecond,
			TransientAttempts:  2,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HYDROSNAP_ENV"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("HYDROSNAP_LISTEN_ADDR"); v != "" {
		cfg.HTTP.ListenAddr = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Supabase.AnonKey = v
	}
	if v := os.Getenv("HYDROSNAP_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("HYDROSNAP_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("HYDROSNAP_NOT_FOUND_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.NotFoundAttempts = n
		}
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("supabase url is required (SUPABASE_URL)")
	}
	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("supabase anon key is required (SUPABASE_ANON_KEY)")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http listen address is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Cache.NotFoundAttempts < 1 {
		return fmt.Errorf("not-found attempts must be at least 1")
	}
	if c.Cache.TransientAttempts < 1 {
		return fmt.Errorf("transient attempts must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the daemon runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == Development
}
