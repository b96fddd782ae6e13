package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, "127.0.0.1:8787", cfg.HTTP.ListenAddr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Cache.NotFoundAttempts)
	assert.Equal(t, "https://project.supabase.co", cfg.Supabase.URL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("environment: production\ncache:\n  ttl: 5m\n  sync_timeout: 8s\n  fetch_timeout: 10s\n  update_timeout: 10s\n  not_found_attempts: 3\n  not_found_retry_delay: 500ms\n  transient_attempts: 2\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Cache.NotFoundAttempts)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HYDROSNAP_CACHE_TTL", "2m")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl: 5m\n  sync_timeout: 8s\n  fetch_timeout: 10s\n  update_timeout: 10s\n  not_found_attempts: 2\n  not_found_retry_delay: 500ms\n  transient_attempts: 2\n"), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default().Cache, cfg.Cache)
}

func TestValidate_RequiresSupabaseSettings(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase url")
}

func TestValidate_RejectsNonPositiveTTL(t *testing.T) {
	cfg := Default()
	cfg.Supabase.URL = "https://project.supabase.co"
	cfg.Supabase.AnonKey = "anon"
	cfg.Cache.TTL = 0

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ttl")
}
