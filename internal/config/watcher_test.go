package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfigFile(t *testing.T, path, ttl string) {
	t.Helper()
	content := "environment: development\ncache:\n  ttl: " + ttl + "\n  sync_timeout: 8s\n  fetch_timeout: 10s\n  update_timeout: 10s\n  not_found_attempts: 2\n  not_found_retry_delay: 500ms\n  transient_attempts: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	// Arrange
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "10m")

	initial, err := Load(path)
	require.NoError(t, err)

	watcher, err := NewWatcher(initial, path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()

	var callbacks atomic.Int32
	watcher.OnChange(func(Config) { callbacks.Add(1) })

	// Act
	writeConfigFile(t, path, "3m")

	// Assert
	require.Eventually(t, func() bool {
		return watcher.Current().Cache.TTL == 3*time.Minute
	}, 5*time.Second, 50*time.Millisecond)
	assert.GreaterOrEqual(t, callbacks.Load(), int32(1))
}

func TestWatcher_KeepsPreviousConfigOnBadReload(t *testing.T) {
	// Arrange
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "10m")

	initial, err := Load(path)
	require.NoError(t, err)

	watcher, err := NewWatcher(initial, path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()

	// Act: break the file, then give the debounce time to fire.
	require.NoError(t, os.WriteFile(path, []byte("cache: [not a map"), 0o644))
	time.Sleep(600 * time.Millisecond)

	// Assert
	assert.Equal(t, 10*time.Minute, watcher.Current().Cache.TTL)
}

func TestWatcher_InertInProduction(t *testing.T) {
	// Arrange
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Environment = Production
	cfg.Supabase.URL = "https://project.supabase.co"
	cfg.Supabase.AnonKey = "anon"

	// Act
	watcher, err := NewWatcher(cfg, path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()

	writeConfigFile(t, path, "1m")
	time.Sleep(400 * time.Millisecond)

	// Assert: no reload machinery runs outside development.
	assert.Equal(t, Default().Cache.TTL, watcher.Current().Cache.TTL)
}
