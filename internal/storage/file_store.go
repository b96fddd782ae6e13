package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const fileExt = ".kv"

// FileStore persists each key as its own file under a data directory.
// Writes go through a temporary file and an atomic rename, so a crash
// leaves either the old value or the new one, never a torn file.
//
// Keys are encoded into filenames with URL-safe base64, which keeps the
// mapping lossless regardless of what characters the key contains.
type FileStore struct {
	dataDir string
	mu      sync.Mutex // protects concurrent writes to the filesystem
	logger  *zap.Logger
}

// NewFileStore initializes a file-backed store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dataDir: dir, logger: logger}, nil
}

func (s *FileStore) pathFor(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key)) + fileExt
	return filepath.Join(s.dataDir, name)
}

// Get reads the value stored for key, reporting found=false when the
// key has never been written.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	content, err := os.ReadFile(s.pathFor(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(content), true, nil
}

// Set writes the value for key atomically.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(key)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return os.Rename(tempPath, path)
}

// Remove deletes the key. Removing an absent key is not an error.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// ListKeys returns every key currently stored. Entries whose filename
// does not decode are skipped rather than failing the whole scan.
func (s *FileStore) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileExt))
		if err != nil {
			s.logger.Warn("Skipping undecodable store entry", zap.String("file", name))
			continue
		}
		keys = append(keys, string(decoded))
	}
	return keys, nil
}
