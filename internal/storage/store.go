// Package storage provides the device-local persistent key-value store
// the cache layer writes through. The interface mirrors the async
// storage API of the mobile shell: string keys, string values, no
// transactions, no schema.
package storage

import "context"

// Store is the persistent key-value boundary.
//
// Get returns (value, found, error); absence is not an error.
// ListKeys is used only for bulk cache clearing by prefix scan.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}
