// Package cache implements the offline-first profile cache: cache-first
// reads with background refresh, optimistic writes, and a durable
// pending-update queue reconciled when connectivity returns.
package cache

import (
	"encoding/json"
	"time"

	apperrors "hydrosnap-client/pkg/errors"
)

// Record wraps a cached payload with the moment it was captured.
// The capture timestamp is refreshed on every successful write, cache
// or remote; it is owned exclusively by the cache service.
type Record[T any] struct {
	Data       T     `json:"data"`
	CapturedAt int64 `json:"captured_at"` // epoch milliseconds
}

// Age returns how long ago the record was captured.
func (r Record[T]) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.CapturedAt))
}

// Encode serializes a payload into the persistent store's string value,
// stamping it with now.
func Encode[T any](data T, now time.Time) (string, error) {
	raw, err := json.Marshal(Record[T]{Data: data, CapturedAt: now.UnixMilli()})
	if err != nil {
		return "", apperrors.NewInternal("encode cache record", err)
	}
	return string(raw), nil
}

// Decode parses a stored value back into a record. Callers treat a
// decoding error exactly like a cache miss and fall through to the
// remote store; a corrupt entry must never crash a read.
func Decode[T any](raw string) (Record[T], error) {
	var record Record[T]
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record[T]{}, apperrors.NewDecoding("malformed cache record", err)
	}
	return record, nil
}
