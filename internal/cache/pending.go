package cache

import (
	"context"
	"encoding/json"
	"time"

	"hydrosnap-client/internal/domain/profile"
	apperrors "hydrosnap-client/pkg/errors"
)

// PendingUpdate is the durable record of a write the remote store has
// not confirmed yet. At most one exists per user; later offline writes
// merge into it field-wise, last value wins. It is destroyed only by a
// successful sync.
type PendingUpdate struct {
	Patch    profile.Patch `json:"patch"`
	QueuedAt int64         `json:"queued_at"` // epoch milliseconds
}

// loadPending reads the pending-update slot for the user. A missing or
// undecodable slot is reported as absent; corruption must not block
// future writes from queuing.
func (s *Service) loadPending(ctx context.Context, userID string) (PendingUpdate, bool) {
	raw, found, err := s.store.Get(ctx, pendingKey(userID))
	if err != nil || !found {
		return PendingUpdate{}, false
	}

	pending, err := decodePending(raw)
	if err != nil {
		s.logger.Warn("Dropping undecodable pending update")
		return PendingUpdate{}, false
	}
	return pending, true
}

// enqueuePending merges the patch into the user's pending slot,
// creating it when absent.
func (s *Service) enqueuePending(ctx context.Context, userID string, patch profile.Patch, now time.Time) error {
	merged := patch
	queuedAt := now.UnixMilli()

	if existing, ok := s.loadPending(ctx, userID); ok {
		merged = existing.Patch.Merge(patch)
		queuedAt = existing.QueuedAt
	}

	raw, err := encodePending(PendingUpdate{Patch: merged, QueuedAt: queuedAt})
	if err != nil {
		return err
	}
	return s.store.Set(ctx, pendingKey(userID), raw)
}

func (s *Service) clearPending(ctx context.Context, userID string) error {
	return s.store.Remove(ctx, pendingKey(userID))
}

func encodePending(p PendingUpdate) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", apperrors.NewInternal("encode pending update", err)
	}
	return string(raw), nil
}

func decodePending(raw string) (PendingUpdate, error) {
	var pending PendingUpdate
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return PendingUpdate{}, apperrors.NewDecoding("malformed pending update", err)
	}
	return pending, nil
}
