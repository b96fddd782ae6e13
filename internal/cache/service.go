package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"hydrosnap-client/internal/domain/profile"
	"hydrosnap-client/internal/observability"
	"hydrosnap-client/internal/remote"
	"hydrosnap-client/internal/storage"
	apperrors "hydrosnap-client/pkg/errors"
)

// Config carries the cache service's tuning constants.
type Config struct {
	// TTL is advisory: it decides whether a read kicks off a background
	// refresh, never whether the cached value is usable.
	TTL time.Duration

	// SyncTimeout bounds the background refresh.
	SyncTimeout time.Duration

	// FetchTimeout bounds each cold-path remote read.
	FetchTimeout time.Duration

	// UpdateTimeout bounds each remote write.
	UpdateTimeout time.Duration

	// NotFoundAttempts bounds reads of a row that may not have been
	// created yet by the registration trigger.
	NotFoundAttempts   int
	NotFoundRetryDelay time.Duration

	// TransientAttempts bounds cold-path reads against network/timeout
	// failures (2 = exactly one retry).
	TransientAttempts int
}

// DefaultConfig returns the production tuning constants.
func DefaultConfig() Config {
	return Config{
		TTL:                10 * time.Minute,
		SyncTimeout:        8 * time.Second,
		FetchTimeout:       10 * time.Second,
		UpdateTimeout:      10 * time.Second,
		NotFoundAttempts:   2,
		NotFoundRetryDelay: 500 * time.Millisecond,
		TransientAttempts:  2,
	}
}

// Service orchestrates cache-first reads, background sync, optimistic
// writes, and pending-update reconciliation. It is the sole writer of
// the profile and pending slots in the device store; construct one
// instance per process and pass it to collaborators explicitly.
type Service struct {
	store   storage.Store
	remote  remote.ProfileStore
	logger  *zap.Logger
	metrics *observability.Metrics

	// mu guards cfg, which the config watcher may swap at runtime.
	mu  sync.RWMutex
	cfg Config

	// group coalesces background syncs so at most one refresh per user
	// id is in flight; concurrent triggers share its result.
	group singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

// NewService builds the cache service.
func NewService(store storage.Store, remoteStore remote.ProfileStore, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewTestMetrics()
	}
	return &Service{
		store:   store,
		remote:  remoteStore,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Tuning returns the current tuning constants.
func (s *Service) Tuning() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Retune swaps the tuning constants, e.g. after a config reload.
// Operations already in flight finish on the constants they started
// with.
func (s *Service) Retune(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.logger.Info("Cache tuning updated",
		zap.Duration("ttl", cfg.TTL),
		zap.Int("not_found_attempts", cfg.NotFoundAttempts))
}

// ReadResult is the outcome of a cache-first read.
type ReadResult struct {
	// Profile is nil only on the cold path when the remote fetch failed
	// entirely; the caller presents the error state.
	Profile *profile.Profile

	// IsFromCache flags provenance.
	IsFromCache bool

	// Sync is non-nil when a background refresh was started. It yields
	// the resolved server value, or nil when the refresh failed. The
	// caller may await it or ignore it.
	Sync <-chan *profile.Profile
}

// UpdateResult is the outcome of an optimistic update.
type UpdateResult struct {
	Success   bool             `json:"success"`
	Profile   *profile.Profile `json:"profile,omitempty"`
	IsOffline bool             `json:"is_offline"`
	Message   string           `json:"message,omitempty"`
}

// GetProfileFast returns a best-effort profile as fast as possible.
// With a decodable cache entry it never blocks on the network: the
// cached value is returned immediately (even when past TTL), and a
// background refresh is started when the entry has gone stale. Without
// one it performs a bounded remote fetch. This call never fails; total
// failure degrades to a nil profile.
func (s *Service) GetProfileFast(ctx context.Context, userID string) ReadResult {
	raw, found, err := s.store.Get(ctx, profileKey(userID))
	if err != nil {
		s.logger.Warn("Cache read failed, falling through to remote",
			zap.String("user_id", userID), zap.Error(err))
	}

	if err == nil && found {
		record, decodeErr := Decode[profile.Profile](raw)
		if decodeErr == nil {
			s.metrics.CacheHits.Inc()
			result := ReadResult{Profile: &record.Data, IsFromCache: true}
			if record.Age(s.now()) >= s.Tuning().TTL {
				result.Sync = s.backgroundSync(userID)
			}
			return result
		}
		// A corrupt entry behaves exactly like a miss.
		s.metrics.CacheDecodeFailures.Inc()
		s.logger.Warn("Cache entry undecodable, falling through to remote",
			zap.String("user_id", userID), zap.Error(decodeErr))
	}

	s.metrics.CacheMisses.Inc()

	fetched, fetchErr := s.Refresh(ctx, userID)
	if fetchErr != nil {
		s.metrics.RemoteFetches.WithLabelValues("failure").Inc()
		s.logger.Warn("Cold-path fetch failed",
			zap.String("user_id", userID), zap.Error(fetchErr))
		return ReadResult{Profile: nil, IsFromCache: false}
	}

	s.metrics.RemoteFetches.WithLabelValues("success").Inc()
	return ReadResult{Profile: fetched, IsFromCache: false}
}

// Refresh performs the bounded remote fetch: one retry on transient
// failure, a small bounded number of attempts on not-found (the profile
// row is created by an asynchronous trigger at registration and may not
// be visible yet), then terminal. A successful fetch overwrites the
// cache slot unconditionally, refreshing its timestamp.
func (s *Service) Refresh(ctx context.Context, userID string) (*profile.Profile, error) {
	cfg := s.Tuning()
	transientBudget := cfg.TransientAttempts
	notFoundBudget := cfg.NotFoundAttempts
	var lastErr error

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		fetched, err := s.remote.ReadByID(fetchCtx, userID)
		cancel()

		if err == nil {
			if saveErr := s.SaveToCache(ctx, userID, *fetched); saveErr != nil {
				s.logger.Warn("Fetched profile could not be cached",
					zap.String("user_id", userID), zap.Error(saveErr))
			}
			return fetched, nil
		}
		lastErr = err

		switch {
		case apperrors.IsNotFound(err):
			notFoundBudget--
			if notFoundBudget <= 0 {
				return nil, lastErr
			}
			if !sleepCtx(ctx, cfg.NotFoundRetryDelay) {
				return nil, ctx.Err()
			}
		case apperrors.IsOffline(err):
			transientBudget--
			if transientBudget <= 0 {
				return nil, lastErr
			}
		default:
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}

// backgroundSync attempts one bounded remote read without surfacing
// errors. On success the cache slot is overwritten with a fresh record;
// on timeout or error the slot is left untouched and the channel yields
// nil. There is no automatic retry: the next read decides.
func (s *Service) backgroundSync(userID string) <-chan *profile.Profile {
	out := make(chan *profile.Profile, 1)

	resultCh := s.group.DoChan(userID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.Tuning().SyncTimeout)
		defer cancel()

		fetched, err := s.remote.ReadByID(ctx, userID)
		if err != nil {
			s.metrics.BackgroundSyncs.WithLabelValues("failure").Inc()
			s.logger.Debug("Background sync failed",
				zap.String("user_id", userID), zap.Error(err))
			return (*profile.Profile)(nil), nil
		}

		if saveErr := s.SaveToCache(context.Background(), userID, *fetched); saveErr != nil {
			s.logger.Warn("Background sync could not write cache",
				zap.String("user_id", userID), zap.Error(saveErr))
		}
		s.metrics.BackgroundSyncs.WithLabelValues("success").Inc()
		return fetched, nil
	})

	go func() {
		result := <-resultCh
		if fetched, ok := result.Val.(*profile.Profile); ok {
			out <- fetched
			return
		}
		out <- nil
	}()

	return out
}

// UpdateProfile applies a partial patch, preferring immediate local
// consistency over remote confirmation. A remote failure still counts
// as success from the caller's perspective: the merged value is durable
// locally and queued for reconciliation, reported via IsOffline.
//
// The only hard failures are an empty or invalid patch and a missing
// cache baseline.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch profile.Patch) (UpdateResult, error) {
	if patch.IsZero() {
		return UpdateResult{}, apperrors.NewValidation("empty profile patch")
	}

	raw, found, err := s.store.Get(ctx, profileKey(userID))
	if err != nil {
		return UpdateResult{}, apperrors.Wrap(err, "read cache baseline")
	}
	if !found {
		return UpdateResult{}, apperrors.NewNoCachedProfile(userID)
	}
	record, decodeErr := Decode[profile.Profile](raw)
	if decodeErr != nil {
		// A corrupt baseline is no baseline.
		return UpdateResult{}, apperrors.NewNoCachedProfile(userID)
	}

	merged := record.Data
	patch.Apply(&merged)
	if err := merged.Validate(); err != nil {
		return UpdateResult{}, err
	}

	// Optimistic write: this is the value the UI sees immediately.
	if err := s.SaveToCache(ctx, userID, merged); err != nil {
		return UpdateResult{}, apperrors.Wrap(err, "write optimistic update")
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.Tuning().UpdateTimeout)
	serverRow, remoteErr := s.remote.Update(updateCtx, userID, patch)
	cancel()

	if remoteErr == nil {
		// The server's row is authoritative, e.g. its computed updated_at.
		if err := s.SaveToCache(ctx, userID, *serverRow); err != nil {
			s.logger.Warn("Server row could not be cached",
				zap.String("user_id", userID), zap.Error(err))
		}
		if err := s.clearPending(ctx, userID); err != nil {
			s.logger.Warn("Pending slot could not be cleared",
				zap.String("user_id", userID), zap.Error(err))
		}
		return UpdateResult{Success: true, Profile: serverRow}, nil
	}

	s.metrics.OfflineWrites.Inc()
	s.logger.Info("Remote update failed, queuing for later sync",
		zap.String("user_id", userID), zap.Error(remoteErr))
	if err := s.enqueuePending(ctx, userID, patch, s.now()); err != nil {
		s.logger.Error("Pending update could not be queued",
			zap.String("user_id", userID), zap.Error(err))
	}

	return UpdateResult{
		Success:   true,
		Profile:   &merged,
		IsOffline: true,
		Message:   "profile saved on this device; changes will sync when you're back online",
	}, nil
}

// SyncPendingUpdates flushes the user's queued write, if any. Invoked
// externally on reconnect or app foreground. On failure the pending
// slot is left intact; retry cadence is the caller's decision.
func (s *Service) SyncPendingUpdates(ctx context.Context, userID string) (bool, error) {
	pending, ok := s.loadPending(ctx, userID)
	if !ok {
		return true, nil
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.Tuning().UpdateTimeout)
	serverRow, err := s.remote.Update(updateCtx, userID, pending.Patch)
	cancel()

	if err != nil {
		s.metrics.PendingFlushes.WithLabelValues("failure").Inc()
		return false, apperrors.Wrap(err, "flush pending update")
	}

	if saveErr := s.SaveToCache(ctx, userID, *serverRow); saveErr != nil {
		s.logger.Warn("Reconciled row could not be cached",
			zap.String("user_id", userID), zap.Error(saveErr))
	}
	if clearErr := s.clearPending(ctx, userID); clearErr != nil {
		s.logger.Warn("Pending slot could not be cleared",
			zap.String("user_id", userID), zap.Error(clearErr))
	}

	s.metrics.PendingFlushes.WithLabelValues("success").Inc()
	return true, nil
}

// CreateProfile inserts the row at registration. A conflict means the
// row already exists (e.g. the registration trigger won the race), so
// the insert falls back to a read. The resulting row is cached.
func (s *Service) CreateProfile(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.Tuning().UpdateTimeout)
	row, err := s.remote.Insert(insertCtx, p)
	cancel()

	if err != nil {
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		return s.Refresh(ctx, p.ID)
	}

	if saveErr := s.SaveToCache(ctx, p.ID, *row); saveErr != nil {
		s.logger.Warn("Created profile could not be cached",
			zap.String("user_id", p.ID), zap.Error(saveErr))
	}
	return row, nil
}

// SaveToCache overwrites the user's cache slot with a fresh timestamp.
func (s *Service) SaveToCache(ctx context.Context, userID string, p profile.Profile) error {
	raw, err := Encode(p, s.now())
	if err != nil {
		return err
	}
	return s.store.Set(ctx, profileKey(userID), raw)
}

// HasPendingUpdate reports whether an unsynced write is queued.
func (s *Service) HasPendingUpdate(ctx context.Context, userID string) bool {
	_, ok := s.loadPending(ctx, userID)
	return ok
}

// ClearCache drops the user's cache and pending slots.
func (s *Service) ClearCache(ctx context.Context, userID string) error {
	if err := s.store.Remove(ctx, profileKey(userID)); err != nil {
		return err
	}
	return s.clearPending(ctx, userID)
}

// ClearAllCaches drops every slot in this service's namespaces,
// leaving unrelated stored keys alone.
func (s *Service) ClearAllCaches(ctx context.Context) error {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return apperrors.Wrap(err, "scan store keys")
	}
	for _, key := range keys {
		if !ownsKey(key) {
			continue
		}
		if err := s.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// sleepCtx waits for d, returning false when the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
