package remote

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"hydrosnap-client/internal/domain/profile"
	apperrors "hydrosnap-client/pkg/errors"
)

// BreakerConfig holds configuration for the remote-store circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ReadyToTrip inputs
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "remote-profiles",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerStore decorates a ProfileStore with a circuit breaker so that
// a device that has been offline for a while short-circuits remote
// attempts instead of burning the full timeout budget on each call.
type BreakerStore struct {
	inner  ProfileStore
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerStore wraps the inner store with a circuit breaker.
func NewBreakerStore(inner ProfileStore, config BreakerConfig, logger *zap.Logger) *BreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Remote store circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Not-found and conflict responses prove the store is reachable;
		// only offline-class failures count against the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsOffline(err)
		},
	})

	return &BreakerStore{inner: inner, cb: cb, logger: logger}
}

// mapBreakerError converts gobreaker's open-circuit sentinels into the
// network error class the cache service already handles as offline.
func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewNetwork("remote store circuit open", err)
	}
	return err
}

func (b *BreakerStore) ReadByID(ctx context.Context, id string) (*profile.Profile, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.ReadByID(ctx, id)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return v.(*profile.Profile), nil
}

func (b *BreakerStore) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.Update(ctx, id, patch)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return v.(*profile.Profile), nil
}

func (b *BreakerStore) Insert(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.Insert(ctx, p)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return v.(*profile.Profile), nil
}

func (b *BreakerStore) UploadAvatar(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.UploadAvatar(ctx, userID, filename, data, contentType)
	})
	if err != nil {
		return "", mapBreakerError(err)
	}
	return v.(string), nil
}
