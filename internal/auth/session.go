// Package auth owns the session lifecycle against the hosted auth
// provider and warms the profile cache when a user signs in.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/gotrue-go/types"
	"go.uber.org/zap"

	"hydrosnap-client/internal/cache"
	apperrors "hydrosnap-client/pkg/errors"
)

// gotrueAPI is the slice of the auth provider's client this package
// uses; gotrue.Client satisfies it.
type gotrueAPI interface {
	SignInWithEmailPassword(email, password string) (*types.TokenResponse, error)
	RefreshToken(refreshToken string) (*types.TokenResponse, error)
	OTP(req types.OTPRequest) error
	VerifyForUser(req types.VerifyForUserRequest) (*types.VerifyForUserResponse, error)
}

// Session is the locally held view of an authenticated session.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Manager owns the current session and invokes the profile cache on
// login and refresh. One instance per process, passed explicitly to
// collaborators.
type Manager struct {
	api      gotrueAPI
	profiles *cache.Service
	logger   *zap.Logger

	// refreshLeeway is how long before token expiry a refresh is due.
	refreshLeeway time.Duration

	mu      sync.RWMutex
	current *Session
}

// NewManager builds a session manager on top of the auth provider.
func NewManager(api gotrueAPI, profiles *cache.Service, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:           api,
		profiles:      profiles,
		logger:        logger,
		refreshLeeway: 60 * time.Second,
	}
}

// SignInWithPassword authenticates with email and password, then warms
// the profile cache and flushes any queued offline writes; a fresh
// sign-in is the strongest reconnect signal this process gets.
func (m *Manager) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.api.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, apperrors.NewNetwork("sign in failed", err)
	}
	return m.adoptSession(ctx, resp.Session), nil
}

// RequestOTP asks the provider to send a one-time code to the email.
// Issuance and delivery are entirely the provider's concern.
func (m *Manager) RequestOTP(email string) error {
	shouldCreateUser := true
	if err := m.api.OTP(types.OTPRequest{Email: email, CreateUser: shouldCreateUser}); err != nil {
		return apperrors.NewNetwork("otp request failed", err)
	}
	return nil
}

// VerifyOTP exchanges an emailed one-time code for a session.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	// Email OTP codes verify as magiclink tokens on the provider side.
	resp, err := m.api.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationTypeMagiclink,
		Token: code,
		Email: email,
	})
	if err != nil {
		return nil, apperrors.NewNetwork("otp verification failed", err)
	}
	return m.adoptSession(ctx, resp.Session), nil
}

// Refresh exchanges the refresh token for a new session.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current == nil {
		return nil, apperrors.NewValidation("no session to refresh")
	}

	resp, err := m.api.RefreshToken(current.RefreshToken)
	if err != nil {
		return nil, apperrors.NewNetwork("session refresh failed", err)
	}
	return m.adoptSession(ctx, resp.Session), nil
}

// Current returns a copy of the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	session := *m.current
	return &session
}

// NeedsRefresh reports whether the access token expires within the
// refresh leeway.
func (m *Manager) NeedsRefresh(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return false
	}
	return now.After(m.current.ExpiresAt.Add(-m.refreshLeeway))
}

// SignOut drops the local session and the user's cached slots. Token
// revocation on the provider side is the app shell's concern.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current == nil {
		return nil
	}
	return m.profiles.ClearCache(ctx, current.UserID)
}

// adoptSession records the provider session and performs the login-time
// cache work. Cache failures never fail the sign-in.
func (m *Manager) adoptSession(ctx context.Context, s types.Session) *Session {
	session := &Session{
		UserID:       s.User.ID.String(),
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    tokenExpiry(s.AccessToken, s.ExpiresIn),
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	result := m.profiles.GetProfileFast(ctx, session.UserID)
	if result.Profile == nil {
		m.logger.Warn("Profile unavailable at sign-in",
			zap.String("user_id", session.UserID))
	}

	if synced, err := m.profiles.SyncPendingUpdates(ctx, session.UserID); err != nil {
		m.logger.Info("Pending updates not flushed at sign-in",
			zap.String("user_id", session.UserID), zap.Error(err))
	} else if synced {
		m.logger.Debug("Pending updates reconciled at sign-in",
			zap.String("user_id", session.UserID))
	}

	return session
}

// tokenExpiry reads the access token's exp claim without verifying the
// signature (the provider signed it; this process only schedules the
// refresh). Falls back to the advertised lifetime when parsing fails.
func tokenExpiry(accessToken string, expiresIn int) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil {
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
