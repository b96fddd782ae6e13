// Package handlers exposes the sync core to the app shell over a
// loopback HTTP facade.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hydrosnap-client/internal/cache"
	"hydrosnap-client/internal/domain/profile"
	"hydrosnap-client/internal/domain/roles"
	"hydrosnap-client/internal/remote"
	"hydrosnap-client/pkg/api"
	apperrors "hydrosnap-client/pkg/errors"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// ProfileHandler serves profile reads, optimistic updates, pending
// reconciliation, avatar uploads, and cache management.
type ProfileHandler struct {
	profiles *cache.Service
	remote   remote.ProfileStore
	logger   *zap.Logger
}

// NewProfileHandler builds the profile handler.
func NewProfileHandler(profiles *cache.Service, remoteStore remote.ProfileStore, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{profiles: profiles, remote: remoteStore, logger: logger}
}

// profileResponse is the facade's read envelope.
type profileResponse struct {
	Profile     *profile.Profile `json:"profile"`
	IsFromCache bool             `json:"is_from_cache"`
	SyncStarted bool             `json:"sync_started"`
	HasPending  bool             `json:"has_pending_update"`
	Permissions []string         `json:"permissions,omitempty"`
}

// Get serves GET /v1/profiles/{userID}: the cache-first read. A total
// miss is reported as 404 but the call itself never errors out.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	result := h.profiles.GetProfileFast(r.Context(), userID)
	if result.Profile == nil {
		api.Error(w, http.StatusNotFound, "profile unavailable: not cached and remote fetch failed")
		return
	}

	resp := profileResponse{
		Profile:     result.Profile,
		IsFromCache: result.IsFromCache,
		SyncStarted: result.Sync != nil,
		HasPending:  h.profiles.HasPendingUpdate(r.Context(), userID),
	}
	for _, p := range roles.PermissionsFor(result.Profile.Role) {
		resp.Permissions = append(resp.Permissions, string(p))
	}
	api.Success(w, http.StatusOK, resp)
}

// Update serves PATCH /v1/profiles/{userID}: the optimistic update.
// The response is 200 with is_offline=true when the write was queued.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	var patch profile.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid patch body")
		return
	}

	result, err := h.profiles.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		writeAppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// Create serves POST /v1/profiles: the registration-time insert.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid profile body")
		return
	}

	created, err := h.profiles.CreateProfile(r.Context(), p)
	if err != nil {
		writeAppError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, created)
}

// Sync serves POST /v1/profiles/{userID}/sync: flush the pending slot.
// The facade is the reconnect-triggered entry point, so unlike the
// service it wraps the flush in one short backoff round.
func (h *ProfileHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	retryCfg := remote.RetryConfig{
		MaxAttempts:   2,
		BaseDelay:     250 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}

	var synced bool
	err := remote.RetryWithBackoff(r.Context(), retryCfg, func() error {
		var flushErr error
		synced, flushErr = h.profiles.SyncPendingUpdates(r.Context(), userID)
		return flushErr
	})
	if err != nil {
		h.logger.Info("Pending flush failed",
			zap.String("user_id", userID), zap.Error(err))
		api.Success(w, http.StatusOK, map[string]bool{"synced": false})
		return
	}
	api.Success(w, http.StatusOK, map[string]bool{"synced": synced})
}

// UploadAvatar serves POST /v1/profiles/{userID}/avatar: stores the
// image remotely and patches avatar_url through the optimistic path.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.remote.UploadAvatar(r.Context(), userID, header.Filename, file, contentType)
	if err != nil {
		writeAppError(w, err)
		return
	}

	result, err := h.profiles.UpdateProfile(r.Context(), userID, profile.Patch{AvatarURL: &url})
	if err != nil {
		writeAppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// ClearCache serves DELETE /v1/cache/{userID}.
func (h *ProfileHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.profiles.ClearCache(r.Context(), userID); err != nil {
		writeAppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// ClearAllCaches serves DELETE /v1/cache.
func (h *ProfileHandler) ClearAllCaches(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.ClearAllCaches(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// writeAppError maps the error taxonomy onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		api.Error(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err), apperrors.IsNoCachedProfile(err):
		api.Error(w, http.StatusNotFound, err.Error())
	case apperrors.IsConflict(err):
		api.Error(w, http.StatusConflict, err.Error())
	case apperrors.IsTimeout(err):
		api.Error(w, http.StatusGatewayTimeout, err.Error())
	case apperrors.IsNetwork(err):
		api.Error(w, http.StatusBadGateway, err.Error())
	default:
		api.Error(w, http.StatusInternalServerError, "internal error")
	}
}
