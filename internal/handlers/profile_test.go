package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hydrosnap-client/internal/cache"
	"hydrosnap-client/internal/domain/profile"
	"hydrosnap-client/internal/storage"
	apperrors "hydrosnap-client/pkg/errors"
)

type stubRemote struct {
	readFn   func(ctx context.Context, id string) (*profile.Profile, error)
	updateFn func(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error)
	insertFn func(ctx context.Context, p profile.Profile) (*profile.Profile, error)
	uploadFn func(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error)
}

func (s *stubRemote) ReadByID(ctx context.Context, id string) (*profile.Profile, error) {
	if s.readFn == nil {
		return nil, apperrors.NewNotFound("no row for " + id)
	}
	return s.readFn(ctx, id)
}

func (s *stubRemote) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	if s.updateFn == nil {
		return nil, apperrors.NewNetwork("no route to host", nil)
	}
	return s.updateFn(ctx, id, patch)
}

func (s *stubRemote) Insert(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	if s.insertFn == nil {
		return nil, apperrors.NewNetwork("no route to host", nil)
	}
	return s.insertFn(ctx, p)
}

func (s *stubRemote) UploadAvatar(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error) {
	if s.uploadFn == nil {
		return "", apperrors.NewNetwork("no route to host", nil)
	}
	return s.uploadFn(ctx, userID, filename, data, contentType)
}

func testProfile(id string) profile.Profile {
	return profile.Profile{
		ID:       id,
		Email:    "user@example.org",
		FullName: "Test User",
		Role:     profile.RoleSupervisor,
	}
}

func newFacade(t *testing.T, remoteStub *stubRemote) (http.Handler, *cache.Service) {
	t.Helper()
	cfg := cache.DefaultConfig()
	cfg.NotFoundRetryDelay = time.Millisecond
	service := cache.NewService(storage.NewMemoryStore(), remoteStub, cfg, nil, zap.NewNop())
	handler := NewProfileHandler(service, remoteStub, zap.NewNop())
	router := NewRouter(handler, NewSessionHandler(nil, zap.NewNop()), prometheus.NewRegistry(), 5*time.Second, zap.NewNop())
	return router, service
}

func TestGetProfile_ServesCachedValue(t *testing.T) {
	// Arrange
	router, service := newFacade(t, &stubRemote{})
	p := testProfile("u1")
	require.NoError(t, service.SaveToCache(context.Background(), "u1", p))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/profiles/u1", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var resp profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsFromCache)
	assert.Equal(t, "Test User", resp.Profile.FullName)
	assert.Contains(t, resp.Permissions, "validate_readings")
}

func TestGetProfile_TotalMissIs404(t *testing.T) {
	// Arrange
	router, _ := newFacade(t, &stubRemote{
		readFn: func(ctx context.Context, id string) (*profile.Profile, error) {
			return nil, apperrors.NewNetwork("no route to host", nil)
		},
	})
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/profiles/u404", nil))

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchProfile_OfflineStillSucceeds(t *testing.T) {
	// Arrange
	router, service := newFacade(t, &stubRemote{})
	require.NoError(t, service.SaveToCache(context.Background(), "u1", testProfile("u1")))
	body := strings.NewReader(`{"location":"Gauge 4"}`)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/profiles/u1", body))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var result cache.UpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.True(t, result.IsOffline)
	assert.Equal(t, "Gauge 4", *result.Profile.Location)
}

func TestPatchProfile_WithoutBaselineIs404(t *testing.T) {
	// Arrange
	router, _ := newFacade(t, &stubRemote{})
	body := strings.NewReader(`{"location":"Gauge 4"}`)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/profiles/u1", body))

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchProfile_EmptyPatchIs400(t *testing.T) {
	// Arrange
	router, service := newFacade(t, &stubRemote{})
	require.NoError(t, service.SaveToCache(context.Background(), "u1", testProfile("u1")))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/profiles/u1", strings.NewReader(`{}`)))

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSync_FlushesQueuedWrite(t *testing.T) {
	// Arrange
	remoteStub := &stubRemote{}
	router, service := newFacade(t, remoteStub)
	baseline := testProfile("u1")
	require.NoError(t, service.SaveToCache(context.Background(), "u1", baseline))

	// Queue a write offline.
	_, err := service.UpdateProfile(context.Background(), "u1", profile.Patch{Location: strPtr("Gauge 7")})
	require.NoError(t, err)
	require.True(t, service.HasPendingUpdate(context.Background(), "u1"))

	// Back online.
	remoteStub.updateFn = func(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
		merged := baseline
		patch.Apply(&merged)
		return &merged, nil
	}
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/profiles/u1/sync", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"synced":true}`, rec.Body.String())
	assert.False(t, service.HasPendingUpdate(context.Background(), "u1"))
}

func TestSync_StillOfflineReportsFalse(t *testing.T) {
	// Arrange
	router, service := newFacade(t, &stubRemote{})
	require.NoError(t, service.SaveToCache(context.Background(), "u1", testProfile("u1")))
	_, err := service.UpdateProfile(context.Background(), "u1", profile.Patch{Location: strPtr("Gauge 7")})
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/profiles/u1/sync", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"synced":false}`, rec.Body.String())
	assert.True(t, service.HasPendingUpdate(context.Background(), "u1"))
}

func TestUploadAvatar_PatchesAvatarURL(t *testing.T) {
	// Arrange
	remoteStub := &stubRemote{
		uploadFn: func(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error) {
			return "https://cdn.example.org/avatars/u1/" + filename, nil
		},
	}
	router, service := newFacade(t, remoteStub)
	baseline := testProfile("u1")
	require.NoError(t, service.SaveToCache(context.Background(), "u1", baseline))
	remoteStub.updateFn = func(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
		merged := baseline
		patch.Apply(&merged)
		return &merged, nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "face.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/profiles/u1/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var result cache.UpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Profile.AvatarURL)
	assert.Equal(t, "https://cdn.example.org/avatars/u1/face.png", *result.Profile.AvatarURL)
}

func TestClearCache_DropsUserSlots(t *testing.T) {
	// Arrange
	router, service := newFacade(t, &stubRemote{})
	require.NoError(t, service.SaveToCache(context.Background(), "u1", testProfile("u1")))
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/cache/u1", nil))

	// Assert
	assert.Equal(t, http.StatusNoContent, rec.Code)
	fresh := service.GetProfileFast(context.Background(), "u1")
	assert.Nil(t, fresh.Profile)
}

func TestHealth(t *testing.T) {
	router, _ := newFacade(t, &stubRemote{})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func strPtr(s string) *string { return &s }
