package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"hydrosnap-client/internal/auth"
	"hydrosnap-client/pkg/api"
	apperrors "hydrosnap-client/pkg/errors"
)

// SessionHandler serves sign-in, OTP, refresh, and sign-out.
type SessionHandler struct {
	sessions *auth.Manager
	logger   *zap.Logger
}

// NewSessionHandler builds the session handler.
func NewSessionHandler(sessions *auth.Manager, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

type passwordSignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SignIn serves POST /v1/session.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req passwordSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid sign-in body")
		return
	}
	if req.Email == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.sessions.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	api.Success(w, http.StatusOK, session)
}

// RequestOTP serves POST /v1/session/otp.
func (h *SessionHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		api.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.sessions.RequestOTP(req.Email); err != nil {
		writeSessionError(w, err)
		return
	}
	api.Success(w, http.StatusAccepted, map[string]string{"status": "code sent"})
}

// VerifyOTP serves POST /v1/session/verify.
func (h *SessionHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		api.Error(w, http.StatusBadRequest, "email and code are required")
		return
	}

	session, err := h.sessions.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	api.Success(w, http.StatusOK, session)
}

// Refresh serves POST /v1/session/refresh.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Refresh(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	api.Success(w, http.StatusOK, session)
}

// SignOut serves DELETE /v1/session.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// Current serves GET /v1/session.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Current()
	if session == nil {
		api.Error(w, http.StatusNotFound, "no active session")
		return
	}
	api.Success(w, http.StatusOK, session)
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		api.Error(w, http.StatusBadRequest, err.Error())
	case apperrors.IsOffline(err):
		api.Error(w, http.StatusBadGateway, err.Error())
	default:
		api.Error(w, http.StatusInternalServerError, "internal error")
	}
}
