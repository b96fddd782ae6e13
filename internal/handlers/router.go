package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hydrosnap-client/internal/middleware"
	"hydrosnap-client/pkg/api"
)

// NewRouter wires the loopback facade.
func NewRouter(profiles *ProfileHandler, sessions *SessionHandler, registry *prometheus.Registry, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(requestTimeout, logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/", sessions.SignIn)
			r.Get("/", sessions.Current)
			r.Delete("/", sessions.SignOut)
			r.Post("/otp", sessions.RequestOTP)
			r.Post("/verify", sessions.VerifyOTP)
			r.Post("/refresh", sessions.Refresh)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", profiles.Create)
			r.Get("/{userID}", profiles.Get)
			r.Patch("/{userID}", profiles.Update)
			r.Post("/{userID}/sync", profiles.Sync)
			r.Post("/{userID}/avatar", profiles.UploadAvatar)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Delete("/", profiles.ClearAllCaches)
			r.Delete("/{userID}", profiles.ClearCache)
		})
	})

	return r
}
