// Package di wires the sync core's components together with Wire.
package di

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"hydrosnap-client/internal/auth"
	"hydrosnap-client/internal/cache"
	"hydrosnap-client/internal/config"
	"hydrosnap-client/internal/handlers"
	"hydrosnap-client/internal/observability"
	"hydrosnap-client/internal/remote"
	"hydrosnap-client/internal/storage"
)

// App is the assembled sync core daemon.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Server   *http.Server
	Profiles *cache.Service
	Sessions *auth.Manager
	Watcher  *config.Watcher
}

func provideConfig(path string) (config.Config, error) {
	return config.Load(path)
}

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	var logger *zap.Logger
	var err error
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	cleanup := func() { _ = logger.Sync() }
	return logger, cleanup, nil
}

func provideStore(cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	return storage.NewFileStore(cfg.Storage.DataDir, logger)
}

func provideSupabaseClient(cfg config.Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}

func provideRemoteStore(client *supabase.Client, cfg config.Config, logger *zap.Logger) remote.ProfileStore {
	inner := remote.NewSupabaseStore(client, remote.SupabaseConfig{
		URL:          cfg.Supabase.URL,
		ProfileTable: cfg.Supabase.ProfileTable,
		AvatarBucket: cfg.Supabase.AvatarBucket,
	}, logger)
	return remote.NewBreakerStore(inner, remote.DefaultBreakerConfig(), logger)
}

func provideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

func provideMetrics(registry *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(registry)
}

func provideCacheConfig(cfg config.Config) cache.Config {
	return cache.Config{
		TTL:                cfg.Cache.TTL,
		SyncTimeout:        cfg.Cache.SyncTimeout,
		FetchTimeout:       cfg.Cache.FetchTimeout,
		UpdateTimeout:      cfg.Cache.UpdateTimeout,
		NotFoundAttempts:   cfg.Cache.NotFoundAttempts,
		NotFoundRetryDelay: cfg.Cache.NotFoundRetryDelay,
		TransientAttempts:  cfg.Cache.TransientAttempts,
	}
}

func provideCacheService(store storage.Store, remoteStore remote.ProfileStore, cacheCfg cache.Config, metrics *observability.Metrics, logger *zap.Logger) *cache.Service {
	return cache.NewService(store, remoteStore, cacheCfg, metrics, logger)
}

// provideWatcher hot-reloads the config file in development and feeds
// fresh cache tuning into the running service. Inert in production.
func provideWatcher(configPath string, cfg config.Config, profiles *cache.Service, logger *zap.Logger) (*config.Watcher, func(), error) {
	watcher, err := config.NewWatcher(cfg, configPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start config watcher: %w", err)
	}
	watcher.OnChange(func(fresh config.Config) {
		profiles.Retune(provideCacheConfig(fresh))
	})
	return watcher, watcher.Stop, nil
}

func provideSessionManager(client *supabase.Client, profiles *cache.Service, logger *zap.Logger) *auth.Manager {
	return auth.NewManager(client.Auth, profiles, logger)
}

func provideRouter(profiles *cache.Service, remoteStore remote.ProfileStore, sessions *auth.Manager, registry *prometheus.Registry, cfg config.Config, logger *zap.Logger) http.Handler {
	profileHandler := handlers.NewProfileHandler(profiles, remoteStore, logger)
	sessionHandler := handlers.NewSessionHandler(sessions, logger)
	return handlers.NewRouter(profileHandler, sessionHandler, registry, cfg.HTTP.RequestTimeout, logger)
}

func provideServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func provideApp(cfg config.Config, logger *zap.Logger, server *http.Server, profiles *cache.Service, sessions *auth.Manager, watcher *config.Watcher) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Server:   server,
		Profiles: profiles,
		Sessions: sessions,
		Watcher:  watcher,
	}
}
