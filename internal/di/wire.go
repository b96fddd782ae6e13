//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
)

// InitializeApp builds the full sync core from the config file path.
func InitializeApp(configPath string) (*App, func(), error) {
	panic(wire.Build(
		provideConfig,
		provideLogger,
		provideStore,
		provideSupabaseClient,
		provideRemoteStore,
		provideRegistry,
		provideMetrics,
		provideCacheConfig,
		provideCacheService,
		provideWatcher,
		provideSessionManager,
		provideRouter,
		provideServer,
		provideApp,
	))
}
