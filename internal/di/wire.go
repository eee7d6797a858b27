//go:build wireinject
// +build wireinject

package di

import (
	"SymDir/pkg/config"
	"SymDir/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup closes the store and broadcaster connections.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideInstanceID,

		// Infrastructure
		ProvideInstrumentStore,
		ProvideBroadcaster,

		// Cache and use cases
		ProvideCacheLayer,
		ProvideSymbolService,
		ProvideInvalidationHandler,

		// HTTP
		ProvideRateLimiter,
		ProvideSymbolsHandler,
		ProvideHTTPServer,

		// Background jobs
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
