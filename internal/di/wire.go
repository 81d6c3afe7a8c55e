//go:build wireinject
// +build wireinject

package di

import (
	pkgcache "CandlePull/pkg/cache"
	"CandlePull/pkg/config"
	"CandlePull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		wire.Bind(new(pkgcache.Service), new(*pkgcache.RedisCache)),
		ProvideHTTPClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and broker clients
		ProvideTokenStore,
		ProvideFetchLog,
		ProvideLocker,
		ProvideTokenRenewer,
		ProvideMarketData,
		ProvideCandleWriter,
		ProvideCandlePublisher,

		// Use cases
		ProvideTokenRefresher,
		ProvideCandlePersister,
		ProvideCandleFetcher,
		ProvideScheduler,
		ProvideFetchJobsHandler,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
