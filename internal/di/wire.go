//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CascadeWatch/pkg/config"
	"CascadeWatch/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvidePromRegistry,
		ProvideRecorder,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideStatusCache,
		ProvideStatusStore,
		ProvideTransitionStore,
		ProvidePersistQueue,
		ProvideTransitionQueue,
		ProvideStatusPublisher,
		ProvideHistoryCache,

		// Use cases
		ProvideRegistry,
		ProvideHub,
		ProvideStatusBroadcaster,
		ProvideTickProcessor,
		ProvideTickPipeline,
		ProvideKafkaTicksHandler,
		ProvideTickCollector,
		ProvideControl,
		ProvideTradeGate,
		ProvideTransitionsUseCase,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
