//go:build wireinject
// +build wireinject

package di

import (
	"SegPull/pkg/config"
	"SegPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup releases the cache store; call it after app.Close.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Storage and upstream
		ProvideCacheStore,
		ProvideReportClient,
		ProvideReportFetcher,

		// Record sinks
		ProvideRecordSinks,

		// Use cases
		ProvideNormalizer,
		ProvideSegmentExporter,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
