//go:build wireinject
// +build wireinject

package di

import (
	"FinValue/internal/usecase"
	"FinValue/pkg/config"
	"FinValue/pkg/server"

	"github.com/google/wire"
)

var sourceSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,

	// Infrastructure clients
	ProvideCache,
	ProvideReportPublisher,

	// Data sources
	ProvideFundamentalsSource,
	ProvideProfileSource,
	ProvideQuoteSource,

	// Use cases
	ProvideValuationDefaults,
	ProvideValuationUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		sourceSet,
		ProvideFundamentalsUseCase,
		ProvideRateLimiter,

		// HTTP
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}

// InitializeValuation wires the valuation use case alone for the CLI.
func InitializeValuation(cfg *config.Config) (*usecase.ValuationUseCase, func(), error) {
	wire.Build(sourceSet)
	return &usecase.ValuationUseCase{}, nil, nil
}
