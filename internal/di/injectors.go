//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"statpulse/internal"
	"statpulse/internal/clock"
	"statpulse/internal/controllers"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/statistic"
	"statpulse/internal/structures"
)

var baseSet = wire.NewSet(
	providers.NewConfigProvider,
	providers.NewLogProvider,
	providers.NewMetricsProvider,
	clock.New,
)

func InitSinkApp(cfg *structures.CliFlags) (*internal.SinkApp, error) {

	wire.Build(
		baseSet,
		providers.NewInstrumentedCacheProvider,

		services.NewSinkService,
		statistic.NewZstdCompressor,
		statistic.NewFileManager,
		statistic.NewScheduler,
		controllers.NewSinkController,
		controllers.NewSinkHealthController,
		controllers.NewStatusBroadcaster,
		internal.InitSinkRoutes,
		internal.NewSinkApp,
	)

	return nil, nil
}

func InitAgentApp(cfg *structures.CliFlags) (*internal.AgentApp, error) {

	wire.Build(
		baseSet,

		services.NewSinkTransport,
		services.NewEngineService,
		controllers.NewAgentController,
		controllers.NewAgentHealthController,
		internal.InitAgentRoutes,
		internal.NewAgentApp,
	)

	return nil, nil
}
