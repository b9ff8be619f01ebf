//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideClock,
	ProvideMetrics,
	ProvideDeviceStore,
	ProvideBreaker,
	ProvidePostRepository,
	ProvideMoodRepository,
	ProvideLikeRepository,
	ProvideAuthGateway,
	ProvideConnectivityMonitor,
	ProvideIdentityManager,
	ProvideLocalCache,
	ProvideQueue,
	ProvideAssembler,
	ProvideValidator,
	ProvideDrainExecutor,
	ProvideShareService,
	ProvideCoordinator,
	wire.Struct(new(Container), "Config", "Logger", "Identity", "Queue", "Service", "Coordinator", "Connectivity", "Metrics"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config, location ports.LocationResolver) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
