package di

import (
	"context"

	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/identity"
	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/application/services"
	syncapp "github.com/thisisbariii/work/application/sync"
	"github.com/thisisbariii/work/infrastructure/config"
	"github.com/thisisbariii/work/infrastructure/connectivity"
	"github.com/thisisbariii/work/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Identity     *identity.Manager
	Queue        *offline.Queue
	Service      *services.ShareService
	Coordinator  *syncapp.Coordinator
	Connectivity *connectivity.Monitor
	Metrics      *observability.Collector
}

// NewContainer wires the full dependency graph by hand. The location
// resolver is supplied by the embedding app; everything else is built
// from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, location ports.LocationResolver) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dynamoClient := ProvideDynamoDBClient(awsCfg)

	store, err := ProvideDeviceStore(cfg)
	if err != nil {
		return nil, err
	}

	clock := ProvideClock()
	metrics := ProvideMetrics()
	breaker := ProvideBreaker(logger)

	posts := ProvidePostRepository(dynamoClient, cfg, breaker, logger)
	moods := ProvideMoodRepository(dynamoClient, cfg, breaker, logger)
	likes := ProvideLikeRepository(dynamoClient, cfg, breaker, clock, logger)
	auth := ProvideAuthGateway(dynamoClient, cfg, breaker, clock, logger)

	identityMgr := ProvideIdentityManager(store, auth, logger, clock, metrics)
	localCache := ProvideLocalCache(store, cfg, logger, metrics)
	queue := ProvideQueue(store, cfg, logger, clock, metrics)
	assembler := ProvideAssembler(posts, localCache, cfg, logger, metrics)
	validator := ProvideValidator()

	service := ProvideShareService(identityMgr, localCache, queue, assembler, validator, location, posts, moods, likes, logger, clock, metrics)
	exec := ProvideDrainExecutor(posts, moods, likes)

	monitor := ProvideConnectivityMonitor(dynamoClient, cfg, logger)
	coordinator := ProvideCoordinator(queue, exec, monitor, service, cfg, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Identity:     identityMgr,
		Queue:        queue,
		Service:      service,
		Coordinator:  coordinator,
		Connectivity: monitor,
		Metrics:      metrics,
	}, nil
}

// Start begins connectivity monitoring and the sync coordinator,
// including the startup drain of writes queued in a previous run.
func (c *Container) Start(ctx context.Context) {
	c.Connectivity.Start(ctx)
	c.Coordinator.Start(ctx)
}

// Stop shuts the coordinator and monitor down.
func (c *Container) Stop() {
	c.Coordinator.Stop()
	c.Connectivity.Stop()
}
