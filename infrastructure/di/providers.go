package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/cache"
	"github.com/thisisbariii/work/application/feed"
	"github.com/thisisbariii/work/application/identity"
	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/application/services"
	syncapp "github.com/thisisbariii/work/application/sync"
	"github.com/thisisbariii/work/domain/core/validators"
	"github.com/thisisbariii/work/infrastructure/config"
	"github.com/thisisbariii/work/infrastructure/connectivity"
	dynamostore "github.com/thisisbariii/work/infrastructure/persistence/dynamodb"
	redisstore "github.com/thisisbariii/work/infrastructure/persistence/redis"
	"github.com/thisisbariii/work/infrastructure/resilience"
	"github.com/thisisbariii/work/pkg/observability"
	"github.com/thisisbariii/work/pkg/utils"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideClock provides the system clock
func ProvideClock() utils.Clock {
	return utils.SystemClock{}
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("feelings")
}

// ProvideDeviceStore creates the device-local store
func ProvideDeviceStore(cfg *config.Config) (ports.DeviceStore, error) {
	return redisstore.NewDeviceStore(cfg.RedisURL, cfg.KeyPrefix)
}

// ProvideBreaker creates the shared circuit breaker for remote calls
func ProvideBreaker(logger *zap.Logger) *resilience.Breaker {
	return resilience.NewBreaker(resilience.DefaultBreakerConfig("remote-store"), logger)
}

// ProvidePostRepository creates the post repository behind the breaker
func ProvidePostRepository(client *awsdynamodb.Client, cfg *config.Config, breaker *resilience.Breaker, logger *zap.Logger) ports.PostRepository {
	indexes := dynamostore.TierIndexes{
		City:    cfg.CityIndexName,
		State:   cfg.StateIndexName,
		Country: cfg.CountryIndexName,
		Global:  cfg.GlobalIndexName,
	}
	return breaker.WrapPosts(dynamostore.NewPostRepository(client, cfg.DynamoDBTable, indexes, logger))
}

// ProvideMoodRepository creates the mood repository behind the breaker
func ProvideMoodRepository(client *awsdynamodb.Client, cfg *config.Config, breaker *resilience.Breaker, logger *zap.Logger) ports.MoodRepository {
	return breaker.WrapMoods(dynamostore.NewMoodRepository(client, cfg.DynamoDBTable, logger))
}

// ProvideLikeRepository creates the like repository behind the breaker
func ProvideLikeRepository(client *awsdynamodb.Client, cfg *config.Config, breaker *resilience.Breaker, clock utils.Clock, logger *zap.Logger) ports.LikeRepository {
	return breaker.WrapLikes(dynamostore.NewLikeRepository(client, cfg.DynamoDBTable, clock, logger))
}

// ProvideAuthGateway creates the session store behind the breaker
func ProvideAuthGateway(client *awsdynamodb.Client, cfg *config.Config, breaker *resilience.Breaker, clock utils.Clock, logger *zap.Logger) ports.AuthGateway {
	return breaker.WrapAuth(dynamostore.NewSessionStore(client, cfg.DynamoDBTable, cfg.AuthWaitTimeout, clock, logger))
}

// ProvideConnectivityMonitor creates the connectivity monitor probing the
// remote store endpoint
func ProvideConnectivityMonitor(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *connectivity.Monitor {
	probe := func(ctx context.Context) error {
		_, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
			TableName: aws.String(cfg.DynamoDBTable),
		})
		return err
	}
	return connectivity.NewMonitor(probe, cfg.ConnectivityInterval, logger)
}

// ProvideIdentityManager creates the identity manager
func ProvideIdentityManager(store ports.DeviceStore, auth ports.AuthGateway, logger *zap.Logger, clock utils.Clock, metrics *observability.Collector) *identity.Manager {
	return identity.NewManager(store, auth, logger, clock, metrics)
}

// ProvideLocalCache creates the device-local cache
func ProvideLocalCache(store ports.DeviceStore, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *cache.LocalCache {
	return cache.NewLocalCache(store, logger, metrics, cfg.GlobalCacheSize)
}

// ProvideQueue creates the offline write queue
func ProvideQueue(store ports.DeviceStore, cfg *config.Config, logger *zap.Logger, clock utils.Clock, metrics *observability.Collector) *offline.Queue {
	return offline.NewQueue(store, logger, clock, metrics, cfg.QueueMaxAttempts)
}

// ProvideAssembler creates the feed assembler
func ProvideAssembler(posts ports.PostRepository, localCache *cache.LocalCache, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *feed.Assembler {
	return feed.NewAssembler(posts, localCache, logger, metrics, cfg.FeedPageSize)
}

// ProvideValidator creates the payload validator
func ProvideValidator() *validators.PayloadValidator {
	return validators.NewPayloadValidator()
}

// ProvideDrainExecutor creates the queue drain executor
func ProvideDrainExecutor(posts ports.PostRepository, moods ports.MoodRepository, likes ports.LikeRepository) *services.DrainExecutor {
	return services.NewDrainExecutor(posts, moods, likes)
}

// ProvideShareService creates the application facade
func ProvideShareService(
	identityMgr *identity.Manager,
	localCache *cache.LocalCache,
	queue *offline.Queue,
	assembler *feed.Assembler,
	validator *validators.PayloadValidator,
	location ports.LocationResolver,
	posts ports.PostRepository,
	moods ports.MoodRepository,
	likes ports.LikeRepository,
	logger *zap.Logger,
	clock utils.Clock,
	metrics *observability.Collector,
) *services.ShareService {
	return services.NewShareService(identityMgr, localCache, queue, assembler, validator, location, posts, moods, likes, logger, clock, metrics)
}

// ProvideCoordinator creates the sync coordinator. After a drain that
// synced at least one write, the owned cache partitions are refreshed from
// the remote store so replayed writes show up with their remote state.
func ProvideCoordinator(queue *offline.Queue, exec *services.DrainExecutor, monitor *connectivity.Monitor, svc *services.ShareService, cfg *config.Config, logger *zap.Logger) *syncapp.Coordinator {
	refresh := func(ctx context.Context) {
		if _, err := svc.MyPosts(ctx, cfg.FeedPageSize); err != nil {
			logger.Warn("post refresh after drain failed", zap.Error(err))
		}
		if _, err := svc.MoodHistory(ctx, cfg.FeedPageSize); err != nil {
			logger.Warn("mood refresh after drain failed", zap.Error(err))
		}
	}
	return syncapp.NewCoordinator(queue, exec, monitor, logger, refresh)
}
