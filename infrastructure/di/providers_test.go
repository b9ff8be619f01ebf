package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/cache"
	"github.com/thisisbariii/work/application/feed"
	"github.com/thisisbariii/work/application/identity"
	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports/mocks"
	"github.com/thisisbariii/work/application/services"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/validators"
	"github.com/thisisbariii/work/infrastructure/config"
	"github.com/thisisbariii/work/infrastructure/connectivity"
	"github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/observability"
	"github.com/thisisbariii/work/pkg/utils"
)

func TestProvideCoordinator_RefreshesOwnedCacheAfterDrain(t *testing.T) {
	ctx := context.Background()
	remote := mocks.NewMockRemote()
	store := mocks.NewMockDeviceStore()
	logger := zap.NewNop()
	metrics := observability.NewCollector("test")
	clock := &utils.FakeClock{Current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cfg := &config.Config{FeedPageSize: 20, QueueMaxAttempts: 3, GlobalCacheSize: 50}

	localCache := cache.NewLocalCache(store, logger, metrics, cfg.GlobalCacheSize)
	queue := offline.NewQueue(store, logger, clock, metrics, cfg.QueueMaxAttempts)
	assembler := feed.NewAssembler(remote.PostRepo(), localCache, logger, metrics, cfg.FeedPageSize)
	identityMgr := identity.NewManager(store, remote.Auth(), logger, clock, metrics)
	svc := services.NewShareService(
		identityMgr, localCache, queue, assembler,
		validators.NewPayloadValidator(), &mocks.MockLocation{},
		remote.PostRepo(), remote.MoodRepo(), remote.LikeRepo(),
		logger, clock, metrics,
	)
	exec := services.NewDrainExecutor(remote.PostRepo(), remote.MoodRepo(), remote.LikeRepo())
	monitor := connectivity.NewMonitor(func(context.Context) error { return nil }, time.Minute, logger)

	coordinator := ProvideCoordinator(queue, exec, monitor, svc, cfg, logger)

	id := svc.CurrentIdentity(ctx)

	// A post by the same identity that the device has never cached.
	remote.SeedPost(entities.Post{
		ID:        "remote-only",
		UserID:    id.ID(),
		Text:      "written from another device",
		Emotion:   "calm",
		CreatedAt: clock.Now(),
	})

	remote.SetError("CreatePost", errors.NewNetworkError("offline", nil))
	res, err := svc.SubmitPost(ctx, validators.PostInput{Text: "queued while offline", Emotion: "joy"})
	require.NoError(t, err)
	require.True(t, res.Pending)
	remote.ClearErrors()

	require.True(t, coordinator.DrainNow(ctx))

	_, ok := remote.PostByID(res.ID)
	assert.True(t, ok, "queued post must replay to the remote store")
	assert.Equal(t, 0, queue.Pending(ctx))

	owned := localCache.PostsOwned(ctx, id.ID())
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "remote-only",
		"owned partition must be refreshed from the remote store after the drain")
	assert.Contains(t, ids, res.ID)
}
