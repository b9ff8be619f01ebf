// Package cache provides the device-local read cache. All cache
// failures are advisory: reads degrade to empty results and writes are
// logged and skipped, never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	"github.com/thisisbariii/work/pkg/observability"
)

// LocalCache partitions cached records into a bounded global post list,
// per-identity owned partitions, mood lists, a like set, the last known
// location, and the last assembled feed.
type LocalCache struct {
	store   ports.DeviceStore
	logger  *zap.Logger
	metrics *observability.Collector

	// globalCap bounds the global post partition; oldest entries are
	// evicted first.
	globalCap int

	// mu serializes read-modify-write cycles on list partitions.
	mu sync.Mutex
}

// NewLocalCache creates a cache over the device store. globalCap bounds
// the global post partition.
func NewLocalCache(store ports.DeviceStore, logger *zap.Logger, metrics *observability.Collector, globalCap int) *LocalCache {
	if globalCap <= 0 {
		globalCap = 50
	}
	return &LocalCache{
		store:     store,
		logger:    logger,
		metrics:   metrics,
		globalCap: globalCap,
	}
}

// EnsureIdentity binds the cache to an identity. When the bound identity
// differs from the given one, every cache partition is invalidated
// before rebinding, so records never leak across identities.
func (c *LocalCache) EnsureIdentity(ctx context.Context, identityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, found, err := c.store.Get(ctx, ports.KeyCacheIdentity)
	if err != nil {
		c.logger.Warn("cache identity marker read failed", zap.Error(err))
		return
	}
	if found && string(raw) == identityID {
		return
	}

	if found {
		c.logger.Info("identity switch detected, invalidating cache",
			zap.String("previous", string(raw)),
			zap.String("current", identityID))
		if err := c.store.DeleteByPrefix(ctx, ports.CachePrefix); err != nil {
			c.logger.Warn("cache invalidation failed", zap.Error(err))
			return
		}
	}

	if err := c.store.Set(ctx, ports.KeyCacheIdentity, []byte(identityID)); err != nil {
		c.logger.Warn("cache identity marker write failed", zap.Error(err))
	}
}

// PutPost records a post in the global partition and, when owned by the
// given identity, in that identity's partition. The global partition is
// FIFO bounded: when full, the oldest entry is evicted.
func (c *LocalCache) PutPost(ctx context.Context, post entities.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := c.loadPosts(ctx, ports.KeyPostsGlobal)
	global = upsertPost(global, post)
	if len(global) > c.globalCap {
		global = global[len(global)-c.globalCap:]
	}
	c.storePosts(ctx, ports.KeyPostsGlobal, global)

	ownedKey := ports.KeyPostsByIdentity + post.UserID
	owned := c.loadPosts(ctx, ownedKey)
	owned = upsertPost(owned, post)
	c.storePosts(ctx, ownedKey, owned)
}

// RemovePost drops a post from both the global partition and the owner's
// partition.
func (c *LocalCache) RemovePost(ctx context.Context, identityID, postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := removePostByID(c.loadPosts(ctx, ports.KeyPostsGlobal), postID)
	c.storePosts(ctx, ports.KeyPostsGlobal, global)

	ownedKey := ports.KeyPostsByIdentity + identityID
	owned := removePostByID(c.loadPosts(ctx, ownedKey), postID)
	c.storePosts(ctx, ownedKey, owned)
}

// PostsOwned returns the cached posts belonging to an identity. When the
// owned partition is empty it is backfilled from the global partition,
// healing partitions written by earlier app versions that only
// maintained the global list.
func (c *LocalCache) PostsOwned(ctx context.Context, identityID string) []entities.Post {
	c.mu.Lock()
	defer c.mu.Unlock()

	ownedKey := ports.KeyPostsByIdentity + identityID
	owned := c.loadPosts(ctx, ownedKey)
	if len(owned) > 0 {
		c.metrics.CacheHits.Inc()
		return owned
	}

	global := c.loadPosts(ctx, ports.KeyPostsGlobal)
	var mine []entities.Post
	for _, p := range global {
		if p.UserID == identityID {
			mine = append(mine, p)
		}
	}
	if len(mine) > 0 {
		c.metrics.CacheHits.Inc()
		c.storePosts(ctx, ownedKey, mine)
		return mine
	}

	c.metrics.CacheMisses.Inc()
	return nil
}

// ReplacePostsOwned overwrites an identity's owned partition with fresh
// remote results.
func (c *LocalCache) ReplacePostsOwned(ctx context.Context, identityID string, posts []entities.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storePosts(ctx, ports.KeyPostsByIdentity+identityID, posts)
}

// PutMood records a mood entry in the mood partitions, mirroring the
// post layout.
func (c *LocalCache) PutMood(ctx context.Context, mood entities.MoodEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := c.loadMoods(ctx, ports.KeyMoodsGlobal)
	global = upsertMood(global, mood)
	if len(global) > c.globalCap {
		global = global[len(global)-c.globalCap:]
	}
	c.storeMoods(ctx, ports.KeyMoodsGlobal, global)

	ownedKey := ports.KeyMoodsByIdentity + mood.UserID
	owned := upsertMood(c.loadMoods(ctx, ownedKey), mood)
	c.storeMoods(ctx, ownedKey, owned)
}

// RemoveMood drops a mood entry from both mood partitions.
func (c *LocalCache) RemoveMood(ctx context.Context, identityID, moodID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := removeMoodByID(c.loadMoods(ctx, ports.KeyMoodsGlobal), moodID)
	c.storeMoods(ctx, ports.KeyMoodsGlobal, global)

	ownedKey := ports.KeyMoodsByIdentity + identityID
	owned := removeMoodByID(c.loadMoods(ctx, ownedKey), moodID)
	c.storeMoods(ctx, ownedKey, owned)
}

// MoodsOwned returns the cached moods for an identity, backfilling from
// the global mood list like PostsOwned does.
func (c *LocalCache) MoodsOwned(ctx context.Context, identityID string) []entities.MoodEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	ownedKey := ports.KeyMoodsByIdentity + identityID
	owned := c.loadMoods(ctx, ownedKey)
	if len(owned) > 0 {
		c.metrics.CacheHits.Inc()
		return owned
	}

	global := c.loadMoods(ctx, ports.KeyMoodsGlobal)
	var mine []entities.MoodEntry
	for _, m := range global {
		if m.UserID == identityID {
			mine = append(mine, m)
		}
	}
	if len(mine) > 0 {
		c.metrics.CacheHits.Inc()
		c.storeMoods(ctx, ownedKey, mine)
		return mine
	}

	c.metrics.CacheMisses.Inc()
	return nil
}

// ReplaceMoodsOwned overwrites an identity's mood partition with fresh
// remote results.
func (c *LocalCache) ReplaceMoodsOwned(ctx context.Context, identityID string, moods []entities.MoodEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeMoods(ctx, ports.KeyMoodsByIdentity+identityID, moods)
}

// Liked reports whether the device already recorded a like for postID.
func (c *LocalCache) Liked(ctx context.Context, postID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	likes := c.loadLikes(ctx)
	_, ok := likes[postID]
	return ok
}

// MarkLiked records a like for postID in the device like set.
func (c *LocalCache) MarkLiked(ctx context.Context, postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	likes := c.loadLikes(ctx)
	likes[postID] = true
	c.storeLikes(ctx, likes)
}

// UnmarkLiked removes postID from the device like set.
func (c *LocalCache) UnmarkLiked(ctx context.Context, postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	likes := c.loadLikes(ctx)
	delete(likes, postID)
	c.storeLikes(ctx, likes)
}

// Location returns the last cached location profile, if any.
func (c *LocalCache) Location(ctx context.Context) (valueobjects.LocationProfile, bool) {
	raw, found, err := c.store.Get(ctx, ports.KeyLocation)
	if err != nil || !found {
		if err != nil {
			c.logger.Warn("location cache read failed", zap.Error(err))
		}
		return valueobjects.LocationProfile{}, false
	}
	var loc valueobjects.LocationProfile
	if err := json.Unmarshal(raw, &loc); err != nil {
		c.logger.Warn("location cache decode failed", zap.Error(err))
		return valueobjects.LocationProfile{}, false
	}
	return loc, true
}

// PutLocation caches the last resolved location profile.
func (c *LocalCache) PutLocation(ctx context.Context, loc valueobjects.LocationProfile) {
	raw, err := json.Marshal(loc)
	if err != nil {
		c.logger.Warn("location cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, ports.KeyLocation, raw); err != nil {
		c.logger.Warn("location cache write failed", zap.Error(err))
	}
}

// Feed returns the last assembled feed, if one is cached.
func (c *LocalCache) Feed(ctx context.Context) ([]entities.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, found, err := c.store.Get(ctx, ports.KeyFeed)
	if err != nil || !found {
		if err != nil {
			c.logger.Warn("feed cache read failed", zap.Error(err))
		}
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	var posts []entities.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.logger.Warn("feed cache decode failed", zap.Error(err))
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	c.metrics.CacheHits.Inc()
	return posts, true
}

// PutFeed replaces the cached feed wholesale with the latest assembly.
func (c *LocalCache) PutFeed(ctx context.Context, posts []entities.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(posts)
	if err != nil {
		c.logger.Warn("feed cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, ports.KeyFeed, raw); err != nil {
		c.logger.Warn("feed cache write failed", zap.Error(err))
	}
}

func (c *LocalCache) loadPosts(ctx context.Context, key string) []entities.Post {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("post cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	var posts []entities.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.logger.Warn("post cache decode failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return posts
}

func (c *LocalCache) storePosts(ctx context.Context, key string, posts []entities.Post) {
	if len(posts) == 0 {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("post cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		c.logger.Warn("post cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("post cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *LocalCache) loadMoods(ctx context.Context, key string) []entities.MoodEntry {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("mood cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	var moods []entities.MoodEntry
	if err := json.Unmarshal(raw, &moods); err != nil {
		c.logger.Warn("mood cache decode failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return moods
}

func (c *LocalCache) storeMoods(ctx context.Context, key string, moods []entities.MoodEntry) {
	if len(moods) == 0 {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("mood cache delete failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(moods)
	if err != nil {
		c.logger.Warn("mood cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("mood cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *LocalCache) loadLikes(ctx context.Context) map[string]bool {
	raw, found, err := c.store.Get(ctx, ports.KeyLikes)
	if err != nil {
		c.logger.Warn("like set read failed", zap.Error(err))
		return map[string]bool{}
	}
	if !found {
		return map[string]bool{}
	}
	likes := map[string]bool{}
	if err := json.Unmarshal(raw, &likes); err != nil {
		c.logger.Warn("like set decode failed", zap.Error(err))
		return map[string]bool{}
	}
	return likes
}

func (c *LocalCache) storeLikes(ctx context.Context, likes map[string]bool) {
	raw, err := json.Marshal(likes)
	if err != nil {
		c.logger.Warn("like set encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, ports.KeyLikes, raw); err != nil {
		c.logger.Warn("like set write failed", zap.Error(err))
	}
}

// upsertPost replaces an existing entry with the same ID or appends.
func upsertPost(posts []entities.Post, post entities.Post) []entities.Post {
	for i := range posts {
		if posts[i].ID == post.ID {
			posts[i] = post
			return posts
		}
	}
	return append(posts, post)
}

func removePostByID(posts []entities.Post, id string) []entities.Post {
	out := posts[:0]
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func upsertMood(moods []entities.MoodEntry, mood entities.MoodEntry) []entities.MoodEntry {
	for i := range moods {
		if moods[i].ID == mood.ID {
			moods[i] = mood
			return moods
		}
	}
	return append(moods, mood)
}

func removeMoodByID(moods []entities.MoodEntry, id string) []entities.MoodEntry {
	out := moods[:0]
	for _, m := range moods {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
