package ports

import "context"

// Logical key space of the device-local store. Each value is a serialized
// record or list of records; absence means "empty", never an error.
const (
	KeyIdentityID        = "identity.id"
	KeyIdentityCreatedAt = "identity.createdAt"
	KeyIdentityObserved  = "identity.lastObserved"
	KeyPostsGlobal       = "cache.posts.global"
	KeyPostsByIdentity   = "cache.posts.byIdentity." // + identity id
	KeyMoodsGlobal       = "cache.moods"
	KeyMoodsByIdentity   = "cache.moods.byIdentity." // + identity id
	KeyLikes             = "cache.likes"
	KeyLocation          = "cache.location"
	KeyFeed              = "cache.feed"
	KeyCacheIdentity     = "cache.identity"
	KeyQueuePending      = "queue.pending"
	CachePrefix          = "cache."
)

// DeviceStore is the device-local persistent key-value store backing the
// identity, the cache partitions, and the offline queue.
type DeviceStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value for key, replacing any previous value. Replace
	// semantics are what make whole-list persistence atomic for callers.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key under the given prefix. Used for the
	// full cache invalidation on an identity switch.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
