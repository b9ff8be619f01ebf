// Package ports defines the interfaces between the offline core and its
// infrastructure collaborators: the remote store of record, the device-local
// store, and the platform signals (auth, location, connectivity).
package ports

import (
	"context"
	"time"

	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
)

// FeedScope identifies one geographic tier query. Value is the tier's key
// (city, state, or country name) and is empty for the global tier.
type FeedScope struct {
	Tier  valueobjects.FeedTier
	Value string
}

// PostRepository is the remote store of record for posts.
type PostRepository interface {
	// Create writes a new post document.
	Create(ctx context.Context, post *entities.Post) error

	// SoftDelete flags a post as deleted without removing the document.
	SoftDelete(ctx context.Context, userID, postID string, at time.Time) error

	// ByUser returns the user's own posts, newest first, excluding
	// soft-deleted documents.
	ByUser(ctx context.Context, userID string, limit int) ([]entities.Post, error)

	// QueryTier returns up to limit posts for one geographic scope, newest
	// first, excluding soft-deleted documents and any ID present in exclude.
	QueryTier(ctx context.Context, scope FeedScope, limit int, exclude map[string]struct{}) ([]entities.Post, error)
}

// MoodRepository is the remote store of record for mood entries.
type MoodRepository interface {
	Create(ctx context.Context, entry *entities.MoodEntry) error
	SoftDelete(ctx context.Context, userID, entryID string, at time.Time) error
	ByUser(ctx context.Context, userID string, limit int) ([]entities.MoodEntry, error)
}

// LikeRepository maintains the remote like relationship documents and the
// store-level atomic like counters.
type LikeRepository interface {
	// Like records userID liking a post and increments the post's counter
	// atomically. A duplicate like is a no-op, not an error.
	Like(ctx context.Context, postID, postOwnerID, userID string) error

	// Unlike removes the relationship and decrements the counter. Removing
	// an absent relationship is a no-op.
	Unlike(ctx context.Context, postID, postOwnerID, userID string) error
}
