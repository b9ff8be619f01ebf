// Package services holds the application facade the embedding app calls.
// Every operation is total with respect to connectivity: writes that fail
// to reach the remote store are queued and acknowledged optimistically,
// reads degrade to cached data.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/cache"
	"github.com/thisisbariii/work/application/feed"
	"github.com/thisisbariii/work/application/identity"
	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/validators"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	"github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/observability"
	"github.com/thisisbariii/work/pkg/utils"
)

// WriteResult acknowledges a mutation. Pending reports whether the write
// is still waiting in the offline queue rather than confirmed remotely.
type WriteResult struct {
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
}

// likePayload is the queued form of a like operation.
type likePayload struct {
	PostID      string `json:"postId"`
	PostOwnerID string `json:"postOwnerId"`
	UserID      string `json:"userId"`
}

// ShareService coordinates identity, validation, location, the remote
// repositories, the local cache, and the offline queue behind one API.
type ShareService struct {
	identity  *identity.Manager
	cache     *cache.LocalCache
	queue     *offline.Queue
	assembler *feed.Assembler
	validator *validators.PayloadValidator
	location  ports.LocationResolver

	posts ports.PostRepository
	moods ports.MoodRepository
	likes ports.LikeRepository

	logger  *zap.Logger
	clock   utils.Clock
	metrics *observability.Collector
}

// NewShareService wires the service facade.
func NewShareService(
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
) *ShareService {
	return &ShareService{
		identity:  identityMgr,
		cache:     localCache,
		queue:     queue,
		assembler: assembler,
		validator: validator,
		location:  location,
		posts:     posts,
		moods:     moods,
		likes:     likes,
		logger:    logger,
		clock:     clock,
		metrics:   metrics,
	}
}

// SubmitPost validates and publishes a post. When the remote store is
// unreachable the post is queued for replay and acknowledged with
// Pending set; the cache reflects the post either way.
func (s *ShareService) SubmitPost(ctx context.Context, in validators.PostInput) (WriteResult, error) {
	if err := s.validator.ValidatePost(in); err != nil {
		return WriteResult{}, err
	}

	id := s.currentIdentity(ctx)
	loc := s.resolveLocation(ctx)

	post, err := entities.NewPost(id.ID(), in.Text, in.Emotion, loc, s.clock.Now())
	if err != nil {
		return WriteResult{}, err
	}

	pending := false
	if err := s.posts.Create(ctx, post); err != nil {
		if !errors.IsNetwork(err) {
			s.metrics.RemoteFailures.WithLabelValues("create_post").Inc()
			return WriteResult{}, err
		}
		if qerr := s.queue.Enqueue(ctx, offline.KindCreatePost, post); qerr != nil {
			return WriteResult{}, qerr
		}
		pending = true
	}

	s.cache.PutPost(ctx, *post)
	return WriteResult{ID: post.ID, Pending: pending}, nil
}

// SubmitMood validates and records a mood entry, with the same offline
// queueing behavior as SubmitPost.
func (s *ShareService) SubmitMood(ctx context.Context, in validators.MoodInput) (WriteResult, error) {
	if err := s.validator.ValidateMood(in); err != nil {
		return WriteResult{}, err
	}

	id := s.currentIdentity(ctx)
	entry, err := entities.NewMoodEntry(id.ID(), in.Emotion, in.Intensity, in.Note, s.clock.Now())
	if err != nil {
		return WriteResult{}, err
	}

	pending := false
	if err := s.moods.Create(ctx, entry); err != nil {
		if !errors.IsNetwork(err) {
			s.metrics.RemoteFailures.WithLabelValues("create_mood").Inc()
			return WriteResult{}, err
		}
		if qerr := s.queue.Enqueue(ctx, offline.KindCreateMood, entry); qerr != nil {
			return WriteResult{}, qerr
		}
		pending = true
	}

	s.cache.PutMood(ctx, *entry)
	return WriteResult{ID: entry.ID, Pending: pending}, nil
}

// LikePost records a like. A post the device already liked is a no-op.
// Offline likes are queued like other writes.
func (s *ShareService) LikePost(ctx context.Context, in validators.LikeInput) (WriteResult, error) {
	if err := s.validator.ValidateLike(in); err != nil {
		return WriteResult{}, err
	}

	id := s.currentIdentity(ctx)
	if s.cache.Liked(ctx, in.PostID) {
		return WriteResult{ID: in.PostID}, nil
	}

	pending := false
	if err := s.likes.Like(ctx, in.PostID, in.PostOwnerID, id.ID()); err != nil {
		if !errors.IsNetwork(err) {
			s.metrics.RemoteFailures.WithLabelValues("like_post").Inc()
			return WriteResult{}, err
		}
		payload := likePayload{PostID: in.PostID, PostOwnerID: in.PostOwnerID, UserID: id.ID()}
		if qerr := s.queue.Enqueue(ctx, offline.KindLikePost, payload); qerr != nil {
			return WriteResult{}, qerr
		}
		pending = true
	}

	s.cache.MarkLiked(ctx, in.PostID)
	return WriteResult{ID: in.PostID, Pending: pending}, nil
}

// UnlikePost removes a like. Unlike is online-only: when the remote store
// is unreachable the error is returned and the like set stays untouched.
func (s *ShareService) UnlikePost(ctx context.Context, in validators.LikeInput) error {
	if err := s.validator.ValidateLike(in); err != nil {
		return err
	}

	id := s.currentIdentity(ctx)
	if err := s.likes.Unlike(ctx, in.PostID, in.PostOwnerID, id.ID()); err != nil {
		s.metrics.RemoteFailures.WithLabelValues("unlike_post").Inc()
		return err
	}

	s.cache.UnmarkLiked(ctx, in.PostID)
	return nil
}

// DeletePost soft-deletes one of the caller's own posts and evicts it
// from the cache. Delete is online-only.
func (s *ShareService) DeletePost(ctx context.Context, postID string) error {
	if postID == "" {
		return errors.NewValidationError("postID cannot be empty")
	}

	id := s.currentIdentity(ctx)
	if err := s.posts.SoftDelete(ctx, id.ID(), postID, s.clock.Now()); err != nil {
		s.metrics.RemoteFailures.WithLabelValues("delete_post").Inc()
		return err
	}

	s.cache.RemovePost(ctx, id.ID(), postID)
	return nil
}

// DeleteMood soft-deletes one of the caller's mood entries.
func (s *ShareService) DeleteMood(ctx context.Context, entryID string) error {
	if entryID == "" {
		return errors.NewValidationError("entryID cannot be empty")
	}

	id := s.currentIdentity(ctx)
	if err := s.moods.SoftDelete(ctx, id.ID(), entryID, s.clock.Now()); err != nil {
		s.metrics.RemoteFailures.WithLabelValues("delete_mood").Inc()
		return err
	}

	s.cache.RemoveMood(ctx, id.ID(), entryID)
	return nil
}

// MyPosts returns the caller's own posts, newest first. Remote results
// refresh the cache partition; a connectivity failure falls back to it.
func (s *ShareService) MyPosts(ctx context.Context, limit int) ([]entities.Post, error) {
	id := s.currentIdentity(ctx)

	posts, err := s.posts.ByUser(ctx, id.ID(), limit)
	if err != nil {
		if errors.IsNetwork(err) {
			cached := s.cache.PostsOwned(ctx, id.ID())
			s.logger.Warn("remote unreachable, serving cached posts",
				zap.Int("posts", len(cached)),
				zap.Error(err))
			return cached, nil
		}
		return nil, err
	}

	s.cache.ReplacePostsOwned(ctx, id.ID(), posts)
	return posts, nil
}

// MoodHistory returns the caller's mood entries, newest first, with the
// same cache-fallback behavior as MyPosts.
func (s *ShareService) MoodHistory(ctx context.Context, limit int) ([]entities.MoodEntry, error) {
	id := s.currentIdentity(ctx)

	moods, err := s.moods.ByUser(ctx, id.ID(), limit)
	if err != nil {
		if errors.IsNetwork(err) {
			cached := s.cache.MoodsOwned(ctx, id.ID())
			s.logger.Warn("remote unreachable, serving cached moods",
				zap.Int("entries", len(cached)),
				zap.Error(err))
			return cached, nil
		}
		return nil, err
	}

	s.cache.ReplaceMoodsOwned(ctx, id.ID(), moods)
	return moods, nil
}

// Feed assembles one feed page for the device's location.
func (s *ShareService) Feed(ctx context.Context, pageSize int) ([]entities.Post, error) {
	s.currentIdentity(ctx)

	loc := s.resolveLocation(ctx)
	if loc.IsZero() {
		return s.assembler.Assemble(ctx, nil, pageSize)
	}
	return s.assembler.Assemble(ctx, &loc, pageSize)
}

// CurrentIdentity returns the device identity, creating one on first use.
func (s *ShareService) CurrentIdentity(ctx context.Context) valueobjects.AnonymousIdentity {
	return s.currentIdentity(ctx)
}

// PendingWrites reports the offline queue depth.
func (s *ShareService) PendingWrites(ctx context.Context) int {
	return s.queue.Pending(ctx)
}

// currentIdentity resolves the identity and binds the cache to it, so an
// identity switch invalidates stale partitions before any read or write.
func (s *ShareService) currentIdentity(ctx context.Context) valueobjects.AnonymousIdentity {
	id := s.identity.GetOrCreate(ctx)
	s.cache.EnsureIdentity(ctx, id.ID())
	return id
}

// resolveLocation returns a fresh location profile, preferring the cached
// one inside its validity window. Resolution failures degrade to the
// zero profile; posting and feeds still work, just without geo tiers.
func (s *ShareService) resolveLocation(ctx context.Context) valueobjects.LocationProfile {
	if cached, ok := s.cache.Location(ctx); ok && cached.Fresh(s.clock.Now()) {
		return cached
	}

	if s.location == nil {
		return valueobjects.LocationProfile{}
	}

	loc, err := s.location.Resolve(ctx)
	if err != nil {
		s.logger.Warn("location resolution failed", zap.Error(err))
		if cached, ok := s.cache.Location(ctx); ok {
			return cached
		}
		return valueobjects.LocationProfile{}
	}

	if loc.ObservedAt.IsZero() {
		loc.ObservedAt = s.clock.Now()
	}
	s.cache.PutLocation(ctx, loc)
	return loc
}
