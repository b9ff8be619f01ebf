// Package resilience wraps the remote repositories in a shared circuit
// breaker. When the remote store is down, the breaker opens and remote calls
// fail fast as network faults, so writes queue immediately instead of
// waiting out timeouts on a dead link.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// BreakerConfig holds configuration for the remote-store circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Breaker is one shared circuit around all remote-store traffic. Sharing a
// single breaker matters: any remote call tripping it marks the whole store
// unreachable, which is how the source app treats connectivity.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreaker creates a Breaker from the given configuration.
func NewBreaker(config BreakerConfig, logger *zap.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Only remote faults count against the breaker; a validation or
			// not-found outcome means the store answered.
			return err == nil || !pkgerrors.IsNetwork(err)
		},
	})

	return &Breaker{cb: cb, logger: logger}
}

func (b *Breaker) do(op func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, op()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return pkgerrors.NewNetworkError("remote store unavailable", err)
	}
	return err
}

// WrapPosts decorates a PostRepository with the breaker.
func (b *Breaker) WrapPosts(inner ports.PostRepository) ports.PostRepository {
	return &breakerPosts{breaker: b, inner: inner}
}

// WrapMoods decorates a MoodRepository with the breaker.
func (b *Breaker) WrapMoods(inner ports.MoodRepository) ports.MoodRepository {
	return &breakerMoods{breaker: b, inner: inner}
}

// WrapLikes decorates a LikeRepository with the breaker.
func (b *Breaker) WrapLikes(inner ports.LikeRepository) ports.LikeRepository {
	return &breakerLikes{breaker: b, inner: inner}
}

// WrapAuth decorates an AuthGateway with the breaker.
func (b *Breaker) WrapAuth(inner ports.AuthGateway) ports.AuthGateway {
	return &breakerAuth{breaker: b, inner: inner}
}

type breakerPosts struct {
	breaker *Breaker
	inner   ports.PostRepository
}

func (p *breakerPosts) Create(ctx context.Context, post *entities.Post) error {
	return p.breaker.do(func() error { return p.inner.Create(ctx, post) })
}

func (p *breakerPosts) SoftDelete(ctx context.Context, userID, postID string, at time.Time) error {
	return p.breaker.do(func() error { return p.inner.SoftDelete(ctx, userID, postID, at) })
}

func (p *breakerPosts) ByUser(ctx context.Context, userID string, limit int) ([]entities.Post, error) {
	var posts []entities.Post
	err := p.breaker.do(func() error {
		var err error
		posts, err = p.inner.ByUser(ctx, userID, limit)
		return err
	})
	return posts, err
}

func (p *breakerPosts) QueryTier(ctx context.Context, scope ports.FeedScope, limit int, exclude map[string]struct{}) ([]entities.Post, error) {
	var posts []entities.Post
	err := p.breaker.do(func() error {
		var err error
		posts, err = p.inner.QueryTier(ctx, scope, limit, exclude)
		return err
	})
	return posts, err
}

type breakerMoods struct {
	breaker *Breaker
	inner   ports.MoodRepository
}

func (m *breakerMoods) Create(ctx context.Context, entry *entities.MoodEntry) error {
	return m.breaker.do(func() error { return m.inner.Create(ctx, entry) })
}

func (m *breakerMoods) SoftDelete(ctx context.Context, userID, entryID string, at time.Time) error {
	return m.breaker.do(func() error { return m.inner.SoftDelete(ctx, userID, entryID, at) })
}

func (m *breakerMoods) ByUser(ctx context.Context, userID string, limit int) ([]entities.MoodEntry, error) {
	var entries []entities.MoodEntry
	err := m.breaker.do(func() error {
		var err error
		entries, err = m.inner.ByUser(ctx, userID, limit)
		return err
	})
	return entries, err
}

type breakerLikes struct {
	breaker *Breaker
	inner   ports.LikeRepository
}

func (l *breakerLikes) Like(ctx context.Context, postID, postOwnerID, userID string) error {
	return l.breaker.do(func() error { return l.inner.Like(ctx, postID, postOwnerID, userID) })
}

func (l *breakerLikes) Unlike(ctx context.Context, postID, postOwnerID, userID string) error {
	return l.breaker.do(func() error { return l.inner.Unlike(ctx, postID, postOwnerID, userID) })
}

type breakerAuth struct {
	breaker *Breaker
	inner   ports.AuthGateway
}

func (a *breakerAuth) EnsureSession(ctx context.Context, identityID string) error {
	return a.breaker.do(func() error { return a.inner.EnsureSession(ctx, identityID) })
}
