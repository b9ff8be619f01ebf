package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports/mocks"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

func newTestBreaker() *Breaker {
	cfg := BreakerConfig{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
	return NewBreaker(cfg, zap.NewNop())
}

func TestBreaker_OpensAfterRepeatedNetworkFaults(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.SetError("EnsureSession", pkgerrors.NewNetworkError("down", nil))

	b := newTestBreaker()
	auth := b.WrapAuth(remote.Auth())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, auth.EnsureSession(ctx, "id-1"))
	}

	// The breaker is now open: the call fails fast without reaching the
	// remote, still surfaced as a network fault so writes queue.
	remote.ClearErrors()
	err := auth.EnsureSession(ctx, "id-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Equal(t, 0, remote.SessionCalls)
}

func TestBreaker_NonNetworkErrorsDoNotTrip(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.SetError("SoftDeletePost", pkgerrors.NewNotFoundError("post"))

	b := newTestBreaker()
	posts := b.WrapPosts(remote.PostRepo())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		err := posts.SoftDelete(ctx, "u", "p", time.Now())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err), "the breaker must stay closed on answered calls")
	}
}

func TestBreaker_PassesResultsThrough(t *testing.T) {
	remote := mocks.NewMockRemote()
	b := newTestBreaker()
	posts := b.WrapPosts(remote.PostRepo())
	ctx := context.Background()

	got, err := posts.ByUser(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBreaker_IsSharedAcrossRepositories(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.SetError("CreatePost", pkgerrors.NewNetworkError("down", nil))

	b := newTestBreaker()
	posts := b.WrapPosts(remote.PostRepo())
	likes := b.WrapLikes(remote.LikeRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = posts.Create(ctx, nil)
	}

	// Post failures opened the one shared breaker, so likes fail fast too.
	err := likes.Like(ctx, "p", "o", "u")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.False(t, remote.HasLike("p", "u"))
}
