package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DeviceStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDeviceStoreWithClient(client, "test:")
}

func TestGet_AbsentKeyIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	val, found, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "identity.id", []byte("abc-123")))
	val, found, err := s.Get(ctx, "identity.id")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc-123", string(val))
}

func TestSet_ReplacesPreviousValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("old")))
	require.NoError(t, s.Set(ctx, "k", []byte("new")))

	val, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(val))
}

func TestDelete_AbsentKeyIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "never-set"))
}

func TestDeleteByPrefix_RemovesOnlyMatchingKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cache.posts.global", []byte("a")))
	require.NoError(t, s.Set(ctx, "cache.likes", []byte("b")))
	require.NoError(t, s.Set(ctx, "identity.id", []byte("keep")))
	require.NoError(t, s.Set(ctx, "queue.pending", []byte("keep")))

	require.NoError(t, s.DeleteByPrefix(ctx, "cache."))

	_, found, err := s.Get(ctx, "cache.posts.global")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = s.Get(ctx, "cache.likes")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.Get(ctx, "identity.id")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = s.Get(ctx, "queue.pending")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDeleteByPrefix_NoMatchesIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.DeleteByPrefix(context.Background(), "cache."))
}

func TestPrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewDeviceStoreWithClient(client, "device-a:")
	b := NewDeviceStoreWithClient(client, "device-b:")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "identity.id", []byte("a-id")))

	_, found, err := b.Get(ctx, "identity.id")
	require.NoError(t, err)
	assert.False(t, found, "stores with different prefixes must not share keys")
}
