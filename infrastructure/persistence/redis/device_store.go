// Package redis implements the device-local store on Redis. The embedded
// Redis instance plays the role of the device's persistent key-value storage:
// identity keys, cache partitions, and the pending queue all live here.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// DeviceStore implements ports.DeviceStore on a Redis client.
type DeviceStore struct {
	client *redis.Client
	prefix string
}

// NewDeviceStore connects to Redis at the given URL and verifies the
// connection. All keys are namespaced under prefix.
func NewDeviceStore(redisURL, prefix string) (*DeviceStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &DeviceStore{client: client, prefix: prefix}, nil
}

// NewDeviceStoreWithClient creates a store from an existing Redis client.
func NewDeviceStoreWithClient(client *redis.Client, prefix string) *DeviceStore {
	return &DeviceStore{client: client, prefix: prefix}
}

func (s *DeviceStore) key(k string) string {
	return s.prefix + k
}

// Get returns the value for key and whether it exists. Absence is reported
// via the bool, not an error.
func (s *DeviceStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.NewStorageError("get "+key, err)
	}
	return val, true, nil
}

// Set stores the value for key, replacing any previous value.
func (s *DeviceStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return pkgerrors.NewStorageError("set "+key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (s *DeviceStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return pkgerrors.NewStorageError("delete "+key, err)
	}
	return nil
}

// DeleteByPrefix removes every key under the given logical prefix.
func (s *DeviceStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := s.key(prefix) + "*"
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return pkgerrors.NewStorageError("scan "+prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return pkgerrors.NewStorageError("delete prefix "+prefix, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *DeviceStore) Close() error {
	return s.client.Close()
}

// Ping checks if the store is reachable.
func (s *DeviceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
