package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/pkg/errors"
)

// MockDeviceStore is an in-memory DeviceStore with per-method failure
// injection.
type MockDeviceStore struct {
	mu   sync.Mutex
	data map[string][]byte

	FailGet    bool
	FailSet    bool
	FailDelete bool

	SetCalls int
	GetCalls int
}

// NewMockDeviceStore creates an empty store.
func NewMockDeviceStore() *MockDeviceStore {
	return &MockDeviceStore{data: make(map[string][]byte)}
}

func (s *MockDeviceStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.FailGet {
		return nil, false, errors.NewStorageError("get "+key, nil)
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MockDeviceStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetCalls++
	if s.FailSet {
		return errors.NewStorageError("set "+key, nil)
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MockDeviceStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return errors.NewStorageError("delete "+key, nil)
	}
	delete(s.data, key)
	return nil
}

func (s *MockDeviceStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return errors.NewStorageError("delete prefix "+prefix, nil)
	}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
	return nil
}

// Keys returns the stored keys, for assertions.
func (s *MockDeviceStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Raw returns the stored bytes for a key, for assertions.
func (s *MockDeviceStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

var _ ports.DeviceStore = (*MockDeviceStore)(nil)
