// Package identity provides the anonymous identity lifecycle. Every
// operation in the system runs under an anonymous identity that is
// minted on first use, persisted on the device, and reused thereafter.
package identity

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	"github.com/thisisbariii/work/pkg/observability"
	"github.com/thisisbariii/work/pkg/utils"
)

// Manager owns identity creation and retrieval. GetOrCreate is total:
// it always produces a usable identity, falling back to a non-persisted
// one when the device store is unavailable.
type Manager struct {
	store   ports.DeviceStore
	auth    ports.AuthGateway
	logger  *zap.Logger
	clock   utils.Clock
	metrics *observability.Collector

	group singleflight.Group

	mu      sync.RWMutex
	current valueobjects.AnonymousIdentity
}

// NewManager creates an identity manager backed by the device store.
func NewManager(store ports.DeviceStore, auth ports.AuthGateway, logger *zap.Logger, clock utils.Clock, metrics *observability.Collector) *Manager {
	return &Manager{
		store:   store,
		auth:    auth,
		logger:  logger,
		clock:   clock,
		metrics: metrics,
	}
}

// GetOrCreate returns the device identity, creating and persisting one
// if none exists. Concurrent callers share a single lookup, so exactly
// one identity is ever minted per device. It never fails: when the
// device store cannot persist a new identity, a session-scoped fallback
// identity is returned instead.
func (m *Manager) GetOrCreate(ctx context.Context) valueobjects.AnonymousIdentity {
	m.mu.RLock()
	cached := m.current
	m.mu.RUnlock()
	if !cached.IsZero() {
		return cached
	}

	v, _, _ := m.group.Do("identity", func() (interface{}, error) {
		return m.loadOrMint(ctx), nil
	})
	return v.(valueobjects.AnonymousIdentity)
}

func (m *Manager) loadOrMint(ctx context.Context) valueobjects.AnonymousIdentity {
	// Re-check under the flight: a concurrent Refresh may have raced us.
	m.mu.RLock()
	cached := m.current
	m.mu.RUnlock()
	if !cached.IsZero() {
		return cached
	}

	if id, ok := m.loadPersisted(ctx); ok {
		// A session attempt may have failed on the launch that minted
		// this identity, so retry it here.
		m.ensureSession(ctx, id)
		m.remember(ctx, id)
		return id
	}

	id := m.mint(ctx)
	m.remember(ctx, id)
	return id
}

func (m *Manager) loadPersisted(ctx context.Context) (valueobjects.AnonymousIdentity, bool) {
	raw, found, err := m.store.Get(ctx, ports.KeyIdentityID)
	if err != nil {
		m.logger.Warn("identity lookup failed, minting fresh", zap.Error(err))
		return valueobjects.AnonymousIdentity{}, false
	}
	if !found || len(raw) == 0 {
		return valueobjects.AnonymousIdentity{}, false
	}

	createdAt := m.clock.Now()
	if rawTS, ok, err := m.store.Get(ctx, ports.KeyIdentityCreatedAt); err == nil && ok {
		if ts, err := utils.ParseRFC3339(string(rawTS)); err == nil {
			createdAt = ts
		}
	}

	id, err := valueobjects.NewAnonymousIdentity(string(raw), createdAt)
	if err != nil {
		m.logger.Warn("persisted identity invalid, minting fresh", zap.Error(err))
		return valueobjects.AnonymousIdentity{}, false
	}
	return id, true
}

func (m *Manager) mint(ctx context.Context) valueobjects.AnonymousIdentity {
	now := m.clock.Now()
	id, _ := valueobjects.NewAnonymousIdentity(uuid.New().String(), now)

	if err := m.persist(ctx, id); err != nil {
		m.metrics.IdentityFallbacks.Inc()
		m.logger.Error("identity persistence failed, using fallback", zap.Error(err))
		return m.fallback(now)
	}

	m.ensureSession(ctx, id)

	m.logger.Info("anonymous identity created", zap.String("user_id", id.ID()))
	return id
}

// ensureSession establishes the remote-auth session best-effort. The
// identity is already durable locally; a failure here retries on the
// next full resolution.
func (m *Manager) ensureSession(ctx context.Context, id valueobjects.AnonymousIdentity) {
	if m.auth == nil {
		return
	}
	if err := m.auth.EnsureSession(ctx, id.ID()); err != nil {
		m.logger.Warn("session establishment failed",
			zap.String("user_id", id.ID()),
			zap.Error(err))
	}
}

func (m *Manager) persist(ctx context.Context, id valueobjects.AnonymousIdentity) error {
	if err := m.store.Set(ctx, ports.KeyIdentityID, []byte(id.ID())); err != nil {
		return err
	}
	if err := m.store.Set(ctx, ports.KeyIdentityCreatedAt, []byte(utils.FormatRFC3339(id.CreatedAt()))); err != nil {
		m.logger.Warn("identity timestamp persistence failed", zap.Error(err))
	}
	return nil
}

// fallback builds a session-scoped identity that is intentionally not
// persisted: the next launch with a healthy store mints a durable one.
func (m *Manager) fallback(now time.Time) valueobjects.AnonymousIdentity {
	raw := fmt.Sprintf("anon-%d-%06d", now.UnixMilli(), rand.Intn(1000000))
	id, _ := valueobjects.NewAnonymousIdentity(raw, now)
	return id
}

func (m *Manager) remember(ctx context.Context, id valueobjects.AnonymousIdentity) {
	m.mu.Lock()
	m.current = id
	m.mu.Unlock()

	if err := m.store.Set(ctx, ports.KeyIdentityObserved, []byte(utils.FormatRFC3339(m.clock.Now()))); err != nil {
		m.logger.Warn("observed marker update failed", zap.Error(err))
	}
}

// Current returns the in-memory identity without touching the store.
// It is zero until the first GetOrCreate.
func (m *Manager) Current() valueobjects.AnonymousIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Refresh drops the in-memory identity and the last-observed marker so
// the next GetOrCreate re-reads the device store. Used to recover from
// suspected identity corruption, not part of the normal flow.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	m.current = valueobjects.AnonymousIdentity{}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, ports.KeyIdentityObserved); err != nil {
		m.logger.Warn("observed marker delete failed", zap.Error(err))
	}
}
