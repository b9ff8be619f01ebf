// Package connectivity turns a reachability probe into the boolean
// connectivity state plus edge-triggered transition events the sync
// coordinator consumes.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Probe checks whether the remote store is reachable. A nil error means
// online. The DI layer wires a cheap store round trip here; tests inject
// their own.
type Probe func(ctx context.Context) error

// Monitor polls a Probe and publishes transitions. It implements
// ports.ConnectivitySource.
type Monitor struct {
	probe    Probe
	interval time.Duration
	logger   *zap.Logger

	online      atomic.Bool
	transitions chan bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewMonitor creates a Monitor. The initial state is offline until the
// first probe succeeds; callers that need an immediate answer use CheckNow.
func NewMonitor(probe Probe, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probe:       probe,
		interval:    interval,
		logger:      logger,
		transitions: make(chan bool, 8),
		done:        make(chan struct{}),
	}
}

// Start begins periodic probing. Safe to call once; later calls are no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.CheckNow(ctx)
		m.wg.Add(1)
		go m.loop(ctx)
	})
}

// Stop halts probing and closes the transition channel.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		close(m.transitions)
	})
}

// Online reports the current level state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Transitions delivers a value on every state change.
func (m *Monitor) Transitions() <-chan bool {
	return m.transitions
}

// CheckNow forces an immediate probe and returns the resulting state.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	online := m.probe(ctx) == nil
	if m.online.Swap(online) != online {
		m.logger.Info("Connectivity changed", zap.Bool("online", online))
		select {
		case m.transitions <- online:
		default:
			// Slow consumer; the level state is still correct and the next
			// transition will be delivered.
			m.logger.Warn("Connectivity transition dropped")
		}
	}
	return online
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}
