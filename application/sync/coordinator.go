// Package sync triggers offline-queue drains from connectivity signals.
package sync

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports"
)

// Coordinator listens for connectivity transitions and drains the
// offline queue when the device comes back online. A boolean gate
// coalesces overlapping triggers into a single drain at a time.
type Coordinator struct {
	queue        *offline.Queue
	exec         offline.Executor
	connectivity ports.ConnectivitySource
	logger       *zap.Logger

	// afterDrain runs after any drain that synced at least one
	// operation, letting the owner refresh stale cache partitions.
	afterDrain func(ctx context.Context)

	draining atomic.Bool
	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// NewCoordinator wires the queue, its executor, and the connectivity
// source together. afterDrain may be nil.
func NewCoordinator(queue *offline.Queue, exec offline.Executor, connectivity ports.ConnectivitySource, logger *zap.Logger, afterDrain func(ctx context.Context)) *Coordinator {
	return &Coordinator{
		queue:        queue,
		exec:         exec,
		connectivity: connectivity,
		logger:       logger,
		afterDrain:   afterDrain,
		stopped:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start performs one unconditional startup drain for writes queued in a
// previous run, then watches connectivity transitions until Stop. Only
// transitions to online trigger drains.
func (c *Coordinator) Start(ctx context.Context) {
	go func() {
		defer close(c.done)

		c.drain(ctx)

		transitions := c.connectivity.Transitions()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopped:
				return
			case online, ok := <-transitions:
				if !ok {
					return
				}
				if !online {
					continue
				}
				c.logger.Info("connectivity restored, draining queue")
				c.drain(ctx)
			}
		}
	}()
}

// Stop ends the transition watch. It does not interrupt a drain already
// in flight.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)
	})
	<-c.done
}

// DrainNow runs a drain immediately, subject to the same single-drain
// gate as transition-triggered drains. It reports whether a drain ran.
func (c *Coordinator) DrainNow(ctx context.Context) bool {
	return c.drain(ctx)
}

func (c *Coordinator) drain(ctx context.Context) bool {
	if !c.draining.CompareAndSwap(false, true) {
		c.logger.Debug("drain already in flight, skipping trigger")
		return false
	}
	defer c.draining.Store(false)

	result := c.queue.Drain(ctx, c.exec)
	if result.Synced > 0 && c.afterDrain != nil {
		c.afterDrain(ctx)
	}
	return true
}
