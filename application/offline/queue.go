// Package offline provides the durable write queue. Writes that fail
// for connectivity reasons are enqueued here and replayed in order when
// the device comes back online.
package offline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/observability"
	"github.com/thisisbariii/work/pkg/utils"
)

// Operation kinds replayed by the drain executor.
const (
	KindCreatePost = "createPost"
	KindCreateMood = "createMood"
	KindLikePost   = "likePost"
)

// QueuedOperation is one pending remote write. Payload holds the
// serialized domain record for the given Kind.
type QueuedOperation struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	Attempts   int             `json:"attempts"`
}

// Executor replays a single queued operation against the remote store.
type Executor interface {
	Execute(ctx context.Context, op QueuedOperation) error
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	// Synced operations were replayed successfully.
	Synced int
	// Dropped operations exhausted their retry budget and were discarded.
	Dropped int
	// Remaining operations stay queued for the next pass.
	Remaining int
}

// Queue is a durable FIFO of pending remote writes. The whole list is
// persisted on every mutation, so a crash never loses acknowledged
// enqueues and never observes a partially applied drain.
type Queue struct {
	store       ports.DeviceStore
	logger      *zap.Logger
	clock       utils.Clock
	metrics     *observability.Collector
	maxAttempts int

	mu     sync.Mutex
	ops    []QueuedOperation
	loaded bool
}

// NewQueue creates a queue over the device store. maxAttempts bounds how
// many drain passes may retry an operation before it is dropped.
func NewQueue(store ports.DeviceStore, logger *zap.Logger, clock utils.Clock, metrics *observability.Collector, maxAttempts int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Queue{
		store:       store,
		logger:      logger,
		clock:       clock,
		metrics:     metrics,
		maxAttempts: maxAttempts,
	}
}

// Enqueue appends an operation to the queue and persists the new list.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to serialize queued operation")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.load(ctx)

	op := QueuedOperation{
		ID:         uuid.New().String(),
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: q.clock.Now(),
	}
	q.ops = append(q.ops, op)
	if err := q.persist(ctx); err != nil {
		q.ops = q.ops[:len(q.ops)-1]
		return err
	}

	q.metrics.OpsEnqueued.Inc()
	q.metrics.QueueDepth.Set(float64(len(q.ops)))
	q.logger.Info("operation queued for sync",
		zap.String("kind", kind),
		zap.Int("depth", len(q.ops)))
	return nil
}

// Drain replays queued operations in enqueue order. Only the operations
// present when the drain starts are attempted; anything enqueued while
// the drain runs waits for the next pass. A failed operation is retried
// on later passes until its attempt budget is spent, then dropped.
func (q *Queue) Drain(ctx context.Context, exec Executor) DrainResult {
	q.mu.Lock()
	q.load(ctx)
	snapshot := len(q.ops)
	q.mu.Unlock()

	var result DrainResult
	if snapshot == 0 {
		return result
	}

	var survivors []QueuedOperation
	for i := 0; i < snapshot; i++ {
		q.mu.Lock()
		op := q.ops[i]
		q.mu.Unlock()

		if err := exec.Execute(ctx, op); err != nil {
			op.Attempts++
			if op.Attempts >= q.maxAttempts {
				result.Dropped++
				q.metrics.OpsDropped.Inc()
				q.logger.Warn("dropping queued operation after repeated failures",
					zap.String("kind", op.Kind),
					zap.String("op_id", op.ID),
					zap.Int("attempts", op.Attempts),
					zap.Error(err))
			} else {
				survivors = append(survivors, op)
				q.logger.Warn("queued operation failed, will retry",
					zap.String("kind", op.Kind),
					zap.String("op_id", op.ID),
					zap.Int("attempts", op.Attempts),
					zap.Error(err))
			}
			continue
		}
		result.Synced++
		q.metrics.OpsSynced.Inc()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	// Anything enqueued mid-drain sits past the snapshot boundary and is
	// carried over untouched.
	q.ops = append(survivors, q.ops[snapshot:]...)
	if err := q.persist(ctx); err != nil {
		q.logger.Error("queue persistence failed after drain", zap.Error(err))
	}
	result.Remaining = len(q.ops)
	q.metrics.QueueDepth.Set(float64(len(q.ops)))

	q.logger.Info("queue drain finished",
		zap.Int("synced", result.Synced),
		zap.Int("dropped", result.Dropped),
		zap.Int("remaining", result.Remaining))
	return result
}

// Pending returns the number of queued operations.
func (q *Queue) Pending(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.load(ctx)
	return len(q.ops)
}

// load reads the persisted list once; later calls are no-ops. A corrupt
// or unreadable list degrades to empty rather than blocking writes.
func (q *Queue) load(ctx context.Context) {
	if q.loaded {
		return
	}
	q.loaded = true

	raw, found, err := q.store.Get(ctx, ports.KeyQueuePending)
	if err != nil {
		q.logger.Warn("queue load failed, starting empty", zap.Error(err))
		return
	}
	if !found {
		return
	}
	var ops []QueuedOperation
	if err := json.Unmarshal(raw, &ops); err != nil {
		q.logger.Warn("queue decode failed, starting empty", zap.Error(err))
		return
	}
	q.ops = ops
	q.metrics.QueueDepth.Set(float64(len(q.ops)))
}

func (q *Queue) persist(ctx context.Context) error {
	if len(q.ops) == 0 {
		if err := q.store.Delete(ctx, ports.KeyQueuePending); err != nil {
			return errors.NewStorageError("queue persist", err)
		}
		return nil
	}
	raw, err := json.Marshal(q.ops)
	if err != nil {
		return errors.Wrap(err, "failed to serialize queue")
	}
	if err := q.store.Set(ctx, ports.KeyQueuePending, raw); err != nil {
		return errors.NewStorageError("queue persist", err)
	}
	return nil
}
