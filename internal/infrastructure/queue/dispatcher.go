package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes sync audit events to a fixed set of workers using
// consistent hashing on the user ID, keeping each user's events in order.
// Events are dropped rather than blocking the request when a worker's
// buffer is full.
type Dispatcher struct {
	workers []chan domain.SyncEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.AuditSink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SyncEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SyncEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// writes the events already in its buffer, then stops.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an event to the worker responsible for its user.
func (d *Dispatcher) Enqueue(event domain.SyncEvent) {
	select {
	case d.workers[d.shardIndex(event.UserID)] <- event:
	default:
		d.log.Warn().
			Str("user_id", event.UserID).
			Str("op", string(event.Op)).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a user ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SyncEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case event := <-ch:
			d.persist(ctx, id, event)
		}
	}
}

// drain writes whatever is still buffered once the worker is told to stop.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.SyncEvent) {
	for {
		select {
		case event := <-ch:
			d.persist(ctx, id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) persist(ctx context.Context, id int, event domain.SyncEvent) {
	// The write finishes even when shutdown has cancelled ctx.
	if err := d.repo.InsertSyncEvent(context.WithoutCancel(ctx), &event); err != nil {
		d.log.Warn().Err(err).
			Str("user_id", event.UserID).
			Str("record_type", event.RecordType).
			Int("worker_id", id).
			Msg("audit event not persisted")
	}
}
