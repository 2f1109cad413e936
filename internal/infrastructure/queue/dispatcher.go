package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/pkg/metrics"
	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes movement events to a fixed set of workers using
// consistent hashing on the maestro id, so events of one maestro are
// published in commit order.
type Dispatcher struct {
	workers   []chan domain.MovementRecorded
	publisher ports.EventPublisher
	log       zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.MovementRecorded, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.MovementRecorded, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its maestro. It never
// blocks: events are dropped and counted when that worker's buffer is full
// or after Stop.
func (d *Dispatcher) Enqueue(event domain.MovementRecorded) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop(event, "stopped")
		return
	}

	idx := d.shardIndex(event.MaestroID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(event, "queue_full")
	}
}

func (d *Dispatcher) drop(event domain.MovementRecorded, reason string) {
	metrics.EventsDroppedTotal.WithLabelValues(reason).Inc()
	d.log.Warn().
		Str("movement_id", event.MovementID).
		Str("maestro_id", event.MaestroID).
		Str("reason", reason).
		Msg("event dropped")
}

// Stop closes the worker channels and waits until pending events are
// published or ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a maestro id deterministically to a worker index.
func (d *Dispatcher) shardIndex(maestroID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(maestroID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.MovementRecorded) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.publish(ctx, id, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, id int, event domain.MovementRecorded) {
	start := time.Now()
	err := d.publisher.Publish(ctx, event)
	metrics.EventPublishDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("maestro_id", event.MaestroID).
			Str("movement_id", event.MovementID).
			Int("worker_id", id).
			Msg("event publish failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}
