package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/core/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.MovementRecorded
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.MovementRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) snapshot() []domain.MovementRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.MovementRecorded, len(p.events))
	copy(out, p.events)
	return out
}

func TestDispatcher_PreservesOrderPerMaestro(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(4, pub, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var batch []domain.MovementRecorded
	for i := 0; i < 50; i++ {
		for _, m := range []string{"m-a", "m-b", "m-c"} {
			batch = append(batch, domain.MovementRecorded{MaestroID: m, MovementID: fmt.Sprintf("%s-%03d", m, i)})
		}
	}
	for _, e := range batch {
		d.Enqueue(e)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := pub.snapshot()
	if len(got) != len(batch) {
		t.Fatalf("expected %d published events, got %d", len(batch), len(got))
	}
	last := map[string]string{}
	for _, e := range got {
		if prev, ok := last[e.MaestroID]; ok && e.MovementID <= prev {
			t.Fatalf("out of order for %s: %s after %s", e.MaestroID, e.MovementID, prev)
		}
		last[e.MaestroID] = e.MovementID
	}
}

func TestDispatcher_PublishErrorDoesNotStopWorker(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(1, pub, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(domain.MovementRecorded{MaestroID: "m-1", MovementID: "mv-1"})
	d.Enqueue(domain.MovementRecorded{MaestroID: "m-1", MovementID: "mv-2"})

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n := len(pub.snapshot()); n != 2 {
		t.Errorf("expected both events attempted, got %d", n)
	}
}

func TestDispatcher_EnqueueAfterStopIsDropped(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(2, pub, zerolog.Nop())
	d.Start(context.Background())

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	d.Enqueue(domain.MovementRecorded{MaestroID: "m-1"})

	if n := len(pub.snapshot()); n != 0 {
		t.Errorf("expected no events after stop, got %d", n)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Errorf("second stop should be a no-op, got %v", err)
	}
}

func TestDispatcher_FullShardDropsInsteadOfBlocking(t *testing.T) {
	d := NewDispatcher(1, &recordingPublisher{}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.MovementRecorded{MaestroID: "m-1", MovementID: fmt.Sprintf("mv-%d", i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full shard")
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Errorf("expected a full buffer of %d, got %d", channelBuffer, got)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(0, &recordingPublisher{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("m-1")
	for i := 0; i < 10; i++ {
		if d.shardIndex("m-1") != first {
			t.Fatal("shard index changed between calls")
		}
	}
}
