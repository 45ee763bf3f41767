// README: Patch retry queue tests against an embedded Redis.
package route

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"kolekta/internal/infra"
	"kolekta/internal/types"
)

func newTestQueue(t *testing.T) *PatchQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewPatchQueue(infra.NewRedis(mr.Addr()))
}

func TestQueueEnqueueDrain(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	started := StatusStarted
	now := time.Now().UTC()

	for _, id := range []types.ID{"seg-1", "seg-2"} {
		if err := q.Enqueue(ctx, QueuedPatch{SegmentID: id, Status: &started, StartTime: &now}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if n, _ := q.Len(ctx); n != 2 {
		t.Fatalf("queue len = %d, want 2", n)
	}

	var delivered []types.ID
	err := q.Drain(ctx, func(_ context.Context, p QueuedPatch) error {
		delivered = append(delivered, p.SegmentID)
		return nil
	})
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(delivered) != 2 || delivered[0] != "seg-1" || delivered[1] != "seg-2" {
		t.Errorf("delivered = %v, want FIFO [seg-1 seg-2]", delivered)
	}
	if n, _ := q.Len(ctx); n != 0 {
		t.Errorf("queue len after drain = %d, want 0", n)
	}
}

func TestQueueDrainStopsOnFailureAndRequeues(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for _, id := range []types.ID{"seg-1", "seg-2", "seg-3"} {
		if err := q.Enqueue(ctx, QueuedPatch{SegmentID: id}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	calls := 0
	err := q.Drain(ctx, func(_ context.Context, p QueuedPatch) error {
		calls++
		if p.SegmentID == "seg-2" {
			return errors.New("still offline")
		}
		return nil
	})
	if err == nil {
		t.Fatal("drain should surface the delivery failure")
	}
	if calls != 2 {
		t.Errorf("deliveries attempted = %d, want 2", calls)
	}
	// the failed patch is requeued at the head, seg-3 untouched behind it
	if n, _ := q.Len(ctx); n != 2 {
		t.Errorf("queue len = %d, want 2", n)
	}

	var next []types.ID
	_ = q.Drain(ctx, func(_ context.Context, p QueuedPatch) error {
		next = append(next, p.SegmentID)
		return nil
	})
	if len(next) != 2 || next[0] != "seg-2" || next[1] != "seg-3" {
		t.Errorf("second drain order = %v, want [seg-2 seg-3]", next)
	}
}
