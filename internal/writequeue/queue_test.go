package writequeue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pebblestore "github.com/TheshibaBull/lifebook-health-story-sub002/internal/storage/pebble"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	q, err := Open(db, "writes", Options{})
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	return q
}

func TestEnqueueAssignsIDAndCounts(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	seq, err := q.Enqueue(ctx, Mutation{Kind: "create", Record: "rec-1"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if seq == 0 {
		t.Fatalf("want seq > 0")
	}
	if q.PendingCount() != 1 {
		t.Fatalf("pending = %d, want 1", q.PendingCount())
	}
}

func TestSnapshotEnqueueOrder(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		body, _ := json.Marshal(map[string]int{"i": i})
		if _, err := q.Enqueue(ctx, Mutation{Kind: "update", Body: body}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	items := q.Snapshot()
	if len(items) != 5 {
		t.Fatalf("want 5 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Seq <= items[i-1].Seq {
			t.Fatalf("snapshot out of order at %d", i)
		}
	}
}

func TestAckRemovesOnlyAcked(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	var seqs []uint64
	for i := 0; i < 3; i++ {
		s, _ := q.Enqueue(ctx, Mutation{Kind: "create"})
		seqs = append(seqs, s)
	}
	if err := q.Ack(ctx, seqs[0]); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if q.PendingCount() != 2 {
		t.Fatalf("pending = %d, want 2", q.PendingCount())
	}
	items := q.Snapshot()
	if items[0].Seq != seqs[1] || items[1].Seq != seqs[2] {
		t.Fatalf("remaining items wrong: %+v", items)
	}
	// repeat ack of the same seq is harmless
	if err := q.Ack(ctx, seqs[0]); err != nil {
		t.Fatalf("repeat ack: %v", err)
	}
	if q.PendingCount() != 2 {
		t.Fatalf("pending changed on repeat ack")
	}
}

func TestPendingSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	q, err := Open(db, "writes", Options{})
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	ctx := context.Background()
	const k = 4
	for i := 0; i < k; i++ {
		if _, err := q.Enqueue(ctx, Mutation{Kind: "create"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	q2, err := Open(db2, "writes", Options{})
	if err != nil {
		t.Fatalf("reopen queue: %v", err)
	}
	if q2.PendingCount() != k {
		t.Fatalf("pending after reopen = %d, want %d", q2.PendingCount(), k)
	}
	if items := q2.Snapshot(); len(items) != k {
		t.Fatalf("snapshot after reopen = %d, want %d", len(items), k)
	}
}

func TestDegradedEnqueueStillPending(t *testing.T) {
	q := openTestQueue(t)
	ctx := context.Background()
	// unmarshalable body forces the in-memory path
	seq, err := q.Enqueue(ctx, Mutation{Kind: "create", Body: json.RawMessage("{")})
	if !errors.Is(err, ErrDegraded) {
		t.Fatalf("want ErrDegraded, got %v", err)
	}
	if q.PendingCount() != 1 {
		t.Fatalf("degraded mutation not pending")
	}
	items := q.Snapshot()
	if len(items) != 1 || items[0].Seq != seq {
		t.Fatalf("degraded mutation missing from snapshot: %+v", items)
	}
	if err := q.Ack(ctx, seq); err != nil {
		t.Fatalf("ack degraded: %v", err)
	}
	if q.PendingCount() != 0 {
		t.Fatalf("degraded mutation not removed by ack")
	}
}
