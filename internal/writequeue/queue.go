package writequeue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/TheshibaBull/lifebook-health-story-sub002/internal/storage/pebble"
	"github.com/TheshibaBull/lifebook-health-story-sub002/pkg/id"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Mutation is a locally-originated change waiting to reach the remote system
// of record.
type Mutation struct {
	ID           string          `json:"id"`
	EnqueuedAtMs int64           `json:"enqueued_at_ms"`
	// Kind names the operation: create, update, delete.
	Kind   string          `json:"kind"`
	Record string          `json:"record,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Item is a pending mutation plus its queue position.
type Item struct {
	Seq      uint64
	Mutation Mutation
}

// ErrDegraded marks an enqueue that could not reach storage. The mutation is
// retained in memory for this session and still flushes; it just does not
// survive a restart.
var ErrDegraded = errors.New("writequeue: enqueue degraded to in-memory only")

// Options configures a Queue.
type Options struct {
	Generator *id.Generator
	Logger    logpkg.Logger
}

// Queue is the durable offline write queue. Every entry represents a mutation
// not yet confirmed applied remotely; entries leave the queue only through
// Ack after a confirmed remote apply, never through capacity eviction.
type Queue struct {
	db        *pebblestore.DB
	namespace string
	gen       *id.Generator
	logger    logpkg.Logger

	mu      sync.Mutex
	lastSeq uint64
	count   uint64
	// mirror holds mutations whose persist failed, keyed by assigned seq.
	mirror map[uint64]Mutation
}

// Open initializes a Queue and restores metadata from storage.
func Open(db *pebblestore.DB, namespace string, opts Options) (*Queue, error) {
	if namespace == "" {
		return nil, errors.New("writequeue: namespace is required")
	}
	if opts.Generator == nil {
		opts.Generator = id.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	q := &Queue{
		db:        db,
		namespace: namespace,
		gen:       opts.Generator,
		logger:    opts.Logger.With(logpkg.Component("writequeue"), logpkg.Str("namespace", namespace)),
		mirror:    map[uint64]Mutation{},
	}
	if meta, err := db.Get(metaKey(namespace)); err == nil && len(meta) >= 16 {
		q.lastSeq = binary.BigEndian.Uint64(meta[0:8])
		q.count = binary.BigEndian.Uint64(meta[8:16])
	}
	return q, nil
}

// Enqueue appends m locally and returns without contacting the remote system.
// The mutation's ID and enqueue time are assigned when unset. A storage
// failure degrades to in-memory retention and returns ErrDegraded alongside
// the assigned sequence.
func (q *Queue) Enqueue(ctx context.Context, m Mutation) (uint64, error) {
	if m.ID == "" {
		mid := q.gen.Next()
		m.ID = mid.String()
		if m.EnqueuedAtMs == 0 {
			m.EnqueuedAtMs = mid.TimeMs()
		}
	} else if m.EnqueuedAtMs == 0 {
		m.EnqueuedAtMs = id.NowMs()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastSeq++
	seq := q.lastSeq

	val, err := json.Marshal(m)
	if err != nil {
		return q.degrade(seq, m, err)
	}

	b := q.db.NewBatch()
	defer b.Close()
	if err := b.Set(entryKey(q.namespace, seq), val, nil); err != nil {
		return q.degrade(seq, m, err)
	}
	if err := b.Set(metaKey(q.namespace), encodeMeta(seq, q.count+1), nil); err != nil {
		return q.degrade(seq, m, err)
	}
	if err := q.db.CommitBatch(ctx, b); err != nil {
		return q.degrade(seq, m, err)
	}
	q.count++
	return seq, nil
}

// degrade keeps a failed persist in memory. Called with q.mu held.
func (q *Queue) degrade(seq uint64, m Mutation, cause error) (uint64, error) {
	q.mirror[seq] = m
	q.logger.Warn("enqueue failed, mutation kept in memory for this session",
		logpkg.Err(cause), logpkg.Str("mutation_id", m.ID))
	return seq, ErrDegraded
}

// PendingCount returns the number of mutations awaiting remote application.
// It never blocks on network activity.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.count) + len(q.mirror)
}

// Snapshot returns the pending batch in enqueue order. The snapshot is a
// copy; later appends or acks do not change it.
func (q *Queue) Snapshot() []Item {
	q.mu.Lock()
	mirror := make([]Item, 0, len(q.mirror))
	for seq, m := range q.mirror {
		mirror = append(mirror, Item{Seq: seq, Mutation: m})
	}
	q.mu.Unlock()

	items := make([]Item, 0, 16)
	low, hi := entryBounds(q.namespace)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err == nil {
		defer iter.Close()
		for ok := iter.First(); ok; ok = iter.Next() {
			var m Mutation
			if err := json.Unmarshal(iter.Value(), &m); err != nil {
				continue
			}
			items = append(items, Item{Seq: seqFromEntryKey(iter.Key()), Mutation: m})
		}
	}
	items = append(items, mirror...)
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items
}

// Ack removes mutations confirmed applied remotely. Unknown sequences are
// ignored, so acking after a partial flush is safe to repeat.
func (q *Queue) Ack(ctx context.Context, seqs ...uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()

	removed := uint64(0)
	for _, seq := range seqs {
		if _, ok := q.mirror[seq]; ok {
			delete(q.mirror, seq)
			continue
		}
		key := entryKey(q.namespace, seq)
		if _, err := q.db.Get(key); err != nil {
			if pebblestore.IsNotFound(err) {
				continue
			}
			return err
		}
		if err := b.Delete(key, nil); err != nil {
			return err
		}
		removed++
	}
	if removed == 0 {
		return nil
	}
	newCount := q.count - removed
	if err := b.Set(metaKey(q.namespace), encodeMeta(q.lastSeq, newCount), nil); err != nil {
		return err
	}
	if err := q.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	q.count = newCount
	return nil
}

func encodeMeta(lastSeq, count uint64) []byte {
	var meta [16]byte
	binary.BigEndian.PutUint64(meta[0:8], lastSeq)
	binary.BigEndian.PutUint64(meta[8:16], count)
	return meta[:]
}
