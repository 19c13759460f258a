package eventstore

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/metrics"
	pebblestore "github.com/TheshibaBull/lifebook-health-story-sub002/internal/storage/pebble"
	"github.com/TheshibaBull/lifebook-health-story-sub002/pkg/id"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// DefaultCapacity bounds a namespace when Options.Capacity is zero.
const DefaultCapacity = 1000

// ErrDegraded marks an append that could not reach storage. The event is kept
// in the in-memory mirror for the rest of the process, so callers treat this
// as a warning, not a loss.
var ErrDegraded = errors.New("eventstore: append degraded to in-memory mirror")

// Options configures a Store namespace.
type Options struct {
	// Capacity bounds the number of retained entries. Oldest entries are
	// evicted first when the bound is exceeded. Zero means DefaultCapacity.
	Capacity int
	// Generator supplies event IDs and timestamps. A private generator is
	// created when nil.
	Generator *id.Generator
	Logger    logpkg.Logger
}

// Store is a capped, ordered, append-only collection of events under a single
// namespace. Appends are serialized by a per-store mutex; entries are
// immutable once written.
type Store struct {
	db        *pebblestore.DB
	namespace string
	capacity  int
	gen       *id.Generator
	logger    logpkg.Logger

	mu      sync.Mutex
	lastSeq uint64
	count   uint64
	// mirror holds events whose persist failed; served by ReadAll for the
	// remainder of the process session.
	mirror []Event
}

// Open initializes a Store and loads sequence/count metadata if present.
func Open(db *pebblestore.DB, namespace string, opts Options) (*Store, error) {
	if namespace == "" {
		return nil, errors.New("eventstore: namespace is required")
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Generator == nil {
		opts.Generator = id.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	s := &Store{
		db:        db,
		namespace: namespace,
		capacity:  opts.Capacity,
		gen:       opts.Generator,
		logger:    opts.Logger.With(logpkg.Component("eventstore"), logpkg.Str("namespace", namespace)),
	}
	if meta, err := db.Get(keyMeta(namespace)); err == nil && len(meta) >= 16 {
		s.lastSeq = binary.BigEndian.Uint64(meta[0:8])
		s.count = binary.BigEndian.Uint64(meta[8:16])
	}
	return s, nil
}

// Namespace returns the store's namespace.
func (s *Store) Namespace() string { return s.namespace }

// Capacity returns the configured retention bound.
func (s *Store) Capacity() int { return s.capacity }

// Append persists ev, assigning its ID and timestamp when unset, and evicts
// the oldest entries beyond capacity in the same atomic batch. On storage
// failure it keeps the event in the in-memory mirror and returns the event
// together with ErrDegraded; the event is never silently dropped within the
// session.
func (s *Store) Append(ctx context.Context, ev Event) (Event, uint64, error) {
	if ev.ID == "" {
		eid := s.gen.Next()
		ev.ID = eid.String()
		if ev.TimestampMs == 0 {
			ev.TimestampMs = eid.TimeMs()
		}
	} else if ev.TimestampMs == 0 {
		ev.TimestampMs = id.NowMs()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := encodeEntry(ev)
	if err != nil {
		s.mirror = append(s.mirror, ev)
		s.logger.Warn("event not encodable, kept in memory only", logpkg.Err(err), logpkg.Str("event_id", ev.ID))
		return ev, 0, ErrDegraded
	}

	b := s.db.NewBatch()
	defer b.Close()

	seq := s.lastSeq + 1
	if err := b.Set(keyEntry(s.namespace, seq), val, nil); err != nil {
		return s.degrade(ev, err)
	}

	count := s.count + 1
	evicted, err := s.evictOverflow(b, count)
	if err != nil {
		return s.degrade(ev, err)
	}
	count -= evicted

	var meta [16]byte
	binary.BigEndian.PutUint64(meta[0:8], seq)
	binary.BigEndian.PutUint64(meta[8:16], count)
	if err := b.Set(keyMeta(s.namespace), meta[:], nil); err != nil {
		return s.degrade(ev, err)
	}

	if err := s.db.CommitBatch(ctx, b); err != nil {
		return s.degrade(ev, err)
	}
	s.lastSeq = seq
	s.count = count
	if evicted > 0 {
		metrics.EventsEvicted.WithLabelValues(s.namespace).Add(float64(evicted))
	}
	return ev, seq, nil
}

// degrade records a failed persist in the mirror. Called with s.mu held.
func (s *Store) degrade(ev Event, cause error) (Event, uint64, error) {
	s.mirror = append(s.mirror, ev)
	s.logger.Warn("append failed, event kept in memory for this session",
		logpkg.Err(cause), logpkg.Str("event_id", ev.ID))
	return ev, 0, ErrDegraded
}

// evictOverflow adds deletes for the oldest entries to b until newCount fits
// the capacity. Returns how many entries were marked for eviction.
func (s *Store) evictOverflow(b *pebble.Batch, newCount uint64) (uint64, error) {
	if newCount <= uint64(s.capacity) {
		return 0, nil
	}
	over := newCount - uint64(s.capacity)

	low, hi := entryBounds(s.namespace)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	var evicted uint64
	for ok := iter.First(); ok && evicted < over; ok = iter.Next() {
		if err := b.Delete(iter.Key(), nil); err != nil {
			return evicted, err
		}
		evicted++
	}
	return evicted, nil
}

// ReadAll returns a snapshot of stored events passing the filter, in append
// (chronological) order. Degraded-mode mirror events are included after the
// persisted ones so nothing recorded in this session is invisible.
func (s *Store) ReadAll(filter Filter) []Event {
	s.mu.Lock()
	mirror := append([]Event(nil), s.mirror...)
	s.mu.Unlock()

	out := make([]Event, 0, 64)
	low, hi := entryBounds(s.namespace)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err == nil {
		defer iter.Close()
		for ok := iter.First(); ok; ok = iter.Next() {
			if ts, tok := entryTimestampMs(iter.Value()); tok {
				if filter.StartMs != 0 && ts < filter.StartMs {
					continue
				}
				if filter.EndMs != 0 && ts > filter.EndMs {
					continue
				}
			}
			ev, dok := decodeEntry(iter.Value())
			if !dok {
				continue
			}
			if filter.Match(ev) {
				out = append(out, ev)
			}
		}
	}
	for _, ev := range mirror {
		if filter.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of persisted entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.count)
}

// Clear removes every persisted entry and the session mirror. The sequence
// counter is preserved so sequence numbers are never reused.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()

	low, hi := entryBounds(s.namespace)
	if err := b.DeleteRange(low, hi, nil); err != nil {
		return err
	}
	var meta [16]byte
	binary.BigEndian.PutUint64(meta[0:8], s.lastSeq)
	if err := b.Set(keyMeta(s.namespace), meta[:], nil); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	s.count = 0
	s.mirror = nil
	return nil
}
