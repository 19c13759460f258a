package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/connectivity"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/metrics"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/writequeue"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Applier performs the one remote operation the coordinator needs: apply a
// single mutation to the system of record. Any error is a failed apply.
type Applier interface {
	Apply(ctx context.Context, m writequeue.Mutation) error
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(ctx context.Context, m writequeue.Mutation) error

func (f ApplierFunc) Apply(ctx context.Context, m writequeue.Mutation) error { return f(ctx, m) }

// Outcome reports a finished flush. Applied mutations are removed from the
// queue even when the batch stopped early; Remaining counts what is still
// pending.
type Outcome struct {
	Applied   int
	Remaining int
	Err       error
}

// OK reports whether the whole batch was applied.
func (o Outcome) OK() bool { return o.Err == nil }

// Options configures a Coordinator.
type Options struct {
	// PollInterval triggers periodic flushes while online, catching
	// mutations enqueued before the connectivity watcher attached. Zero
	// disables polling.
	PollInterval time.Duration
	Logger       logpkg.Logger
}

// Coordinator drains the offline write queue against the remote system. It
// guarantees at most one flush in flight: concurrent callers join the running
// flush and receive its outcome.
type Coordinator struct {
	queue   *writequeue.Queue
	applier Applier
	monitor *connectivity.Monitor
	logger  logpkg.Logger
	poll    time.Duration

	mu       sync.Mutex
	inflight *flight
	started  bool

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// flight tracks one running flush so joiners can await its outcome.
type flight struct {
	done    chan struct{}
	outcome Outcome
}

// New builds a Coordinator. Call Start to attach the connectivity watcher.
func New(queue *writequeue.Queue, applier Applier, monitor *connectivity.Monitor, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	return &Coordinator{
		queue:   queue,
		applier: applier,
		monitor: monitor,
		logger:  opts.Logger.With(logpkg.Component("sync")),
		poll:    opts.PollInterval,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// PendingCount reports queued mutations without touching the network.
func (c *Coordinator) PendingCount() int { return c.queue.PendingCount() }

// CanFlush is the manual-trigger guard: false while offline or while a flush
// is already running. A false answer is not an error condition.
func (c *Coordinator) CanFlush() bool {
	if c.monitor != nil && c.monitor.State() != connectivity.Online {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight == nil
}

// Flush drains the pending batch in enqueue order. If a flush is already in
// flight the call joins it and returns that flush's outcome. Each applied
// mutation is acked immediately, so partial progress survives a mid-batch
// failure; the failed mutation and everything after it stay queued.
func (c *Coordinator) Flush(ctx context.Context) Outcome {
	c.mu.Lock()
	if f := c.inflight; f != nil {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.outcome
		case <-ctx.Done():
			return Outcome{Remaining: c.queue.PendingCount(), Err: ctx.Err()}
		}
	}
	f := &flight{done: make(chan struct{})}
	c.inflight = f
	c.mu.Unlock()

	// the guard below must run even if an apply panics, or the coordinator
	// would stay locked forever
	defer func() {
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
		close(f.done)
	}()

	f.outcome = c.drain(ctx)
	return f.outcome
}

func (c *Coordinator) drain(ctx context.Context) Outcome {
	metrics.FlushAttempts.Inc()
	batch := c.queue.Snapshot()
	if len(batch) == 0 {
		return Outcome{}
	}
	if c.applier == nil {
		return Outcome{Remaining: len(batch), Err: errors.New("syncsvc: no remote applier configured")}
	}

	applied := 0
	var failure error
	for _, item := range batch {
		if err := ctx.Err(); err != nil {
			failure = err
			break
		}
		if err := c.applier.Apply(ctx, item.Mutation); err != nil {
			failure = fmt.Errorf("apply mutation %s: %w", item.Mutation.ID, err)
			break
		}
		if err := c.queue.Ack(ctx, item.Seq); err != nil {
			// the remote has it; losing the ack means a duplicate send
			// later, which the mutation id lets the remote deduplicate
			c.logger.Warn("ack failed after successful apply",
				logpkg.Err(err), logpkg.Str("mutation_id", item.Mutation.ID))
		}
		applied++
		metrics.MutationsApplied.Inc()
	}

	remaining := c.queue.PendingCount()
	metrics.QueuePending.Set(float64(remaining))
	if failure != nil {
		metrics.FlushFailures.Inc()
		c.logger.Warn("flush stopped early",
			logpkg.Err(failure), logpkg.Int("applied", applied), logpkg.Int("remaining", remaining))
		return Outcome{Applied: applied, Remaining: remaining, Err: failure}
	}
	c.logger.Info("flush finished", logpkg.Int("applied", applied))
	return Outcome{Applied: applied, Remaining: remaining}
}

// Start attaches the connectivity watcher and the optional polling ticker.
// A transition to online triggers a flush; polling flushes while online when
// mutations are pending. Both stop when ctx is done or Close is called.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	var transitions <-chan connectivity.State
	cancel := func() {}
	if c.monitor != nil {
		transitions, cancel = c.monitor.Subscribe()
	}

	go func() {
		defer close(c.done)
		defer cancel()

		var tick <-chan time.Time
		if c.poll > 0 {
			ticker := time.NewTicker(c.poll)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case s, ok := <-transitions:
				if !ok {
					transitions = nil
					continue
				}
				if s == connectivity.Online {
					_ = c.Flush(ctx)
				}
			case <-tick:
				if c.monitor != nil && c.monitor.State() != connectivity.Online {
					continue
				}
				if c.queue.PendingCount() > 0 {
					_ = c.Flush(ctx)
				}
			}
		}
	}()
}

// Close stops the watcher goroutine and waits for it to exit.
func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}
