package runtime

import (
	"context"
	"errors"

	cfgpkg "github.com/TheshibaBull/lifebook-health-story-sub002/internal/config"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/eventstore"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/metrics"
	pebblestore "github.com/TheshibaBull/lifebook-health-story-sub002/internal/storage/pebble"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/writequeue"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires storage, config, and logging for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	logger logpkg.Logger
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.Config.DataDir,
		Fsync:   pebblestore.ParseFsyncMode(opts.Config.Fsync),
		Metrics: metrics.StoreHook{},
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config, logger: opts.Logger}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// OpenEventStore opens a capped event store for the given namespace.
func (r *Runtime) OpenEventStore(ns string, capacity int) (*eventstore.Store, error) {
	return eventstore.Open(r.db, ns, eventstore.Options{Capacity: capacity, Logger: r.logger})
}

// OpenQueue opens the offline write queue for the given namespace.
func (r *Runtime) OpenQueue(ns string) (*writequeue.Queue, error) {
	return writequeue.Open(r.db, ns, writequeue.Options{Logger: r.logger})
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
