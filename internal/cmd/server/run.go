package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/alert"
	cfgpkg "github.com/TheshibaBull/lifebook-health-story-sub002/internal/config"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/connectivity"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/remote"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/runtime"
	httpserver "github.com/TheshibaBull/lifebook-health-story-sub002/internal/server/http"
	auditsvc "github.com/TheshibaBull/lifebook-health-story-sub002/internal/services/audit"
	syncsvc "github.com/TheshibaBull/lifebook-health-story-sub002/internal/services/sync"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Options for Run.
type Options struct {
	Config cfgpkg.Config
}

// buildLogger constructs the process logger from config, falling back to
// info/text on bad input.
func buildLogger(cfg cfgpkg.Config) logpkg.Logger {
	lvl := logpkg.InfoLevel
	if l, err := logpkg.ParseLevel(cfg.LogLevel); err == nil {
		lvl = l
	}
	var f logpkg.Formatter = &logpkg.TextFormatter{}
	if cfg.LogFormat == "json" {
		f = &logpkg.JSONFormatter{}
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(f))
}

// buildNotifier fans out to every configured alert sink. The log sink is
// always present so high-risk events are never silently escalated to nobody.
func buildNotifier(cfg cfgpkg.Config, logger logpkg.Logger) (alert.Notifier, func()) {
	sinks := []alert.Notifier{alert.NewLogNotifier(logger)}
	closers := []func(){}
	if m, err := alert.NewMailNotifier(cfg.Alerts.Mail); err == nil {
		sinks = append(sinks, m)
	} else if cfg.Alerts.Mail.Host != "" {
		logger.Warn("mail alert sink not wired", logpkg.Err(err))
	}
	if k, err := alert.NewKafkaNotifier(cfg.Alerts.Kafka); err == nil {
		sinks = append(sinks, k)
		closers = append(closers, func() { _ = k.Close() })
	} else if len(cfg.Alerts.Kafka.Brokers) > 0 {
		logger.Warn("kafka alert sink not wired", logpkg.Err(err))
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return alert.NewFanout(logger, sinks...), closeAll
}

// Run wires the full stack and blocks until ctx is cancelled or a signal
// arrives.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	cfg.DataDir = filepath.Join(cfg.DataDir, "store")

	logger := buildLogger(cfg)
	logger.Info("starting lifebook server",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("fsync", cfg.Fsync),
		logpkg.Int("audit_capacity", cfg.AuditCapacity),
	)

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	queue, err := rt.OpenQueue("records")
	if err != nil {
		return err
	}
	store, err := rt.OpenEventStore("audit", cfg.AuditCapacity)
	if err != nil {
		return err
	}

	notifier, closeSinks := buildNotifier(cfg, logger)
	defer closeSinks()
	audit := auditsvc.New(store, auditsvc.Options{Notifier: notifier, Logger: logger})

	var prober connectivity.Prober
	var applier syncsvc.Applier
	if cfg.Remote.BaseURL != "" {
		client, err := remote.New(remote.Options{BaseURL: cfg.Remote.BaseURL, Timeout: cfg.Remote.Timeout})
		if err != nil {
			return err
		}
		prober = client
		applier = client
	} else {
		// No remote configured: stay offline, queue locally. Flushes become
		// possible once a remote is configured and the process restarts.
		logger.Warn("no remote base url configured, running offline-only")
	}

	monitor := connectivity.New(connectivity.Options{
		Prober:   prober,
		Interval: cfg.Sync.ProbeInterval,
		Initial:  connectivity.Offline,
		Logger:   logger,
	})
	monitor.Start(sctx)
	defer monitor.Close()

	coord := syncsvc.New(queue, applier, monitor, syncsvc.Options{
		PollInterval: cfg.Sync.PollInterval,
		Logger:       logger,
	})
	coord.Start(sctx)
	defer coord.Close()

	hsrv := httpserver.New(httpserver.Deps{Runtime: rt, Queue: queue, Sync: coord, Audit: audit})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, cfg.HTTPAddr); err != nil && sctx.Err() == nil {
			logger.Error("http server error", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Shut servers down before closing the runtime/DB to avoid races.
	hsrv.Close()
	wg.Wait()
	return nil
}
