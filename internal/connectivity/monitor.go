package connectivity

import (
	"context"
	"sync"
	"time"

	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// State is the connectivity state seen by the monitor.
type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Prober answers whether the remote system is reachable right now.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// Options configures a Monitor.
type Options struct {
	// Prober decides reachability. Required to Start the probe loop; a
	// monitor driven purely by SetState may leave it nil.
	Prober Prober
	// Interval between probes. Zero means 15s.
	Interval time.Duration
	// Initial is the state assumed before the first probe.
	Initial State
	Logger  logpkg.Logger
}

// Monitor emits online/offline transitions to subscribers. Transitions carry
// no payload; the new State is the whole event.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   logpkg.Logger

	mu    sync.Mutex
	state State
	subs  map[int]chan State
	nextK int

	stopOnce sync.Once
	stopCh   chan struct{}
	started  bool
	done     chan struct{}
}

// New creates a Monitor. Call Start to begin probing.
func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	return &Monitor{
		prober:   opts.Prober,
		interval: opts.Interval,
		logger:   opts.Logger.With(logpkg.Component("connectivity")),
		state:    opts.Initial,
		subs:     map[int]chan State{},
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers for transition events. The returned channel is buffered;
// a subscriber that falls behind loses intermediate transitions, never the
// channel. Call the returned cancel func to unsubscribe.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.nextK
	m.nextK++
	ch := make(chan State, 4)
	m.subs[k] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[k]; ok {
			delete(m.subs, k)
			close(c)
		}
	}
}

// SetState injects a state observation, emitting a transition if it changed.
// The probe loop uses this; tests and manual overrides may call it directly.
func (m *Monitor) SetState(s State) {
	m.mu.Lock()
	if s == m.state {
		m.mu.Unlock()
		return
	}
	m.state = s
	subs := make([]chan State, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity transition", logpkg.Str("state", s.String()))
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// drop rather than block the monitor
		}
	}
}

// Start launches the probe loop. It stops when ctx is done or Close is
// called. Start is a no-op without a Prober, and must be called at most once.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.prober == nil || m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		m.probeOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.probeOnce(ctx)
			}
		}
	}()
}

func (m *Monitor) probeOnce(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	if m.prober.Probe(pctx) {
		m.SetState(Online)
	} else {
		m.SetState(Offline)
	}
}

// Close stops the probe loop and waits for it to exit.
func (m *Monitor) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}
