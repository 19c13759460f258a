package alert

import (
	"context"

	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Event is the high-risk audit event handed to alert sinks. It is a copy of
// the audit fields so sinks stay decoupled from the audit service.
type Event struct {
	ID          string                 `json:"id"`
	TimestampMs int64                  `json:"ts_ms"`
	UserID      string                 `json:"user_id"`
	Action      string                 `json:"action"`
	Resource    string                 `json:"resource"`
	Risk        string                 `json:"risk"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Notifier delivers one alert. Delivery is best-effort; callers never let a
// sink failure affect the operation that raised the alert.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogNotifier writes alerts as warning log lines. It is the sink of last
// resort and always configured.
type LogNotifier struct {
	logger logpkg.Logger
}

// NewLogNotifier returns a Notifier logging through logger.
func NewLogNotifier(logger logpkg.Logger) *LogNotifier {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &LogNotifier{logger: logger.With(logpkg.Component("alert"))}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.logger.Warn("high-risk audit event",
		logpkg.Str("event_id", ev.ID),
		logpkg.Str("user", ev.UserID),
		logpkg.Str("action", ev.Action),
		logpkg.Str("resource", ev.Resource),
	)
	return nil
}

// Fanout delivers to every configured sink. Individual failures are logged
// and swallowed; Notify never returns an error.
type Fanout struct {
	sinks  []Notifier
	logger logpkg.Logger
}

// NewFanout builds a Fanout over the given sinks.
func NewFanout(logger logpkg.Logger, sinks ...Notifier) *Fanout {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &Fanout{sinks: sinks, logger: logger.With(logpkg.Component("alert"))}
}

func (f *Fanout) Notify(ctx context.Context, ev Event) error {
	for _, s := range f.sinks {
		if err := s.Notify(ctx, ev); err != nil {
			f.logger.Warn("alert sink failed", logpkg.Err(err), logpkg.Str("event_id", ev.ID))
		}
	}
	return nil
}
