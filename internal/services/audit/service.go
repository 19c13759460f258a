package auditsvc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/alert"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/eventstore"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/metrics"
	logpkg "github.com/TheshibaBull/lifebook-health-story-sub002/pkg/log"
)

// Namespace is the event store namespace holding the audit trail.
const Namespace = "audit"

// Options configures the Service.
type Options struct {
	// Notifier receives high-risk events. Nil disables escalation.
	Notifier alert.Notifier
	// Agent describes the recording process, stamped on every entry.
	Agent  string
	Logger logpkg.Logger
}

// Service records security/compliance events with a risk classification and
// answers retrospective queries. It is constructed once per process and
// injected where needed; there is no package-level shared state.
type Service struct {
	store    *eventstore.Store
	notifier alert.Notifier
	agent    string
	logger   logpkg.Logger
}

// New builds the audit trail over the given store namespace.
func New(store *eventstore.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	if opts.Agent == "" {
		opts.Agent = "lifebook"
	}
	return &Service{
		store:    store,
		notifier: opts.Notifier,
		agent:    opts.Agent,
		logger:   opts.Logger.With(logpkg.Component("audit")),
	}
}

// Log records one audit event. It never fails: missing fields get best-effort
// defaults, storage trouble degrades to the session mirror with a warning,
// and alert sink failures stay inside the side-channel. High-risk events
// escalate exactly once.
func (s *Service) Log(ctx context.Context, userID, action, resource string, details map[string]interface{}, risk RiskLevel) {
	if userID == "" {
		userID = "unknown"
	}
	if action == "" {
		action = "unspecified"
	}
	if resource == "" {
		resource = "unspecified"
	}
	switch risk {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		risk = RiskLow
	}

	body, err := json.Marshal(payload{Action: action, Resource: resource, Risk: risk, Details: details})
	if err != nil {
		// degenerate details document; drop it rather than the event
		body, _ = json.Marshal(payload{Action: action, Resource: resource, Risk: risk})
	}

	ev, _, err := s.store.Append(ctx, eventstore.Event{
		Actor:   userID,
		Agent:   s.agent,
		Payload: body,
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrDegraded) {
			metrics.AppendsDegraded.WithLabelValues(Namespace).Inc()
		} else {
			s.logger.Warn("audit append failed", logpkg.Err(err))
		}
	} else {
		metrics.EventsAppended.WithLabelValues(Namespace).Inc()
	}

	if risk == RiskHigh && s.notifier != nil {
		metrics.HighRiskAlerts.Inc()
		_ = s.notifier.Notify(ctx, alert.Event{
			ID:          ev.ID,
			TimestampMs: ev.TimestampMs,
			UserID:      userID,
			Action:      action,
			Resource:    resource,
			Risk:        string(risk),
			Details:     details,
		})
	}
}

// Logs returns persisted entries matching q in chronological order. Entries
// from prior sessions on the same device are included.
func (s *Service) Logs(q Query) ([]Entry, error) {
	flt, err := newCELFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	events := s.store.ReadAll(eventstore.Filter{Actor: q.UserID, StartMs: q.StartMs, EndMs: q.EndMs})
	out := make([]Entry, 0, len(events))
	for _, ev := range events {
		e := entryFromEvent(ev)
		if flt.Eval(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Export serializes entries matching q as JSON. It reads the same persisted
// collection as Logs, so exports include prior-session entries.
func (s *Service) Export(q Query) ([]byte, error) {
	entries, err := s.Logs(q)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(entries, "", "  ")
}

func entryFromEvent(ev eventstore.Event) Entry {
	var p payload
	_ = json.Unmarshal(ev.Payload, &p)
	if p.Risk == "" {
		p.Risk = RiskLow
	}
	return Entry{
		ID:          ev.ID,
		TimestampMs: ev.TimestampMs,
		UserID:      ev.Actor,
		Action:      p.Action,
		Resource:    p.Resource,
		Risk:        p.Risk,
		Origin:      ev.Origin,
		Agent:       ev.Agent,
		Details:     p.Details,
	}
}
