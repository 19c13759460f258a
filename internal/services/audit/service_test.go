package auditsvc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/alert"
	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/eventstore"
	pebblestore "github.com/TheshibaBull/lifebook-health-story-sub002/internal/storage/pebble"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []alert.Event
}

func (n *captureNotifier) Notify(_ context.Context, ev alert.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func newTestService(t *testing.T, capacity int) (*Service, *captureNotifier) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := eventstore.Open(db, Namespace, eventstore.Options{Capacity: capacity})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	n := &captureNotifier{}
	return New(store, Options{Notifier: n, Agent: "test-agent"}), n
}

func TestLogAndQuery(t *testing.T) {
	svc, _ := newTestService(t, 100)
	ctx := context.Background()
	svc.Log(ctx, "u1", "record_viewed", "record/42", map[string]interface{}{"section": "meds"}, RiskLow)
	svc.Log(ctx, "u2", "record_updated", "record/42", nil, RiskMedium)

	entries, err := svc.Logs(Query{})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" || e.TimestampMs == 0 || e.UserID != "u1" || e.Action != "record_viewed" || e.Agent != "test-agent" {
		t.Fatalf("entry incomplete: %+v", e)
	}
	if e.Origin != "" {
		t.Fatalf("client-path entries must not claim an origin, got %q", e.Origin)
	}
	if e.Details["section"] != "meds" {
		t.Fatalf("details lost: %+v", e.Details)
	}
}

func TestCapacityKeepsLastN(t *testing.T) {
	const n = 5
	svc, _ := newTestService(t, n)
	ctx := context.Background()
	for i := 0; i < 13; i++ {
		svc.Log(ctx, "u1", "action", "res", map[string]interface{}{"i": i}, RiskLow)
	}
	entries, err := svc.Logs(Query{})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("want exactly %d entries, got %d", n, len(entries))
	}
	for i, e := range entries {
		// json numbers decode as float64
		if int(e.Details["i"].(float64)) != 8+i {
			t.Fatalf("expected entry %d at position %d, got %v", 8+i, i, e.Details["i"])
		}
	}
}

func TestHighRiskEscalatesExactlyOnce(t *testing.T) {
	svc, n := newTestService(t, 100)
	ctx := context.Background()
	svc.Log(ctx, "u1", "export_all", "records", nil, RiskHigh)
	if n.count() != 1 {
		t.Fatalf("high risk: want exactly 1 alert, got %d", n.count())
	}
	svc.Log(ctx, "u1", "view", "record/1", nil, RiskLow)
	svc.Log(ctx, "u1", "edit", "record/1", nil, RiskMedium)
	if n.count() != 1 {
		t.Fatalf("low/medium must not alert, got %d", n.count())
	}
	got := n.events[0]
	if got.Action != "export_all" || got.Risk != "high" || got.ID == "" {
		t.Fatalf("alert payload wrong: %+v", got)
	}
}

func TestLogDefaultsForMalformedInput(t *testing.T) {
	svc, _ := newTestService(t, 100)
	svc.Log(context.Background(), "", "", "", nil, RiskLevel("loud"))
	entries, _ := svc.Logs(Query{})
	if len(entries) != 1 {
		t.Fatalf("malformed input must still record, got %d", len(entries))
	}
	e := entries[0]
	if e.UserID != "unknown" || e.Action != "unspecified" || e.Risk != RiskLow {
		t.Fatalf("defaults not applied: %+v", e)
	}
}

func TestQueryByUserAndTime(t *testing.T) {
	svc, _ := newTestService(t, 100)
	ctx := context.Background()
	svc.Log(ctx, "u1", "a1", "r", nil, RiskLow)
	svc.Log(ctx, "u2", "a2", "r", nil, RiskLow)
	svc.Log(ctx, "u1", "a3", "r", nil, RiskLow)

	all, _ := svc.Logs(Query{})
	if len(all) != 3 {
		t.Fatalf("want 3, got %d", len(all))
	}
	t1, t2 := all[0].TimestampMs, all[2].TimestampMs

	got, _ := svc.Logs(Query{UserID: "u1", StartMs: t1, EndMs: t2})
	if len(got) != 2 {
		t.Fatalf("user+time filter: want 2, got %d", len(got))
	}
	for _, e := range got {
		if e.UserID != "u1" || e.TimestampMs < t1 || e.TimestampMs > t2 {
			t.Fatalf("entry outside filter: %+v", e)
		}
	}
}

func TestCELFilter(t *testing.T) {
	svc, _ := newTestService(t, 100)
	ctx := context.Background()
	svc.Log(ctx, "u1", "record_viewed", "record/1", nil, RiskLow)
	svc.Log(ctx, "u1", "record_deleted", "record/2", nil, RiskHigh)

	got, err := svc.Logs(Query{Filter: `risk == "high" && action.startsWith("record_")`})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(got) != 1 || got[0].Action != "record_deleted" {
		t.Fatalf("cel filter wrong: %+v", got)
	}

	if _, err := svc.Logs(Query{Filter: "this is not cel"}); err == nil {
		t.Fatalf("expected error for invalid filter expression")
	}
}

func TestExportIncludesPriorSessions(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	store, _ := eventstore.Open(db, Namespace, eventstore.Options{})
	svc := New(store, Options{})
	svc.Log(context.Background(), "u1", "first_session", "r", nil, RiskLow)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = db2.Close() })
	store2, _ := eventstore.Open(db2, Namespace, eventstore.Options{})
	svc2 := New(store2, Options{})
	svc2.Log(context.Background(), "u1", "second_session", "r", nil, RiskLow)

	raw, err := svc2.Export(Query{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("export not valid json: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("export must include prior-session entries, got %d", len(entries))
	}
	if entries[0].Action != "first_session" || entries[1].Action != "second_session" {
		t.Fatalf("export order wrong: %+v", entries)
	}
}

func TestParseRisk(t *testing.T) {
	if ParseRisk("high") != RiskHigh || ParseRisk("medium") != RiskMedium {
		t.Fatalf("parse known levels")
	}
	if ParseRisk("") != RiskLow || ParseRisk("extreme") != RiskLow {
		t.Fatalf("unknown levels default to low")
	}
}
