package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixedURL(u string) BaseURLFunc { return func() string { return u } }

func TestQueueAddPrintsSeq(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/queue/enqueue" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["kind"] != "update" {
			t.Errorf("kind: %v", req["kind"])
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"seq": 7})
	}))
	defer srv.Close()

	cmd := newQueueAddCommand(fixedURL(srv.URL))
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--kind", "update", "--record", "rec-1", "--body", `{"weight":72}`})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), `"seq":7`) {
		t.Fatalf("output: %s", buf.String())
	}
}

func TestQueueAddRejectsBadBody(t *testing.T) {
	cmd := newQueueAddCommand(fixedURL("http://unused"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--kind", "update", "--body", "{"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for invalid JSON body")
	}
}

func TestQueueFlushConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	cmd := newQueueFlushCommand(fixedURL(srv.URL))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "flush unavailable") {
		t.Fatalf("expected flush unavailable, got %v", err)
	}
}

func TestAuditListBuildsQuery(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"entries": []any{}})
	}))
	defer srv.Close()

	cmd := newAuditListCommand(fixedURL(srv.URL))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u1", "--start", "2026-01-02T03:04:05Z", "--filter", `risk == "high"`})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(got, "user_id=u1") {
		t.Fatalf("query: %s", got)
	}
	if !strings.Contains(got, "start_ms=") {
		t.Fatalf("query missing start_ms: %s", got)
	}
}

func TestAuditListRejectsBadBound(t *testing.T) {
	cmd := newAuditListCommand(fixedURL("http://unused"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--start", "yesterday"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for bad time bound")
	}
}

func TestAuditExportWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"x","user_id":"u1"}]`))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "audit.json")
	cmd := newAuditExportCommand(fixedURL(srv.URL))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--out", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), `"user_id":"u1"`) {
		t.Fatalf("export content: %s", string(b))
	}
}

func TestNewRootRegistersGroups(t *testing.T) {
	root := NewRoot(fixedURL("http://unused"))
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	if !names["queue"] || !names["audit"] {
		t.Fatalf("command groups: %v", names)
	}
}
