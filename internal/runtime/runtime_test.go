package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/TheshibaBull/lifebook-health-story-sub002/internal/config"
)

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenStores(t *testing.T) {
	cfg := testConfig(t)
	rt, err := Open(Options{Config: cfg})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	store, err := rt.OpenEventStore("audit", cfg.AuditCapacity)
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	if store.Capacity() != cfg.AuditCapacity {
		t.Fatalf("capacity: %d", store.Capacity())
	}
	if _, err := rt.OpenQueue("records"); err != nil {
		t.Fatalf("open queue: %v", err)
	}
}
