package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr != ":8084" {
		t.Fatalf("default http addr: %s", cfg.HTTPAddr)
	}
	if cfg.AuditCapacity != 1000 {
		t.Fatalf("default audit capacity: %d", cfg.AuditCapacity)
	}
	if cfg.Fsync != "always" {
		t.Fatalf("default fsync: %s", cfg.Fsync)
	}
	if cfg.Sync.ProbeInterval != 15*time.Second {
		t.Fatalf("default probe interval: %v", cfg.Sync.ProbeInterval)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != Default().HTTPAddr {
		t.Fatalf("empty path should yield defaults")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lifebook.json")
	data := []byte(`{"httpAddr":":9090","auditCapacity":50,"remote":{"baseUrl":"http://records.internal"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.AuditCapacity != 50 {
		t.Fatalf("expected 50, got %d", cfg.AuditCapacity)
	}
	if cfg.Remote.BaseURL != "http://records.internal" {
		t.Fatalf("remote base url: %s", cfg.Remote.BaseURL)
	}
	// Untouched fields keep their defaults.
	if cfg.Fsync != "always" {
		t.Fatalf("fsync default lost: %s", cfg.Fsync)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lifebook.yaml")
	data := []byte("httpAddr: \":7070\"\nlogLevel: debug\nalerts:\n  kafka:\n    brokers: [\"k1:9092\"]\n    topic: audit-alerts\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("expected :7070, got %s", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level: %s", cfg.LogLevel)
	}
	if cfg.Alerts.Kafka.Topic != "audit-alerts" || len(cfg.Alerts.Kafka.Brokers) != 1 {
		t.Fatalf("kafka sink config: %+v", cfg.Alerts.Kafka)
	}
}

func TestLoadBadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(file, []byte("{"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("LIFEBOOK_HTTP_ADDR", ":6060")
	os.Setenv("LIFEBOOK_AUDIT_CAPACITY", "200")
	os.Setenv("LIFEBOOK_REMOTE_TIMEOUT_MS", "2500")
	os.Setenv("LIFEBOOK_ALERT_MAIL_RECEIVERS", "sec@a.example, ops@b.example")
	t.Cleanup(func() {
		os.Unsetenv("LIFEBOOK_HTTP_ADDR")
		os.Unsetenv("LIFEBOOK_AUDIT_CAPACITY")
		os.Unsetenv("LIFEBOOK_REMOTE_TIMEOUT_MS")
		os.Unsetenv("LIFEBOOK_ALERT_MAIL_RECEIVERS")
	})
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":6060" {
		t.Fatalf("env override addr: %s", cfg.HTTPAddr)
	}
	if cfg.AuditCapacity != 200 {
		t.Fatalf("env override capacity: %d", cfg.AuditCapacity)
	}
	if cfg.Remote.Timeout != 2500*time.Millisecond {
		t.Fatalf("env override timeout: %v", cfg.Remote.Timeout)
	}
	if len(cfg.Alerts.Mail.Receivers) != 2 || cfg.Alerts.Mail.Receivers[1] != "ops@b.example" {
		t.Fatalf("env override receivers: %v", cfg.Alerts.Mail.Receivers)
	}
}

func TestFromEnvBadNumberIgnored(t *testing.T) {
	cfg := Default()
	os.Setenv("LIFEBOOK_AUDIT_CAPACITY", "nope")
	t.Cleanup(func() { os.Unsetenv("LIFEBOOK_AUDIT_CAPACITY") })
	FromEnv(&cfg)
	if cfg.AuditCapacity != 1000 {
		t.Fatalf("bad number should be ignored, got %d", cfg.AuditCapacity)
	}
}
