package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv overlays LIFEBOOK_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LIFEBOOK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LIFEBOOK_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LIFEBOOK_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("LIFEBOOK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LIFEBOOK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LIFEBOOK_AUDIT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuditCapacity = n
		}
	}
	if v := os.Getenv("LIFEBOOK_REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("LIFEBOOK_REMOTE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Remote.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LIFEBOOK_SYNC_PROBE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Sync.ProbeInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LIFEBOOK_SYNC_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Sync.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LIFEBOOK_ALERT_MAIL_HOST"); v != "" {
		cfg.Alerts.Mail.Host = v
	}
	if v := os.Getenv("LIFEBOOK_ALERT_MAIL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Alerts.Mail.Port = n
		}
	}
	if v := os.Getenv("LIFEBOOK_ALERT_MAIL_RECEIVERS"); v != "" {
		cfg.Alerts.Mail.Receivers = splitList(v)
	}
	if v := os.Getenv("LIFEBOOK_ALERT_KAFKA_BROKERS"); v != "" {
		cfg.Alerts.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("LIFEBOOK_ALERT_KAFKA_TOPIC"); v != "" {
		cfg.Alerts.Kafka.Topic = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
