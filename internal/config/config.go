package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheshibaBull/lifebook-health-story-sub002/internal/alert"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir  string `json:"dataDir" yaml:"dataDir"`
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// Fsync is one of always|interval|never.
	Fsync    string `json:"fsync" yaml:"fsync"`
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// LogFormat is text or json.
	LogFormat string `json:"logFormat" yaml:"logFormat"`

	// AuditCapacity bounds the audit trail namespace.
	AuditCapacity int `json:"auditCapacity" yaml:"auditCapacity"`

	Remote RemoteConfig `json:"remote" yaml:"remote"`
	Sync   SyncConfig   `json:"sync" yaml:"sync"`
	Alerts AlertsConfig `json:"alerts" yaml:"alerts"`
}

// RemoteConfig points at the system of record.
type RemoteConfig struct {
	BaseURL string        `json:"baseUrl" yaml:"baseUrl"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SyncConfig tunes the sync coordinator and connectivity monitor.
type SyncConfig struct {
	// ProbeInterval is the connectivity probe cadence.
	ProbeInterval time.Duration `json:"probeInterval" yaml:"probeInterval"`
	// PollInterval triggers periodic flushes while online. Zero disables.
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
}

// AlertsConfig configures optional high-risk alert sinks. A sink with a zero
// config is left unwired.
type AlertsConfig struct {
	Mail  alert.MailConfig  `json:"mail" yaml:"mail"`
	Kafka alert.KafkaConfig `json:"kafka" yaml:"kafka"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		HTTPAddr:      ":8084",
		Fsync:         "always",
		LogLevel:      "info",
		LogFormat:     "text",
		AuditCapacity: 1000,
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			ProbeInterval: 15 * time.Second,
			PollInterval:  time.Minute,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). An empty
// path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
