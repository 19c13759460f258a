// Package config provides loading and environment overlay for Lifebook
// runtime configuration. It exposes a Default() baseline, file loading in
// JSON or YAML, and a LIFEBOOK_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/lifebook.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
