// Package log provides structured logging for lifebook components.
//
// Construct a Logger once per process and pass it down; components tag their
// entries with log.Component. Text format is the default; set JSONFormatter
// for machine-readable output.
//
//	logger := log.NewLogger(log.WithLevel(log.InfoLevel))
//	logger = logger.With(log.Component("sync"))
//	logger.Info("flush finished", log.Int("applied", n))
package log
