// Package alert is the fire-and-forget side-channel for high-risk audit
// events. Sinks are best-effort: the audit trail notifies exactly once per
// high-risk event and never lets a sink failure surface to the caller.
//
// Three sinks exist: a warning-log sink (always on), an SMTP sink for the
// security distribution list, and a Kafka sink for the security-monitoring
// topic. Fanout composes them.
package alert
