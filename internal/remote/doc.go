// Package remote is the HTTP client for the system of record. The sync
// coordinator uses Apply to drain the offline write queue; the connectivity
// monitor uses Probe to detect online/offline transitions.
package remote
