// Package eventstore implements the durable, capacity-bounded event store the
// resiliency layer builds on.
//
// # Overview
//
// Each Store owns one namespace inside the shared Pebble instance. Keys are
// lexicographically ordered for efficient range scans:
//   - ev/{ns}/m           (namespace metadata: lastSeq | count)
//   - ev/{ns}/e/{seq_be8} (entries)
//
// Entries are framed as ts_ms(8B BE) | json body | crc32c.
//
// Appends are serialized per namespace, write the entry, any capacity
// evictions, and the metadata in a single atomic batch. When the capacity is
// exceeded the oldest entries go first; the newest entry is never the one
// evicted.
//
// A failed persist degrades to an in-memory mirror: the event stays readable
// through ReadAll for the rest of the process session and the failure is
// logged as a warning. Durability callers (audit, offline queue) must never
// fail the action they are recording.
package eventstore
