// Package auditsvc implements the tamper-aware audit trail.
//
// Events append to a capped event store namespace (capacity 1000, oldest
// evicted first) and are queryable across sessions. Log never fails the
// action it describes: malformed input gets defaults, storage failures
// degrade to the session mirror, and the high-risk alert side-channel is
// fire-and-forget.
//
// Export reads the persisted collection, the same view Logs serves. The
// original split (export = session only, query = persisted) was an accident
// of its storage layout, not a requirement.
package auditsvc
