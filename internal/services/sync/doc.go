// Package syncsvc coordinates draining the offline write queue.
//
// One flush runs at a time; concurrent callers join the in-flight flush and
// get its outcome, so no mutation is ever applied twice by overlapping
// batches. Mutations apply in enqueue order, each one acked as soon as the
// remote confirms it. The first failure stops the batch and leaves the failed
// mutation and everything behind it queued for the next trigger.
//
// Triggers: a connectivity transition to online, an optional polling ticker
// while online, and manual Flush calls from the API surface.
package syncsvc
