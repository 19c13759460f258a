// Package writequeue implements the durable offline write queue.
//
// Mutations enqueue locally and survive restarts; they leave the queue only
// after the sync coordinator confirms remote application and acks them. The
// queue never reorders or coalesces: Snapshot returns pending mutations in
// enqueue order and the coordinator applies them in that order.
//
// Unlike the audit event store, the queue carries no capacity bound. Dropping
// a pending mutation would lose data the remote system never saw.
package writequeue
