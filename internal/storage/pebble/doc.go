// Package pebblestore wraps a Pebble database with the durability policy the
// resiliency layer needs: configurable WAL fsync behavior, batch helpers, and
// a metrics hook seam.
//
// All local state (event store namespaces and the offline write queue) lives
// in a single Pebble instance so one fsync policy governs everything.
package pebblestore
