// Package id provides sortable 128-bit identifiers for stored events.
//
// IDs embed a millisecond timestamp in the high 8 bytes and a per-process
// sequence in the low 8 bytes, so lexical order matches creation order. A
// Generator never issues a lower timestamp than it already has, which is what
// gives event timestamps their monotonic non-decreasing guarantee.
package id
