// Package connectivity watches reachability of the remote system and notifies
// subscribers of online/offline transitions. The two-event contract is the
// whole interface: no payloads, no history. The sync coordinator is the main
// consumer; it flushes the offline write queue on offline->online.
package connectivity
