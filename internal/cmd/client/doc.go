// Package client provides the `lifebook` command-line client.
//
// The CLI talks to the Lifebook HTTP API to drive the offline write queue
// and the audit trail from a terminal. It is primarily intended for
// developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8084 and can be overridden with the
// LIFEBOOK_HTTP environment variable.
//
// Usage
//
//	lifebook queue add --kind update --record rec-42 --body '{"weight":72}'
//	lifebook queue pending --items
//	lifebook queue flush
//
//	lifebook audit log --user u1 --action record.read --resource rec-42 --risk high
//	lifebook audit list --user u1 --start 2026-01-01T00:00:00Z
//	lifebook audit list --filter 'risk == "high" && action.startsWith("record.")'
//	lifebook audit export --out audit.json
//
// Notes
//
//   - queue flush asks the server to sync now; it fails with an explanation
//     when the server is offline or a flush is already running.
//   - audit list/export accept time bounds as epoch milliseconds or RFC3339.
package client
