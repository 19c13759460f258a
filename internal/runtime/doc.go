// Package runtime wires storage, config, and logging into a single-node
// Lifebook instance. It exposes Open/Close, a basic health check, and
// helpers to open the stores used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	store, _ := rt.OpenEventStore("audit", cfg.AuditCapacity)
//	queue, _ := rt.OpenQueue("records")
package runtime
