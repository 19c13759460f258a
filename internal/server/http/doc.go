// Package httpserver provides the REST surface the Lifebook UI consumes:
// queue, flush, and audit endpoints plus health and Prometheus metrics.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(httpserver.Deps{Runtime: rt, Queue: q, Sync: coord, Audit: audit})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8084")
package httpserver
