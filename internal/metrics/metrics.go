package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_events_appended_total",
		Help: "Total events appended to the durable event store",
	}, []string{"namespace"})
	EventsEvicted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_events_evicted_total",
		Help: "Total events evicted by the capacity bound (oldest first)",
	}, []string{"namespace"})
	AppendsDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_appends_degraded_total",
		Help: "Appends that fell back to the in-memory mirror after a storage failure",
	}, []string{"namespace"})

	QueuePending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifebook_queue_pending",
		Help: "Mutations currently awaiting remote application",
	})
	FlushAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifebook_flush_attempts_total",
		Help: "Flush attempts started by the sync coordinator",
	})
	FlushFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifebook_flush_failures_total",
		Help: "Flushes that stopped early on a remote apply failure",
	})
	MutationsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifebook_mutations_applied_total",
		Help: "Mutations confirmed applied by the remote system",
	})

	HighRiskAlerts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifebook_high_risk_alerts_total",
		Help: "High-risk audit events escalated to the alert side-channel",
	})

	StorageCommitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lifebook_storage_commit_seconds",
		Help:    "Latency of storage batch commits",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	StorageCommitBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lifebook_storage_commit_bytes",
		Help:    "Size of storage batch commits",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(EventsAppended)
	prometheus.MustRegister(EventsEvicted)
	prometheus.MustRegister(AppendsDegraded)
	prometheus.MustRegister(QueuePending)
	prometheus.MustRegister(FlushAttempts)
	prometheus.MustRegister(FlushFailures)
	prometheus.MustRegister(MutationsApplied)
	prometheus.MustRegister(HighRiskAlerts)
	prometheus.MustRegister(StorageCommitSeconds)
	prometheus.MustRegister(StorageCommitBytes)
}

// Handler serves the default registry for the HTTP server's /metrics route.
func Handler() http.Handler { return promhttp.Handler() }

// StoreHook feeds storage commit observations into the histograms. It
// implements the pebblestore MetricsHook seam.
type StoreHook struct{}

func (StoreHook) ObserveWrite(elapsed time.Duration, bytes int) {
	StorageCommitSeconds.Observe(elapsed.Seconds())
	StorageCommitBytes.Observe(float64(bytes))
}

func (StoreHook) ObserveRead(time.Duration, int) {}

func (StoreHook) ObserveBatchCommit(elapsed time.Duration, _ int, bytes int) {
	StorageCommitSeconds.Observe(elapsed.Seconds())
	StorageCommitBytes.Observe(float64(bytes))
}
