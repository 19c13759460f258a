package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegistered(t *testing.T) {
	FlushAttempts.Inc()
	if testutil.ToFloat64(FlushAttempts) < 1 {
		t.Fatalf("counter did not increment")
	}
	QueuePending.Set(3)
	if testutil.ToFloat64(QueuePending) != 3 {
		t.Fatalf("gauge not set")
	}
}

func TestStoreHookObserves(t *testing.T) {
	var h StoreHook
	h.ObserveBatchCommit(2*time.Millisecond, 1, 128)
	h.ObserveWrite(time.Millisecond, 64)
	h.ObserveRead(time.Millisecond, 64) // no-op, must not panic
}
