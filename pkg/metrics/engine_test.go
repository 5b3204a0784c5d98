package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.IncHoldExpired()
	m.IncSeatRelease("success")
	m.IncSeatRelease("failure")
	m.IncSeatRelease("")
	m.IncIntegrityFailure()
	m.IncCheckout("success")
	m.ObserveHeldDuration(3 * time.Minute)

	if got := testutil.ToFloat64(m.holdsExpired); got != 1 {
		t.Fatalf("expected 1 expired hold, got %v", got)
	}
	if got := testutil.ToFloat64(m.seatReleases.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful release, got %v", got)
	}
	if got := testutil.ToFloat64(m.seatReleases.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected blank outcome to normalize, got %v", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *EngineMetrics
	m.IncHoldExpired()
	m.IncSeatRelease("success")
	m.IncIntegrityFailure()
	m.IncCheckout("failure")
	m.ObserveHeldDuration(time.Second)

	empty := NewEngineMetrics(nil)
	empty.IncHoldExpired()
}
