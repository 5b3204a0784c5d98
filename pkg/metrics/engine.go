package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records reservation and checkout outcomes.
type EngineMetrics struct {
	holdsExpired       prometheus.Counter
	seatReleases       *prometheus.CounterVec
	integrityFailures  prometheus.Counter
	heldDuration       prometheus.Histogram
	checkoutsSubmitted *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	holdsExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hold_expired_total",
		Help: "Reservation windows that reached their deadline.",
	})
	seatReleases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_release_total",
		Help: "Seat release requests issued to the inventory service.",
	}, []string{"outcome"})
	integrityFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_integrity_failure_total",
		Help: "Checkouts blocked because the collaborator total disagreed.",
	})
	heldDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hold_held_duration_seconds",
		Help:    "Time carts spent in the held state before leaving it.",
		Buckets: prometheus.LinearBuckets(60, 120, 8),
	})
	checkoutsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submitted_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(holdsExpired, seatReleases, integrityFailures, heldDuration, checkoutsSubmitted)
	return &EngineMetrics{
		holdsExpired:       holdsExpired,
		seatReleases:       seatReleases,
		integrityFailures:  integrityFailures,
		heldDuration:       heldDuration,
		checkoutsSubmitted: checkoutsSubmitted,
	}
}

// IncHoldExpired counts one expired reservation window.
func (m *EngineMetrics) IncHoldExpired() {
	if m == nil || m.holdsExpired == nil {
		return
	}
	m.holdsExpired.Inc()
}

// IncSeatRelease counts one release attempt by outcome.
func (m *EngineMetrics) IncSeatRelease(outcome string) {
	if m == nil || m.seatReleases == nil {
		return
	}
	m.seatReleases.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncIntegrityFailure counts one blocked checkout.
func (m *EngineMetrics) IncIntegrityFailure() {
	if m == nil || m.integrityFailures == nil {
		return
	}
	m.integrityFailures.Inc()
}

// ObserveHeldDuration records how long a cart stayed held.
func (m *EngineMetrics) ObserveHeldDuration(d time.Duration) {
	if m == nil || m.heldDuration == nil {
		return
	}
	m.heldDuration.Observe(d.Seconds())
}

// IncCheckout counts one checkout submission by outcome.
func (m *EngineMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkoutsSubmitted == nil {
		return
	}
	m.checkoutsSubmitted.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
