package metrics

import "github.com/prometheus/client_golang/prometheus"

// USSDMetrics exposes counters/histograms for the menu gateway.
type USSDMetrics struct {
	requestsTotal *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
	liveSessions  prometheus.Gauge
}

func NewUSSDMetrics(reg prometheus.Registerer) *USSDMetrics {
	m := &USSDMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospitalquick",
			Subsystem: "ussd",
			Name:      "requests_total",
			Help:      "Total USSD round trips by menu state and disposition",
		}, []string{"state", "disposition"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospitalquick",
			Subsystem: "ussd",
			Name:      "step_latency_seconds",
			Help:      "Latency of a single menu step",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hospitalquick",
			Subsystem: "ussd",
			Name:      "live_sessions",
			Help:      "Sessions currently held by the session store",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.stepLatency, m.liveSessions)
	return m
}

// ObserveStep records one processed round trip. disposition is "continue",
// "terminal" or "fault".
func (m *USSDMetrics) ObserveStep(state, disposition string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(state, disposition).Inc()
	m.stepLatency.WithLabelValues(state).Observe(seconds)
}

// SetLiveSessions gauges the session store size.
func (m *USSDMetrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.liveSessions.Set(float64(n))
}

// BookingMetrics counts reservation outcomes.
type BookingMetrics struct {
	reservationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospitalquick",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal)
	return m
}

// ObserveReservation records one reserve attempt. outcome is "booked",
// "slot_taken", "slot_not_found" or "error".
func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}
