package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling flows.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotQueryLatency *prometheus.HistogramVec
	slotsReturned    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotQueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "slot_query_latency_seconds",
			Help:      "Latency of available-slot queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		slotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "scheduling",
			Name:      "slots_returned",
			Help:      "Number of slots returned per query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotQueryLatency, m.slotsReturned)
	return m
}

// ObserveBooking records one booking attempt outcome
// ("committed", "conflict", "invalid", "error").
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotQuery(seconds float64, cacheHit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.slotQueryLatency.WithLabelValues(label).Observe(seconds)
}

func (m *BookingMetrics) ObserveSlotsReturned(n int) {
	if m == nil {
		return
	}
	m.slotsReturned.Observe(float64(n))
}
