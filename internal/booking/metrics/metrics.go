package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the booking module.
type Metrics struct {
	// Committed bookings by outcome
	BookingOutcome *prometheus.CounterVec

	// Payment links issued
	PaymentLinksIssued prometheus.Counter

	// Quote latency including the remote availability call
	QuoteLatency prometheus.Histogram

	// Commit latency including the remote reserve call
	CommitLatency prometheus.Histogram
}

// New creates a new Metrics instance with all booking module metrics registered.
func New() *Metrics {
	return &Metrics{
		BookingOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetbook_booking_outcomes_total",
			Help: "Total booking commit outcomes by status",
		}, []string{"status"}), // status: "success", "failure", "duplicate"

		PaymentLinksIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetbook_payment_links_issued_total",
			Help: "Total payment links issued for quoted bookings",
		}),

		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetbook_quote_duration_seconds",
			Help:    "Duration of quote issuance including the availability call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		CommitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetbook_commit_duration_seconds",
			Help:    "Duration of booking commit including the reserve call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// RecordSuccess records a committed booking.
func (m *Metrics) RecordSuccess() {
	if m != nil {
		m.BookingOutcome.WithLabelValues("success").Inc()
	}
}

// RecordFailure records a failed commit.
func (m *Metrics) RecordFailure() {
	if m != nil {
		m.BookingOutcome.WithLabelValues("failure").Inc()
	}
}

// RecordDuplicate records a commit refused by the idempotency check.
func (m *Metrics) RecordDuplicate() {
	if m != nil {
		m.BookingOutcome.WithLabelValues("duplicate").Inc()
	}
}

// RecordPaymentLink records an issued payment link.
func (m *Metrics) RecordPaymentLink() {
	if m != nil {
		m.PaymentLinksIssued.Inc()
	}
}

// ObserveQuoteLatency records the duration of a full quote flow.
func (m *Metrics) ObserveQuoteLatency(d time.Duration) {
	if m != nil {
		m.QuoteLatency.Observe(d.Seconds())
	}
}

// ObserveCommitLatency records the duration of a full commit flow.
func (m *Metrics) ObserveCommitLatency(d time.Duration) {
	if m != nil {
		m.CommitLatency.Observe(d.Seconds())
	}
}
