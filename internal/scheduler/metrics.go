package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Runs        prometheus.Counter
	Completed   prometheus.Counter
	Failures    prometheus.Counter
	CardsIssued prometheus.Counter
	Duration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtbook_sweep_runs_total",
			Help: "Number of reconciliation sweep runs.",
		}),
		Completed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtbook_sweep_completed_total",
			Help: "Reservations completed by the sweep.",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtbook_sweep_failures_total",
			Help: "Reservations the sweep failed to complete.",
		}),
		CardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtbook_sweep_cards_issued_total",
			Help: "Entitlement cards issued during sweep reconciliation.",
		}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtbook_sweep_duration_seconds",
			Help:    "Duration of a full sweep run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
