package diamond

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the prometheus metrics of a registry
type Metrics struct {
	Cuts               *prometheus.CounterVec
	OwnershipTransfers *prometheus.CounterVec
	Dispatches         *prometheus.CounterVec

	InitDuration prometheus.Histogram

	Selectors prometheus.Gauge
	Facets    prometheus.Gauge
	Seq       prometheus.Gauge
}

// NewMetrics creates and registers the registry metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cuts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diamond_cuts_total",
				Help: "Submitted cuts by result (ok or error kind)",
			},
			[]string{"result"},
		),
		OwnershipTransfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diamond_ownership_transfers_total",
				Help: "Ownership transfer requests by result",
			},
			[]string{"result"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diamond_dispatches_total",
				Help: "Dispatched calls by result",
			},
			[]string{"result"},
		),
		InitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "diamond_init_duration_seconds",
				Help:    "Time spent in cut init calls",
				Buckets: prometheus.DefBuckets,
			},
		),
		Selectors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diamond_selectors",
			Help: "Number of routed selectors",
		}),
		Facets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diamond_facets",
			Help: "Number of live facets",
		}),
		Seq: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diamond_sequence",
			Help: "Sequence number of the last committed record",
		}),
	}

	reg.MustRegister(
		m.Cuts,
		m.OwnershipTransfers,
		m.Dispatches,
		m.InitDuration,
		m.Selectors,
		m.Facets,
		m.Seq,
	)

	return m
}
