package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	mutationsTotal *prometheus.CounterVec
	batchSize      prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stilbar_lookups_total",
			Help: "Code lookups by resolution strategy and outcome",
		}, []string{"strategy", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stilbar_lookup_duration_seconds",
			Help:    "Latency of code lookups",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stilbar_mutations_total",
			Help: "Catalog mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stilbar_batch_size",
			Help:    "Number of codes per batch request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}

	reg.MustRegister(m.lookupsTotal)
	reg.MustRegister(m.lookupDuration)
	reg.MustRegister(m.mutationsTotal)
	reg.MustRegister(m.batchSize)
	return m
}

func (m *Metrics) observeLookup(strategy string, found bool, seconds float64) {
	outcome := "found"
	if !found {
		outcome = "not_found"
	}
	m.lookupsTotal.WithLabelValues(strategy, outcome).Inc()
	m.lookupDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) observeMutation(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.mutationsTotal.WithLabelValues(op, outcome).Inc()
}
