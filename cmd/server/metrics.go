package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

// prometheusMetrics implements ratelimiter.Metrics on top of
// prometheus/client_golang, registering one counter vector labeled by
// decision outcome and one histogram for store round-trip latency.
type prometheusMetrics struct {
	decisions   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

func newPrometheusMetrics(reg prometheus.Registerer) *prometheusMetrics {
	m := &prometheusMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Count of rate limit decisions by domain, key type, algorithm, and outcome.",
		}, []string{"domain", "key_type", "algorithm", "outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ratelimit_store_call_seconds",
			Help:    "Latency of store round-trips per operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.decisions, m.storeLatency)
	return m
}

func (m *prometheusMetrics) ObserveDecision(domain string, keyType ratelimiter.KeyType, algorithm string, allowed bool) {
	outcome := "reject"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(domain, string(keyType), algorithm, outcome).Inc()
}

func (m *prometheusMetrics) ObserveStoreLatency(op string, d time.Duration) {
	m.storeLatency.WithLabelValues(op).Observe(d.Seconds())
}

var _ ratelimiter.Metrics = (*prometheusMetrics)(nil)
