package ratelimiter

import "time"

// Metrics is the instrumentation hook the Facade observes on every Check
// call that a strategy decides; checks with no matching rule and fail-open
// admissions after a store outage are not observed. Store implementations
// may report round-trip latency through the same interface. It never feeds
// back into admission logic — it is purely
// observational, keeping the no-adaptive-limits non-goal intact. The
// concrete Prometheus implementation lives in cmd/server, built on
// prometheus/client_golang, so this package stays free of a hard
// dependency on any particular metrics backend.
type Metrics interface {
	// ObserveDecision records one Facade.Check outcome for a
	// (domain, keyType, algorithm) triple.
	ObserveDecision(domain string, keyType KeyType, algorithm string, allowed bool)
	// ObserveStoreLatency records how long one underlying store round-trip
	// took, tagged by operation name (e.g. "incr_with_limit", "token_bucket_take").
	ObserveStoreLatency(op string, d time.Duration)
}

// noopMetrics discards every observation; it is the Facade's default so
// embedding the core engine never forces a Prometheus dependency.
type noopMetrics struct{}

func (noopMetrics) ObserveDecision(domain string, keyType KeyType, algorithm string, allowed bool) {}
func (noopMetrics) ObserveStoreLatency(op string, d time.Duration)                                 {}
