package ratelimiter

// Logger is the interface used for logging inside the rate limiter.
// Implement this to route engine diagnostics (most notably the fail-open
// warning on ErrStoreUnavailable) into your own logging backend. Adapters
// for the standard log package, zap, logrus, and zerolog ship under
// adapters/.
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// noopLogger is the default Logger, used when none is supplied.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Errorf(format string, args ...interface{}) {}
func (noopLogger) Warnf(format string, args ...interface{})  {}

// FacadeOption configures a Facade via the functional-options pattern.
type FacadeOption func(*Facade)

// WithLogger sets the Logger used for the Facade's fail-open warnings. A
// nil Logger is ignored.
func WithLogger(l Logger) FacadeOption {
	return func(f *Facade) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the Metrics sink observed on every Check call that a
// strategy decides. A nil Metrics is ignored.
func WithMetrics(m Metrics) FacadeOption {
	return func(f *Facade) {
		if m != nil {
			f.metrics = m
		}
	}
}
