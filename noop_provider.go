package metrics

// NoopProvider hands out working instruments that are never registered, so
// nothing they record is ever gathered. Every call returns a new instrument.
// It is meant for tests and for disabling instrumentation.
type NoopProvider struct{}

var _ Provider = NoopProvider{}

// NewNoopProvider returns a provider whose instruments are never registered.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

// Counter returns a fresh unregistered Counter.
func (NoopProvider) Counter(name, help string, opts ...Option) (*Counter, error) {
	return NewCounter(name, help, opts...)
}

// IntCounter returns a fresh unregistered IntCounter.
func (NoopProvider) IntCounter(name, help string, opts ...Option) (*IntCounter, error) {
	return NewIntCounter(name, help, opts...)
}

// Gauge returns a fresh unregistered Gauge.
func (NoopProvider) Gauge(name, help string, opts ...Option) (*Gauge, error) {
	return NewGauge(name, help, opts...)
}

// IntGauge returns a fresh unregistered IntGauge.
func (NoopProvider) IntGauge(name, help string, opts ...Option) (*IntGauge, error) {
	return NewIntGauge(name, help, opts...)
}

// Histogram returns a fresh unregistered Histogram.
func (NoopProvider) Histogram(name, help string, opts ...Option) (*Histogram, error) {
	return NewHistogram(name, help, opts...)
}
