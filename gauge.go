package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// GenericGauge is a value that can go up and down.
type GenericGauge[N Number] struct {
	v *value[N]
}

// Gauge holds a float64.
type Gauge = GenericGauge[float64]

// IntGauge holds an int64.
type IntGauge = GenericGauge[int64]

// NewGenericGauge creates a gauge without variable labels.
func NewGenericGauge[N Number](name, help string, opts ...Option) (*GenericGauge[N], error) {
	return newGaugeWithOpts[N](NewOpts(name, help, opts...), nil, nil)
}

// NewGauge creates a float gauge.
func NewGauge(name, help string, opts ...Option) (*Gauge, error) {
	return NewGenericGauge[float64](name, help, opts...)
}

// NewIntGauge creates an integer gauge.
func NewIntGauge(name, help string, opts ...Option) (*IntGauge, error) {
	return NewGenericGauge[int64](name, help, opts...)
}

func newGaugeWithOpts[N Number](o Opts, desc *Desc, labelValues []string) (*GenericGauge[N], error) {
	if desc == nil {
		var err error
		if desc, err = o.describe(nil); err != nil {
			return nil, err
		}
	}
	v, err := newValue(desc, dto.MetricType_GAUGE, fromInt64[N](0), labelValues)
	if err != nil {
		return nil, err
	}
	return &GenericGauge[N]{v: v}, nil
}

// Set sets the gauge to v.
func (g *GenericGauge[N]) Set(v N) { g.v.set(v) }

// Get returns the current value.
func (g *GenericGauge[N]) Get() N { return g.v.get() }

// Inc adds one.
func (g *GenericGauge[N]) Inc() { g.v.add(fromInt64[N](1)) }

// Dec subtracts one.
func (g *GenericGauge[N]) Dec() { g.v.sub(fromInt64[N](1)) }

// Add adds delta, which may be negative.
func (g *GenericGauge[N]) Add(delta N) { g.v.add(delta) }

// Sub subtracts delta.
func (g *GenericGauge[N]) Sub(delta N) { g.v.sub(delta) }

// Reset sets the gauge back to zero.
func (g *GenericGauge[N]) Reset() { g.v.reset() }

// Desc returns the gauge's descriptor.
func (g *GenericGauge[N]) Desc() *Desc { return g.v.desc }

// Write returns a snapshot of the gauge.
func (g *GenericGauge[N]) Write() *dto.Metric { return g.v.write() }

// Describe implements Collector.
func (g *GenericGauge[N]) Describe() []*Desc { return []*Desc{g.v.desc} }

// Collect implements Collector.
func (g *GenericGauge[N]) Collect() []*dto.MetricFamily { return []*dto.MetricFamily{g.v.collect()} }

// GenericGaugeVec partitions gauges by variable labels.
type GenericGaugeVec[N Number] struct {
	*MetricVec[*GenericGauge[N]]
}

// GaugeVec is the float form of GenericGaugeVec.
type GaugeVec = GenericGaugeVec[float64]

// IntGaugeVec is the integer form of GenericGaugeVec.
type IntGaugeVec = GenericGaugeVec[int64]

// NewGenericGaugeVec creates a gauge family partitioned by labelNames.
func NewGenericGaugeVec[N Number](name, help string, labelNames []string, opts ...Option) (*GenericGaugeVec[N], error) {
	o := NewOpts(name, help, opts...)
	mv, err := newMetricVec(o, labelNames, dto.MetricType_GAUGE,
		func(desc *Desc, lvs []string) (*GenericGauge[N], error) {
			return newGaugeWithOpts[N](o, desc, lvs)
		})
	if err != nil {
		return nil, err
	}
	return &GenericGaugeVec[N]{MetricVec: mv}, nil
}

// NewGaugeVec creates a float gauge family.
func NewGaugeVec(name, help string, labelNames []string, opts ...Option) (*GaugeVec, error) {
	return NewGenericGaugeVec[float64](name, help, labelNames, opts...)
}

// NewIntGaugeVec creates an integer gauge family.
func NewIntGaugeVec(name, help string, labelNames []string, opts ...Option) (*IntGaugeVec, error) {
	return NewGenericGaugeVec[int64](name, help, labelNames, opts...)
}
