package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// GenericCounter is a value that only goes up. Copies of the pointer share
// the same underlying cell.
type GenericCounter[N Number] struct {
	v *value[N]
}

// Counter counts with float64 precision.
type Counter = GenericCounter[float64]

// IntCounter counts natural numbers; prefer it when every increment is integral.
type IntCounter = GenericCounter[uint64]

// NewGenericCounter creates a counter without variable labels.
func NewGenericCounter[N Number](name, help string, opts ...Option) (*GenericCounter[N], error) {
	return newCounterWithOpts[N](NewOpts(name, help, opts...), nil, nil)
}

// NewCounter creates a float counter.
func NewCounter(name, help string, opts ...Option) (*Counter, error) {
	return NewGenericCounter[float64](name, help, opts...)
}

// NewIntCounter creates an integer counter.
func NewIntCounter(name, help string, opts ...Option) (*IntCounter, error) {
	return NewGenericCounter[uint64](name, help, opts...)
}

func newCounterWithOpts[N Number](o Opts, desc *Desc, labelValues []string) (*GenericCounter[N], error) {
	if desc == nil {
		var err error
		if desc, err = o.describe(nil); err != nil {
			return nil, err
		}
	}
	v, err := newValue(desc, dto.MetricType_COUNTER, fromInt64[N](0), labelValues)
	if err != nil {
		return nil, err
	}
	return &GenericCounter[N]{v: v}, nil
}

// Inc increments the counter by one.
func (c *GenericCounter[N]) Inc() { c.v.add(fromInt64[N](1)) }

// Add increments the counter by delta. A negative delta is rejected and
// leaves the counter unchanged.
func (c *GenericCounter[N]) Add(delta N) {
	if delta < fromInt64[N](0) {
		reportInvariantViolation("counter %s: negative increment %v", c.v.desc.fqName, delta)
		return
	}
	c.v.add(delta)
}

// Set overwrites the counter. A negative value is rejected.
func (c *GenericCounter[N]) Set(v N) {
	if v < fromInt64[N](0) {
		reportInvariantViolation("counter %s: negative value %v", c.v.desc.fqName, v)
		return
	}
	c.v.set(v)
}

// Get returns the current value.
func (c *GenericCounter[N]) Get() N { return c.v.get() }

// Reset sets the counter back to zero.
func (c *GenericCounter[N]) Reset() { c.v.reset() }

// Local returns an unsynchronized buffer bound to this counter.
func (c *GenericCounter[N]) Local() *GenericLocalCounter[N] {
	return newLocalCounter(c)
}

// Desc returns the counter's descriptor.
func (c *GenericCounter[N]) Desc() *Desc { return c.v.desc }

// Write returns a snapshot of the counter.
func (c *GenericCounter[N]) Write() *dto.Metric { return c.v.write() }

// Describe implements Collector.
func (c *GenericCounter[N]) Describe() []*Desc { return []*Desc{c.v.desc} }

// Collect implements Collector.
func (c *GenericCounter[N]) Collect() []*dto.MetricFamily { return []*dto.MetricFamily{c.v.collect()} }

// GenericCounterVec partitions counters by variable labels.
type GenericCounterVec[N Number] struct {
	*MetricVec[*GenericCounter[N]]
}

// CounterVec is the float form of GenericCounterVec.
type CounterVec = GenericCounterVec[float64]

// IntCounterVec is the integer form of GenericCounterVec.
type IntCounterVec = GenericCounterVec[uint64]

// NewGenericCounterVec creates a counter family partitioned by labelNames.
// At least one label name is required.
func NewGenericCounterVec[N Number](name, help string, labelNames []string, opts ...Option) (*GenericCounterVec[N], error) {
	o := NewOpts(name, help, opts...)
	mv, err := newMetricVec(o, labelNames, dto.MetricType_COUNTER,
		func(desc *Desc, lvs []string) (*GenericCounter[N], error) {
			return newCounterWithOpts[N](o, desc, lvs)
		})
	if err != nil {
		return nil, err
	}
	return &GenericCounterVec[N]{MetricVec: mv}, nil
}

// NewCounterVec creates a float counter family.
func NewCounterVec(name, help string, labelNames []string, opts ...Option) (*CounterVec, error) {
	return NewGenericCounterVec[float64](name, help, labelNames, opts...)
}

// NewIntCounterVec creates an integer counter family.
func NewIntCounterVec(name, help string, labelNames []string, opts ...Option) (*IntCounterVec, error) {
	return NewGenericCounterVec[uint64](name, help, labelNames, opts...)
}

// Local returns an unsynchronized buffer over the whole family.
func (v *GenericCounterVec[N]) Local() *GenericLocalCounterVec[N] {
	return newLocalCounterVec(v)
}
