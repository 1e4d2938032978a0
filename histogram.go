package metrics

import (
	"fmt"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// DefBuckets are the default histogram upper bounds, in seconds, tailored to
// network request latencies.
var DefBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// LinearBuckets returns count buckets, each width wide, the lowest upper
// bound being start.
func LinearBuckets(start, width float64, count int) ([]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: LinearBuckets needs a positive count, got %d", ErrInvalidBuckets, count)
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: LinearBuckets needs a positive width, got %v", ErrInvalidBuckets, width)
	}
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start
		start += width
	}
	return buckets, nil
}

// ExponentialBuckets returns count buckets, the lowest upper bound being start
// and each following one factor times the previous.
func ExponentialBuckets(start, factor float64, count int) ([]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: ExponentialBuckets needs a positive count, got %d", ErrInvalidBuckets, count)
	}
	if start <= 0 {
		return nil, fmt.Errorf("%w: ExponentialBuckets needs a positive start, got %v", ErrInvalidBuckets, start)
	}
	if factor <= 1 {
		return nil, fmt.Errorf("%w: ExponentialBuckets needs a factor greater than 1, got %v", ErrInvalidBuckets, factor)
	}
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start
		start *= factor
	}
	return buckets, nil
}

// Observer records float64 measurements.
type Observer interface {
	Observe(v float64)
}

// Histogram counts observations into buckets. It replaces the min/max
// aggregator with cumulative buckets, a sum and a count, all lock-free.
// Bucket counts, sum and count are read independently, so a concurrent
// Write may see them slightly out of step.
type Histogram struct {
	desc        *Desc
	labelPairs  []*dto.LabelPair
	upperBounds []float64
	counts      []AtomicUint64 // per bucket, not cumulative
	count       AtomicUint64
	sum         AtomicFloat64
}

// NewHistogram creates a histogram without variable labels. Buckets default
// to DefBuckets.
func NewHistogram(name, help string, opts ...Option) (*Histogram, error) {
	return newHistogramWithOpts(NewOpts(name, help, opts...), nil, nil)
}

func newHistogramWithOpts(o Opts, desc *Desc, labelValues []string) (*Histogram, error) {
	if desc == nil {
		var err error
		if desc, err = o.describe(nil); err != nil {
			return nil, err
		}
	}
	if len(labelValues) != len(desc.variableLabels) {
		return nil, cardinalityError(len(desc.variableLabels), len(labelValues))
	}
	bounds, err := checkBuckets(o.Buckets)
	if err != nil {
		return nil, err
	}
	return &Histogram{
		desc:        desc,
		labelPairs:  desc.labelPairs(append([]string(nil), labelValues...)),
		upperBounds: bounds,
		counts:      make([]AtomicUint64, len(bounds)),
	}, nil
}

func checkBuckets(buckets []float64) ([]float64, error) {
	if len(buckets) == 0 {
		buckets = DefBuckets
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBuckets, buckets)
		}
	}
	return append([]float64(nil), buckets...), nil
}

// Observe adds a single observation.
func (h *Histogram) Observe(v float64) {
	if i := sort.SearchFloat64s(h.upperBounds, v); i < len(h.upperBounds) {
		h.counts[i].Add(1)
	}
	h.count.Add(1)
	h.sum.Add(v)
}

// Buckets returns a copy of the configured upper bounds.
func (h *Histogram) Buckets() []float64 { return append([]float64(nil), h.upperBounds...) }

// Desc returns the histogram's descriptor.
func (h *Histogram) Desc() *Desc { return h.desc }

// Write returns a snapshot with cumulative bucket counts.
func (h *Histogram) Write() *dto.Metric {
	buckets := make([]*dto.Bucket, len(h.upperBounds))
	var cumulative uint64
	for i, ub := range h.upperBounds {
		cumulative += h.counts[i].Get()
		cc, bound := cumulative, ub
		buckets[i] = &dto.Bucket{CumulativeCount: &cc, UpperBound: &bound}
	}
	count, sum := h.count.Get(), h.sum.Get()
	return &dto.Metric{
		Label: h.labelPairs,
		Histogram: &dto.Histogram{
			SampleCount: &count,
			SampleSum:   &sum,
			Bucket:      buckets,
		},
	}
}

// Describe implements Collector.
func (h *Histogram) Describe() []*Desc { return []*Desc{h.desc} }

// Collect implements Collector.
func (h *Histogram) Collect() []*dto.MetricFamily {
	return []*dto.MetricFamily{newFamily(h.desc, dto.MetricType_HISTOGRAM, []*dto.Metric{h.Write()})}
}

// HistogramVec partitions histograms by variable labels.
type HistogramVec struct {
	*MetricVec[*Histogram]
}

// NewHistogramVec creates a histogram family partitioned by labelNames.
func NewHistogramVec(name, help string, labelNames []string, opts ...Option) (*HistogramVec, error) {
	o := NewOpts(name, help, opts...)
	if _, err := checkBuckets(o.Buckets); err != nil {
		return nil, err
	}
	mv, err := newMetricVec(o, labelNames, dto.MetricType_HISTOGRAM, func(desc *Desc, lvs []string) (*Histogram, error) {
		return newHistogramWithOpts(o, desc, lvs)
	})
	if err != nil {
		return nil, err
	}
	return &HistogramVec{MetricVec: mv}, nil
}

// Timer measures a duration and reports it, in seconds, to an Observer.
type Timer struct {
	begin    time.Time
	observer Observer
}

// NewTimer starts a timer.
func NewTimer(o Observer) *Timer {
	return &Timer{begin: time.Now(), observer: o}
}

// ObserveDuration records the elapsed time and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.begin)
	if t.observer != nil {
		t.observer.Observe(d.Seconds())
	}
	return d
}

