package metrics

import dto "github.com/prometheus/client_model/go"

// Collector is anything that exposes descriptors and produces samples on demand.
// Collect must be consistent with Describe and safe for concurrent use. The
// returned families must be freshly allocated: a Registry takes ownership and
// rewrites names and label slices in place.
type Collector interface {
	Describe() []*Desc
	Collect() []*dto.MetricFamily
}

// Metric is a single label combination of a family. Write renders the current
// value without mutating it.
type Metric interface {
	Desc() *Desc
	Write() *dto.Metric
}

// Gatherer produces a sorted snapshot of metric families.
type Gatherer interface {
	Gather() []*dto.MetricFamily
}

// GathererFunc turns a function into a Gatherer.
type GathererFunc func() []*dto.MetricFamily

// Gather calls f.
func (f GathererFunc) Gather() []*dto.MetricFamily { return f() }

// LocalMetric is a single-goroutine buffer that must be flushed explicitly.
type LocalMetric interface {
	Flush()
}

func newFamily(desc *Desc, typ dto.MetricType, ms []*dto.Metric) *dto.MetricFamily {
	name, help := desc.fqName, desc.help
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   typ.Enum(),
		Metric: ms,
	}
}
