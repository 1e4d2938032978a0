package metrics

import (
	"fmt"
	"sync"

	dto "github.com/prometheus/client_model/go"
)

// MetricVec is a concurrent map from a hash of label values to a lazily
// created metric. All children share one descriptor. Tuples whose hashes
// collide are treated as the same child.
type MetricVec[M Metric] struct {
	desc      *Desc
	typ       dto.MetricType
	newMetric func(desc *Desc, labelValues []string) (M, error)

	mtx      sync.RWMutex // protects children
	children map[uint64]M
}

func newMetricVec[M Metric](
	o Opts,
	labelNames []string,
	typ dto.MetricType,
	newMetric func(desc *Desc, labelValues []string) (M, error),
) (*MetricVec[M], error) {
	if len(labelNames) == 0 {
		return nil, fmt.Errorf("%w: a vec needs at least one variable label", ErrLabelCardinalityMismatch)
	}
	desc, err := o.describe(labelNames)
	if err != nil {
		return nil, err
	}
	return &MetricVec[M]{
		desc:      desc,
		typ:       typ,
		newMetric: newMetric,
		children:  make(map[uint64]M),
	}, nil
}

// GetMetricWithLabelValues returns the child for the given label values,
// creating it on first access. Values are matched to label names by position.
func (v *MetricVec[M]) GetMetricWithLabelValues(lvs ...string) (M, error) {
	h, err := v.desc.hashLabelValues(lvs)
	if err != nil {
		var zero M
		return zero, err
	}
	return v.getOrCreate(h, lvs)
}

// WithLabelValues is GetMetricWithLabelValues that panics on error.
func (v *MetricVec[M]) WithLabelValues(lvs ...string) M {
	m, err := v.GetMetricWithLabelValues(lvs...)
	if err != nil {
		panic(err)
	}
	return m
}

// GetMetricWith returns the child for the given label map.
func (v *MetricVec[M]) GetMetricWith(labels map[string]string) (M, error) {
	lvs, err := v.desc.labelValuesFromMap(labels)
	if err != nil {
		var zero M
		return zero, err
	}
	return v.GetMetricWithLabelValues(lvs...)
}

// With is GetMetricWith that panics on error.
func (v *MetricVec[M]) With(labels map[string]string) M {
	m, err := v.GetMetricWith(labels)
	if err != nil {
		panic(err)
	}
	return m
}

// getOrCreate is an insert-or-fetch: a fast read path, then a re-check under
// the write lock before the factory runs, so each tuple is built once.
func (v *MetricVec[M]) getOrCreate(h uint64, lvs []string) (M, error) {
	v.mtx.RLock()
	m, ok := v.children[h]
	v.mtx.RUnlock()
	if ok {
		return m, nil
	}

	v.mtx.Lock()
	defer v.mtx.Unlock()
	if m, ok = v.children[h]; ok {
		return m, nil
	}
	m, err := v.newMetric(v.desc, lvs)
	if err != nil {
		return m, err
	}
	v.children[h] = m
	return m, nil
}

// RemoveLabelValues deletes the child for the given label values. Holders of
// the child keep a working metric that is no longer exported.
func (v *MetricVec[M]) RemoveLabelValues(lvs ...string) error {
	h, err := v.desc.hashLabelValues(lvs)
	if err != nil {
		return err
	}
	return v.remove(h)
}

// Remove deletes the child for the given label map.
func (v *MetricVec[M]) Remove(labels map[string]string) error {
	lvs, err := v.desc.labelValuesFromMap(labels)
	if err != nil {
		return err
	}
	return v.RemoveLabelValues(lvs...)
}

func (v *MetricVec[M]) remove(h uint64) error {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if _, ok := v.children[h]; !ok {
		return fmt.Errorf("%w: %s", ErrMetricNotFound, v.desc.fqName)
	}
	delete(v.children, h)
	return nil
}

// Reset deletes all children.
func (v *MetricVec[M]) Reset() {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	clear(v.children)
}

// Len returns the number of live label combinations.
func (v *MetricVec[M]) Len() int {
	v.mtx.RLock()
	defer v.mtx.RUnlock()
	return len(v.children)
}

// Desc returns the shared family descriptor.
func (v *MetricVec[M]) Desc() *Desc { return v.desc }

// Describe implements Collector.
func (v *MetricVec[M]) Describe() []*Desc { return []*Desc{v.desc} }

// Collect renders every child. Children keep mutating while this runs, so
// the result is not a point-in-time transaction.
func (v *MetricVec[M]) Collect() []*dto.MetricFamily {
	v.mtx.RLock()
	ms := make([]*dto.Metric, 0, len(v.children))
	for _, child := range v.children {
		ms = append(ms, child.Write())
	}
	v.mtx.RUnlock()
	return []*dto.MetricFamily{newFamily(v.desc, v.typ, ms)}
}
