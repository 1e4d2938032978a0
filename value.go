package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// value couples an atomic cell with its family descriptor and the label
// values that distinguish it from its siblings.
type value[N Number] struct {
	desc        *Desc
	typ         dto.MetricType
	val         Atomic[N]
	labelValues []string
	labelPairs  []*dto.LabelPair
}

func newValue[N Number](desc *Desc, typ dto.MetricType, seed N, labelValues []string) (*value[N], error) {
	if len(labelValues) != len(desc.variableLabels) {
		return nil, cardinalityError(len(desc.variableLabels), len(labelValues))
	}
	lvs := append([]string(nil), labelValues...)
	return &value[N]{
		desc:        desc,
		typ:         typ,
		val:         newAtomic(seed),
		labelValues: lvs,
		labelPairs:  desc.labelPairs(lvs),
	}, nil
}

func (v *value[N]) get() N { return v.val.Get() }

func (v *value[N]) set(n N) { v.val.Set(n) }

func (v *value[N]) add(n N) { v.val.Add(n) }

func (v *value[N]) sub(n N) { v.val.Sub(n) }

func (v *value[N]) reset() { v.val.Set(fromInt64[N](0)) }

func (v *value[N]) write() *dto.Metric {
	f := toFloat64(v.val.Get())
	m := &dto.Metric{Label: v.labelPairs}
	switch v.typ {
	case dto.MetricType_COUNTER:
		m.Counter = &dto.Counter{Value: &f}
	case dto.MetricType_GAUGE:
		m.Gauge = &dto.Gauge{Value: &f}
	default:
		m.Untyped = &dto.Untyped{Value: &f}
	}
	return m
}

func (v *value[N]) collect() *dto.MetricFamily {
	return newFamily(v.desc, v.typ, []*dto.Metric{v.write()})
}
