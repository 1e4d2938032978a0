package metrics

// lookupWithMeta acquires the per-key init mutex, then reads both the
// instance and its descriptor before unlocking in order to provide a
// consistent snapshot. The third return value is true if and only if both
// the instrument and the descriptor were found and both valid.
// Invariant violations (e.g., instrument exists but meta missing) are reported via logger.
func lookupWithMeta[C Collector](p *BasicProvider, typ InstrumentType, name string) (C, *Desc, bool) {
	var zero C
	key := NewInstrumentKey(typ, name)
	km := p.keyMu(key)
	km.Lock()
	defer func() {
		km.Unlock()
		if !p.cfg.doNotCleanupInits {
			p.inits.Delete(key)
		}
	}()

	v, ok := p.instruments.Load(key)
	if !ok {
		// not created
		return zero, nil, false
	}

	inst, ok := v.(C)
	if !ok {
		// invariant violation: wrong type in map
		p.reportInvariantViolation(typ.String()+"_type", key)
		return zero, nil, false
	}

	m, ok := p.meta.Load(key)
	if !ok {
		// invariant violation: instrument without meta
		p.reportInvariantViolation(typ.String()+"_meta_missing", key)
		return inst, nil, false
	}
	desc, ok := m.(*Desc)
	if !ok {
		// invariant violation: wrong meta type
		p.reportInvariantViolation(typ.String()+"_meta_type", key)
		return inst, nil, false
	}
	return inst, desc, true
}

// CounterWithMeta implements Inspector.CounterWithMeta for BasicProvider.
func (p *BasicProvider) CounterWithMeta(name string) (*Counter, *Desc, bool) {
	return lookupWithMeta[*Counter](p, InstrumentTypeCounter, name)
}

// IntCounterWithMeta implements Inspector.IntCounterWithMeta for BasicProvider.
func (p *BasicProvider) IntCounterWithMeta(name string) (*IntCounter, *Desc, bool) {
	return lookupWithMeta[*IntCounter](p, InstrumentTypeIntCounter, name)
}

// GaugeWithMeta implements Inspector.GaugeWithMeta for BasicProvider.
func (p *BasicProvider) GaugeWithMeta(name string) (*Gauge, *Desc, bool) {
	return lookupWithMeta[*Gauge](p, InstrumentTypeGauge, name)
}

// IntGaugeWithMeta implements Inspector.IntGaugeWithMeta for BasicProvider.
func (p *BasicProvider) IntGaugeWithMeta(name string) (*IntGauge, *Desc, bool) {
	return lookupWithMeta[*IntGauge](p, InstrumentTypeIntGauge, name)
}

// HistogramWithMeta implements Inspector.HistogramWithMeta for BasicProvider.
func (p *BasicProvider) HistogramWithMeta(name string) (*Histogram, *Desc, bool) {
	return lookupWithMeta[*Histogram](p, InstrumentTypeHistogram, name)
}

// ListMetadata returns a best-effort snapshot of metadata entries. It does not
// acquire per-key init mutexes for each entry; callers should treat the result
// as a point-in-time snapshot that may race with concurrent creations.
func (p *BasicProvider) ListMetadata() []InstrumentEntry {
	out := make([]InstrumentEntry, 0)
	p.meta.Range(func(k, v interface{}) bool {
		key, ok := k.(InstrumentKey)
		desc, ok2 := v.(*Desc)
		if !ok || !ok2 {
			return true // skip invalid entries
		}

		out = append(out, InstrumentEntry{Type: key.Type, Name: key.Name, Desc: desc})
		return true
	})
	return out
}
