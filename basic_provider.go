package metrics

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// BasicProvider is an in-memory Provider that registers every instrument it
// creates with a Registry (the default registry unless configured).
// Instruments are created on demand by (type, fully-qualified name) and reused.
type BasicProvider struct {
	cfg      *basicProviderConfig
	logger   Logger
	registry *Registry

	instruments sync.Map // map[InstrumentKey]Collector
	meta        sync.Map // map[InstrumentKey]*Desc
	// per-key init mutexes: protect concurrent initialization for the same key
	inits sync.Map // map[InstrumentKey]*sync.Mutex

	invariantReports atomic.Int32
}

var (
	_ Provider  = (*BasicProvider)(nil)
	_ Inspector = (*BasicProvider)(nil)
)

// NewBasicProvider constructs a new BasicProvider.
// Accepts optional functional options to customize behavior.
func NewBasicProvider(opts ...BasicProviderOption) *BasicProvider {
	cfg := &basicProviderConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	l := cfg.logger
	if l == nil {
		l = newNoopLogger()
	}
	r := cfg.registry
	if r == nil {
		r = DefaultRegistry()
	}
	return &BasicProvider{cfg: cfg, logger: l, registry: r}
}

// Registry returns the registry instruments are registered with.
func (p *BasicProvider) Registry() *Registry { return p.registry }

// keyMu returns a per-key mutex for the given key, creating one if necessary.
// The returned mutex is owned by the provider and should be locked/unlocked by callers.
func (p *BasicProvider) keyMu(key InstrumentKey) *sync.Mutex {
	m, _ := p.inits.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Counter returns a float counter registered under the given name (created once).
func (p *BasicProvider) Counter(name, help string, opts ...Option) (*Counter, error) {
	o := NewOpts(name, help, opts...)
	return getOrCreate(p, NewInstrumentKey(InstrumentTypeCounter, o.FQName()), func() (*Counter, error) {
		return newCounterWithOpts[float64](o, nil, nil)
	})
}

// IntCounter returns an integer counter registered under the given name (created once).
func (p *BasicProvider) IntCounter(name, help string, opts ...Option) (*IntCounter, error) {
	o := NewOpts(name, help, opts...)
	return getOrCreate(p, NewInstrumentKey(InstrumentTypeIntCounter, o.FQName()), func() (*IntCounter, error) {
		return newCounterWithOpts[uint64](o, nil, nil)
	})
}

// Gauge returns a float gauge registered under the given name (created once).
func (p *BasicProvider) Gauge(name, help string, opts ...Option) (*Gauge, error) {
	o := NewOpts(name, help, opts...)
	return getOrCreate(p, NewInstrumentKey(InstrumentTypeGauge, o.FQName()), func() (*Gauge, error) {
		return newGaugeWithOpts[float64](o, nil, nil)
	})
}

// IntGauge returns an integer gauge registered under the given name (created once).
func (p *BasicProvider) IntGauge(name, help string, opts ...Option) (*IntGauge, error) {
	o := NewOpts(name, help, opts...)
	return getOrCreate(p, NewInstrumentKey(InstrumentTypeIntGauge, o.FQName()), func() (*IntGauge, error) {
		return newGaugeWithOpts[int64](o, nil, nil)
	})
}

// Histogram returns a histogram registered under the given name (created once).
func (p *BasicProvider) Histogram(name, help string, opts ...Option) (*Histogram, error) {
	o := NewOpts(name, help, opts...)
	return getOrCreate(p, NewInstrumentKey(InstrumentTypeHistogram, o.FQName()), func() (*Histogram, error) {
		return newHistogramWithOpts(o, nil, nil)
	})
}

// getOrCreate implements a fast read path and uses a per-key mutex to
// deduplicate concurrent initializations. A collector that is already
// registered with an identical descriptor is adopted instead of failing.
func getOrCreate[C Collector](p *BasicProvider, key InstrumentKey, create func() (C, error)) (C, error) {
	var zero C

	// fast read path using sync.Map loads (safe without a global lock)
	if v, ok := p.instruments.Load(key); ok {
		return assertInstrument[C](p, key, v)
	}

	// acquire per-key mutex to deduplicate concurrent initializations
	km := p.keyMu(key)
	km.Lock()
	defer km.Unlock()

	// re-check after acquiring per-key mutex
	if v, ok := p.instruments.Load(key); ok {
		return assertInstrument[C](p, key, v)
	}

	inst, err := create()
	if err != nil {
		return zero, err
	}
	if err := p.registry.Register(inst); err != nil {
		var are *AlreadyRegisteredError
		if !errors.As(err, &are) {
			return zero, err
		}
		existing, ok := are.Existing.(C)
		if !ok {
			return zero, fmt.Errorf("%w: %s registered with a different type %T", ErrAlreadyRegistered, key, are.Existing)
		}
		inst = existing
	}

	p.meta.Store(key, inst.Describe()[0])
	p.instruments.Store(key, inst)
	// optional cleanup: remove the per-key mutex from the inits map to allow GC of mutexes
	// It's safe to delete while holding the mutex; existing goroutines that already
	// hold the pointer will continue to use it, and new callers will get a new mutex.
	if !p.cfg.doNotCleanupInits {
		p.inits.Delete(key)
	}
	return inst, nil
}

func assertInstrument[C Collector](p *BasicProvider, key InstrumentKey, v interface{}) (C, error) {
	inst, ok := v.(C)
	if !ok {
		// invariant violation: wrong type in map
		p.reportInvariantViolation(key.Type.String()+"_type", key)
		var zero C
		return zero, fmt.Errorf("%w: %s holds %T", ErrAlreadyRegistered, key, v)
	}
	return inst, nil
}

// reportInvariantViolation reports unexpected internal states such as
// "instrument exists but meta missing". In release builds it logs up to 10 times;
// in debug builds it panics to catch bugs early.
func (p *BasicProvider) reportInvariantViolation(kind string, key InstrumentKey) {
	// Avoid spamming logs
	const maxReports = 10
	if p.invariantReports.Add(1) > maxReports {
		return
	}

	msg := "[metrics] invariant violation: " + kind + " for " + key.String()

	// In debug builds, fail fast.
	if isDebugBuild() {
		panic(msg)
	}

	// In release builds, just log a warning.
	p.logger.Warnf("%s", msg)
}
