package metrics

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"
)

// Registry is the consistency-checked catalog of live collectors.
//
// Invariants enforced on Register:
//   - no two registered collectors share a descriptor identity;
//   - a collector exposes no descriptor identity twice;
//   - a fully-qualified name keeps the dimension hash it was first
//     registered with for the lifetime of the registry, across
//     unregistration.
type Registry struct {
	cfg    *registryConfig
	logger Logger

	mtx              sync.RWMutex
	collectorsByID   map[uint64]Collector
	dimHashesByName  map[string]uint64
	descIDs          map[uint64]struct{}
	commonLabelPairs []*dto.LabelPair // sorted by name
}

var _ Gatherer = (*Registry)(nil)

// NewRegistry creates an empty registry without prefix or common labels.
func NewRegistry() *Registry {
	r, _ := NewCustomRegistry()
	return r
}

// NewCustomRegistry creates a registry configured by opts. An empty prefix
// or an invalid common label name is rejected.
func NewCustomRegistry(opts ...RegistryOption) (*Registry, error) {
	cfg := &registryConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.prefixSet && cfg.prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if cfg.prefixSet && !metricNameRE.MatchString(cfg.prefix) {
		return nil, fmt.Errorf("%w: prefix %q", ErrInvalidName, cfg.prefix)
	}

	names := make([]string, 0, len(cfg.labels))
	for name := range cfg.labels {
		if err := checkLabelName(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]*dto.LabelPair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, &dto.LabelPair{Name: proto.String(name), Value: proto.String(cfg.labels[name])})
	}

	l := cfg.logger
	if l == nil {
		l = newNoopLogger()
	}
	return &Registry{
		cfg:              cfg,
		logger:           l,
		collectorsByID:   make(map[uint64]Collector),
		dimHashesByName:  make(map[string]uint64),
		descIDs:          make(map[uint64]struct{}),
		commonLabelPairs: pairs,
	}, nil
}

// Register adds c to the registry. It validates every descriptor before
// touching shared state, so a failed registration leaves no trace.
//
// Registering a collector whose identity is already present (including the
// same collector twice) returns an *AlreadyRegisteredError carrying the
// existing collector.
func (r *Registry) Register(c Collector) error {
	descs := c.Describe()

	r.mtx.Lock()
	defer r.mtx.Unlock()

	ids := make(map[uint64]struct{}, len(descs))
	pendingDims := make(map[string]uint64, len(descs))
	var collectorID uint64
	for _, desc := range descs {
		if _, used := r.descIDs[desc.id]; used {
			if existing, ok := r.collectorsByID[r.identityOf(descs)]; ok {
				r.logger.Debugf("collector %v already registered", desc)
				return &AlreadyRegisteredError{Existing: existing, New: c}
			}
			r.logger.Warnf("descriptor %v already registered by another collector", desc)
			return fmt.Errorf("%w: descriptor %v already exists with the same fully-qualified name and const label values", ErrAlreadyRegistered, desc)
		}
		if dim, ok := r.dimHashesByName[desc.fqName]; ok && dim != desc.dimHash {
			r.logger.Warnf("descriptor %v conflicts with a previous registration", desc)
			return fmt.Errorf("%w: %v has different label names or a different help string", ErrDescriptorConflict, desc)
		}
		if dim, ok := pendingDims[desc.fqName]; ok && dim != desc.dimHash {
			return fmt.Errorf("%w: %v has different label names or a different help string", ErrDescriptorConflict, desc)
		}
		pendingDims[desc.fqName] = desc.dimHash

		if _, dup := ids[desc.id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateDescriptor, desc.fqName)
		}
		ids[desc.id] = struct{}{}
		collectorID += desc.id
	}

	if existing, ok := r.collectorsByID[collectorID]; ok {
		return &AlreadyRegisteredError{Existing: existing, New: c}
	}

	r.collectorsByID[collectorID] = c
	for name, dim := range pendingDims {
		r.dimHashesByName[name] = dim
	}
	for id := range ids {
		r.descIDs[id] = struct{}{}
	}
	r.logger.Debugf("registered collector with %d descriptors", len(descs))
	return nil
}

// MustRegister registers every collector and panics on the first error.
func (r *Registry) MustRegister(cs ...Collector) {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Unregister removes the collector whose descriptors equal those of c. Name
// to dimension records are kept so that later registrations stay consistent.
func (r *Registry) Unregister(c Collector) error {
	descs := c.Describe()

	r.mtx.Lock()
	defer r.mtx.Unlock()

	collectorID := r.identityOf(descs)
	if _, ok := r.collectorsByID[collectorID]; !ok {
		return fmt.Errorf("%w: %v", ErrNotRegistered, descs)
	}
	delete(r.collectorsByID, collectorID)
	for _, desc := range descs {
		delete(r.descIDs, desc.id)
	}
	r.logger.Debugf("unregistered collector with %d descriptors", len(descs))
	return nil
}

// Contains reports whether any descriptor of c is already in use. Callers
// use it to register shared metrics idempotently.
func (r *Registry) Contains(c Collector) bool {
	descs := c.Describe()

	r.mtx.RLock()
	defer r.mtx.RUnlock()
	for _, desc := range descs {
		if _, ok := r.descIDs[desc.id]; ok {
			return true
		}
	}
	return false
}

// identityOf sums the distinct descriptor identities, wrapping on overflow.
func (r *Registry) identityOf(descs []*Desc) uint64 {
	seen := make(map[uint64]struct{}, len(descs))
	var id uint64
	for _, desc := range descs {
		if _, ok := seen[desc.id]; ok {
			continue
		}
		seen[desc.id] = struct{}{}
		id += desc.id
	}
	return id
}

// Gather collects every registered collector and returns families sorted by
// name with samples sorted by label values. Empty families are dropped and
// families sharing a name are merged without checking type consistency.
// Concurrent gathers run in parallel; register and unregister wait.
func (r *Registry) Gather() []*dto.MetricFamily {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	byName := make(map[string]*dto.MetricFamily)
	for _, c := range r.collectorsByID {
		for _, mf := range c.Collect() {
			if len(mf.GetMetric()) == 0 {
				continue
			}
			name := mf.GetName()
			if existing, ok := byName[name]; ok {
				existing.Metric = append(existing.Metric, mf.Metric...)
				continue
			}
			byName[name] = mf
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		mf := byName[name]
		slices.SortStableFunc(mf.Metric, compareMetrics)
		if r.cfg.prefixSet {
			mf.Name = proto.String(r.cfg.prefix + "_" + name)
		}
		if len(r.commonLabelPairs) > 0 {
			for _, m := range mf.Metric {
				labels := make([]*dto.LabelPair, 0, len(m.Label)+len(r.commonLabelPairs))
				labels = append(labels, m.Label...)
				m.Label = append(labels, r.commonLabelPairs...)
			}
		}
		out = append(out, mf)
	}
	return out
}

// compareMetrics orders samples by label values in position order. Label
// sets of different length compare by length; equal label sets compare by
// timestamp with a missing timestamp last.
func compareMetrics(a, b *dto.Metric) int {
	la, lb := a.GetLabel(), b.GetLabel()
	if len(la) != len(lb) {
		return cmp.Compare(len(la), len(lb))
	}
	for i := range la {
		if c := cmp.Compare(la[i].GetValue(), lb[i].GetValue()); c != 0 {
			return c
		}
	}
	ta, tb := a.GetTimestampMs(), b.GetTimestampMs()
	switch {
	case ta == tb:
		return 0
	case ta == 0:
		return 1
	case tb == 0:
		return -1
	default:
		return cmp.Compare(ta, tb)
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, created on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register registers c with the default registry.
func Register(c Collector) error { return DefaultRegistry().Register(c) }

// MustRegister registers cs with the default registry and panics on error.
func MustRegister(cs ...Collector) { DefaultRegistry().MustRegister(cs...) }

// Unregister unregisters c from the default registry.
func Unregister(c Collector) error { return DefaultRegistry().Unregister(c) }

// Contains reports whether the default registry uses any descriptor of c.
func Contains(c Collector) bool { return DefaultRegistry().Contains(c) }

// Gather gathers the default registry.
func Gather() []*dto.MetricFamily { return DefaultRegistry().Gather() }
