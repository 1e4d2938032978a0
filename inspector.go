package metrics

// Inspector provides read-only access to the instruments a provider created.
// WithMeta methods return the instrument, its descriptor, and whether it was
// found. Snapshot semantics: best-effort at call time.
// Methods must be safe for concurrent use.
type Inspector interface {
	CounterWithMeta(name string) (*Counter, *Desc, bool)
	IntCounterWithMeta(name string) (*IntCounter, *Desc, bool)
	GaugeWithMeta(name string) (*Gauge, *Desc, bool)
	IntGaugeWithMeta(name string) (*IntGauge, *Desc, bool)
	HistogramWithMeta(name string) (*Histogram, *Desc, bool)

	// ListMetadata returns enumeration for admin/debug UIs.
	ListMetadata() []InstrumentEntry
}

// InstrumentEntry is one row returned by ListMetadata.
type InstrumentEntry struct {
	Type InstrumentType
	Name string
	Desc *Desc
}
