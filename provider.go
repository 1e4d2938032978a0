package metrics

// Provider constructs named instruments and registers them once. Repeated
// calls with the same type and fully-qualified name return the same
// instrument; options of later calls are ignored.
// Implementations must be safe for concurrent use.
type Provider interface {
	Counter(name, help string, opts ...Option) (*Counter, error)
	IntCounter(name, help string, opts ...Option) (*IntCounter, error)
	Gauge(name, help string, opts ...Option) (*Gauge, error)
	IntGauge(name, help string, opts ...Option) (*IntGauge, error)
	Histogram(name, help string, opts ...Option) (*Histogram, error)
}

// InstrumentType names an instrument kind.
type InstrumentType string

const (
	InstrumentTypeCounter    InstrumentType = "counter"
	InstrumentTypeIntCounter InstrumentType = "intcounter"
	InstrumentTypeGauge      InstrumentType = "gauge"
	InstrumentTypeIntGauge   InstrumentType = "intgauge"
	InstrumentTypeHistogram  InstrumentType = "histogram"
)

// String returns the type name.
func (t InstrumentType) String() string { return string(t) }

// InstrumentKey identifies an instrument inside a provider.
type InstrumentKey struct {
	Type InstrumentType
	Name string
}

// NewInstrumentKey builds the key for an instrument of type typ named name.
func NewInstrumentKey(typ InstrumentType, name string) InstrumentKey {
	return InstrumentKey{Type: typ, Name: name}
}

// String returns the key as "type:name".
func (k InstrumentKey) String() string { return k.Type.String() + ":" + k.Name }
