package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// Opts carries the static description of a metric family. Namespace,
// Subsystem and Name are joined with "_" to form the fully-qualified name.
type Opts struct {
	Namespace   string
	Subsystem   string
	Name        string
	Help        string
	ConstLabels map[string]string
	// Buckets is only used by histograms.
	Buckets []float64
}

// Option mutates Opts.
type Option func(*Opts)

// WithNamespace sets the first component of the fully-qualified name.
func WithNamespace(ns string) Option {
	return func(o *Opts) { o.Namespace = ns }
}

// WithSubsystem sets the middle component of the fully-qualified name.
func WithSubsystem(sub string) Option {
	return func(o *Opts) { o.Subsystem = sub }
}

// WithConstLabels attaches constant labels to every sample of the family.
func WithConstLabels(labels map[string]string) Option {
	return func(o *Opts) {
		if len(labels) == 0 {
			return
		}
		// copy to avoid external mutation
		if o.ConstLabels == nil {
			o.ConstLabels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			o.ConstLabels[k] = v
		}
	}
}

// WithBuckets sets histogram upper bounds.
func WithBuckets(buckets []float64) Option {
	return func(o *Opts) { o.Buckets = append([]float64(nil), buckets...) }
}

// NewOpts builds Opts from a name, a help string and options.
func NewOpts(name, help string, opts ...Option) Opts {
	o := Opts{Name: name, Help: help}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// FQName joins the non-empty name components with "_".
func (o Opts) FQName() string {
	return BuildFQName(o.Namespace, o.Subsystem, o.Name)
}

// BuildFQName joins namespace, subsystem and name. An empty name yields "".
func BuildFQName(namespace, subsystem, name string) string {
	if name == "" {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{namespace, subsystem, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

func (o Opts) describe(variableLabels []string) (*Desc, error) {
	return NewDesc(o.FQName(), o.Help, variableLabels, o.ConstLabels)
}

// String summarizes the options with sorted const label names.
func (o Opts) String() string {
	keys := make([]string, 0, len(o.ConstLabels))
	for k := range o.ConstLabels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("Opts{name: %q, help: %q, constLabels: %v}", o.FQName(), o.Help, keys)
}
