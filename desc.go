package metrics

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"
)

// separatorByte terminates every string fed into a hash so that
// ("ab","c") and ("a","bc") hash differently.
const separatorByte byte = 255

var (
	metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRE  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// reservedLabelPrefix is owned by the monitoring backend.
const reservedLabelPrefix = "__"

// Desc is the immutable descriptor shared by every instance of a metric family.
//
// Two hashes are derived at construction:
//   - id distinguishes the family plus constant labels plus variable label
//     names from every other family; the registry keys uniqueness on it.
//   - dimHash captures the shape (help, constant label names, variable label
//     names in order); the registry requires it to be stable per name.
type Desc struct {
	fqName         string
	help           string
	constLabels    []*dto.LabelPair // sorted by name
	variableLabels []string
	id             uint64
	dimHash        uint64
}

// NewDesc validates and builds a descriptor.
func NewDesc(fqName, help string, variableLabels []string, constLabels map[string]string) (*Desc, error) {
	if !metricNameRE.MatchString(fqName) {
		return nil, fmt.Errorf("%w: %q is not a valid metric name", ErrInvalidName, fqName)
	}

	seen := make(map[string]struct{}, len(variableLabels)+len(constLabels))
	constNames := make([]string, 0, len(constLabels))
	for name := range constLabels {
		if err := checkLabelName(name); err != nil {
			return nil, err
		}
		seen[name] = struct{}{}
		constNames = append(constNames, name)
	}
	sort.Strings(constNames)

	for _, name := range variableLabels {
		if err := checkLabelName(name); err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateLabel, name, fqName)
		}
		seen[name] = struct{}{}
	}

	d := &Desc{
		fqName:         fqName,
		help:           help,
		constLabels:    make([]*dto.LabelPair, 0, len(constNames)),
		variableLabels: append([]string(nil), variableLabels...),
	}

	idh := xxhash.New()
	writeHashString(idh, fqName)
	for _, name := range constNames {
		value := constLabels[name]
		d.constLabels = append(d.constLabels, &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)})
		writeHashString(idh, name)
		writeHashString(idh, value)
	}
	for _, name := range variableLabels {
		writeHashString(idh, name)
	}
	d.id = idh.Sum64()

	dh := xxhash.New()
	writeHashString(dh, fqName)
	writeHashString(dh, help)
	for _, name := range constNames {
		writeHashString(dh, name)
	}
	for _, name := range variableLabels {
		writeHashString(dh, name)
	}
	d.dimHash = dh.Sum64()

	return d, nil
}

func checkLabelName(name string) error {
	if !labelNameRE.MatchString(name) || strings.HasPrefix(name, reservedLabelPrefix) {
		return fmt.Errorf("%w: %q is not a valid label name", ErrInvalidName, name)
	}
	return nil
}

func writeHashString(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{separatorByte})
}

// FQName returns the fully-qualified metric name.
func (d *Desc) FQName() string { return d.fqName }

// Help returns the help text.
func (d *Desc) Help() string { return d.help }

// VariableLabels returns a copy of the variable label names in declared order.
func (d *Desc) VariableLabels() []string { return append([]string(nil), d.variableLabels...) }

// ConstLabels returns a copy of the constant labels.
func (d *Desc) ConstLabels() map[string]string {
	out := make(map[string]string, len(d.constLabels))
	for _, lp := range d.constLabels {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

// ID returns the identity hash.
func (d *Desc) ID() uint64 { return d.id }

// DimHash returns the dimension hash.
func (d *Desc) DimHash() uint64 { return d.dimHash }

// String describes the descriptor for error messages and logs.
func (d *Desc) String() string {
	var b strings.Builder
	for i, lp := range d.constLabels {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", lp.GetName(), lp.GetValue())
	}
	return fmt.Sprintf("Desc{fqName: %q, help: %q, constLabels: {%s}, variableLabels: %v}",
		d.fqName, d.help, b.String(), d.variableLabels)
}

// labelPairs renders constant labels (sorted by name) followed by the
// variable labels in declared order. len(values) must match the arity.
func (d *Desc) labelPairs(values []string) []*dto.LabelPair {
	if len(d.constLabels)+len(values) == 0 {
		return nil
	}
	out := make([]*dto.LabelPair, 0, len(d.constLabels)+len(values))
	for _, lp := range d.constLabels {
		out = append(out, &dto.LabelPair{Name: proto.String(lp.GetName()), Value: proto.String(lp.GetValue())})
	}
	for i, name := range d.variableLabels {
		out = append(out, &dto.LabelPair{Name: proto.String(name), Value: proto.String(values[i])})
	}
	return out
}

// hashLabelValues keys a label-value tuple inside a vec.
func (d *Desc) hashLabelValues(values []string) (uint64, error) {
	if len(values) != len(d.variableLabels) {
		return 0, cardinalityError(len(d.variableLabels), len(values))
	}
	h := xxhash.New()
	for _, v := range values {
		writeHashString(h, v)
	}
	return h.Sum64(), nil
}

// labelValuesFromMap orders a label map by the declared variable labels.
func (d *Desc) labelValuesFromMap(labels map[string]string) ([]string, error) {
	if len(labels) != len(d.variableLabels) {
		return nil, cardinalityError(len(d.variableLabels), len(labels))
	}
	values := make([]string, len(d.variableLabels))
	for i, name := range d.variableLabels {
		v, ok := labels[name]
		if !ok {
			return nil, fmt.Errorf("%w: label %q missing", ErrLabelCardinalityMismatch, name)
		}
		values[i] = v
	}
	return values, nil
}
