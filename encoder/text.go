package encoder

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

const (
	bucketLabel   = "le"
	quantileLabel = "quantile"
	positiveInf   = "+Inf"
)

// TextEncoder writes the line-oriented text exposition format.
type TextEncoder struct{}

var _ Encoder = TextEncoder{}

// NewTextEncoder returns an encoder for the text exposition format.
func NewTextEncoder() TextEncoder { return TextEncoder{} }

// FormatType returns TextFormat.
func (TextEncoder) FormatType() string { return TextFormat }

// Encode writes mfs to w. A family that fails validation aborts encoding
// before any of its lines are written; earlier families are kept.
func (TextEncoder) Encode(w io.Writer, mfs []*dto.MetricFamily) (err error) {
	bw := bufio.NewWriter(w)
	defer func() {
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
	}()

	for _, mf := range mfs {
		if err := checkMetricFamily(mf); err != nil {
			return err
		}
		if err := writeFamily(bw, mf); err != nil {
			return err
		}
	}
	return nil
}

// EncodeToString is Encode into a string.
func (e TextEncoder) EncodeToString(mfs []*dto.MetricFamily) (string, error) {
	var b strings.Builder
	if err := e.Encode(&b, mfs); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeFamily(w *bufio.Writer, mf *dto.MetricFamily) error {
	typ := mf.GetType()
	switch typ {
	case dto.MetricType_COUNTER, dto.MetricType_GAUGE, dto.MetricType_UNTYPED,
		dto.MetricType_HISTOGRAM, dto.MetricType_SUMMARY:
	default:
		return fmt.Errorf("%w: %s for %q", ErrUnsupportedType, typ, mf.GetName())
	}

	name := mf.GetName()
	if help := mf.GetHelp(); help != "" {
		w.WriteString("# HELP ")
		w.WriteString(name)
		w.WriteByte(' ')
		w.WriteString(escapeString(help, false))
		w.WriteByte('\n')
	}
	w.WriteString("# TYPE ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(strings.ToLower(typ.String()))
	w.WriteByte('\n')

	for _, m := range mf.GetMetric() {
		switch typ {
		case dto.MetricType_COUNTER:
			writeSample(w, name, "", m, "", "", m.GetCounter().GetValue())
		case dto.MetricType_GAUGE:
			writeSample(w, name, "", m, "", "", m.GetGauge().GetValue())
		case dto.MetricType_UNTYPED:
			writeSample(w, name, "", m, "", "", m.GetUntyped().GetValue())
		case dto.MetricType_HISTOGRAM:
			h := m.GetHistogram()
			infSeen := false
			for _, b := range h.GetBucket() {
				ub := b.GetUpperBound()
				writeSample(w, name, "_bucket", m, bucketLabel, formatFloat(ub), float64(b.GetCumulativeCount()))
				if math.IsInf(ub, 1) {
					infSeen = true
				}
			}
			if !infSeen {
				writeSample(w, name, "_bucket", m, bucketLabel, positiveInf, float64(h.GetSampleCount()))
			}
			writeSample(w, name, "_sum", m, "", "", h.GetSampleSum())
			writeSample(w, name, "_count", m, "", "", float64(h.GetSampleCount()))
		case dto.MetricType_SUMMARY:
			s := m.GetSummary()
			for _, q := range s.GetQuantile() {
				writeSample(w, name, "", m, quantileLabel, formatFloat(q.GetQuantile()), q.GetValue())
			}
			writeSample(w, name, "_sum", m, "", "", s.GetSampleSum())
			writeSample(w, name, "_count", m, "", "", float64(s.GetSampleCount()))
		}
	}
	// bufio.Writer keeps the first write error and reports it here.
	_, err := w.Write(nil)
	return err
}

// writeSample writes one line: name, optional suffix, labels plus an optional
// extra label, value and timestamp when present.
func writeSample(w *bufio.Writer, name, suffix string, m *dto.Metric, extraName, extraValue string, value float64) {
	w.WriteString(name)
	w.WriteString(suffix)
	writeLabelPairs(w, m.GetLabel(), extraName, extraValue)
	w.WriteByte(' ')
	w.WriteString(formatFloat(value))
	if ts := m.GetTimestampMs(); ts != 0 {
		w.WriteByte(' ')
		w.WriteString(strconv.FormatInt(ts, 10))
	}
	w.WriteByte('\n')
}

// writeLabelPairs writes {name="value",...}; nothing at all when there are
// no labels.
func writeLabelPairs(w *bufio.Writer, pairs []*dto.LabelPair, extraName, extraValue string) {
	if len(pairs) == 0 && extraName == "" {
		return
	}
	sep := byte('{')
	for _, lp := range pairs {
		w.WriteByte(sep)
		w.WriteString(lp.GetName())
		w.WriteString(`="`)
		w.WriteString(escapeString(lp.GetValue(), true))
		w.WriteByte('"')
		sep = ','
	}
	if extraName != "" {
		w.WriteByte(sep)
		w.WriteString(extraName)
		w.WriteString(`="`)
		w.WriteString(escapeString(extraValue, true))
		w.WriteByte('"')
	}
	w.WriteByte('}')
}

// escapeString replaces `\` by `\\` and a newline by `\n`, plus `"` by `\"`
// when includeQuote is set. Strings without such characters are returned
// as is, without allocating.
func escapeString(v string, includeQuote bool) string {
	special := "\\\n"
	if includeQuote {
		special = "\\\n\""
	}
	first := strings.IndexAny(v, special)
	if first < 0 {
		return v
	}

	var b strings.Builder
	b.Grow(len(v) + 8)
	b.WriteString(v[:first])
	for i := first; i < len(v); i++ {
		switch c := v[i]; {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '"' && includeQuote:
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// formatFloat renders f in plain decimal notation, never with an exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return positiveInf
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
