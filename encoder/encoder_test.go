package encoder

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
)

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func counterFamily(name, help string, value float64, labels ...*dto.LabelPair) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Label:   labels,
			Counter: &dto.Counter{Value: proto.Float64(value)},
		}},
	}
}

func TestTextEncoder_Counter(t *testing.T) {
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{counterFamily("req_total", "requests", 3)})
	require.NoError(t, err)
	assert.Equal(t, "# HELP req_total requests\n# TYPE req_total counter\nreq_total 3\n", out)
}

func TestTextEncoder_NoHelpLineWhenEmpty(t *testing.T) {
	mf := &dto.MetricFamily{
		Name:   proto.String("temp"),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(-1.5)}}},
	}
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t, "# TYPE temp gauge\ntemp -1.5\n", out)
}

func TestTextEncoder_LabelsAndTimestamp(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: proto.String("jobs"),
		Help: proto.String("jobs seen"),
		Type: dto.MetricType_UNTYPED.Enum(),
		Metric: []*dto.Metric{{
			Label:       []*dto.LabelPair{label("queue", "a"), label("state", "done")},
			Untyped:     &dto.Untyped{Value: proto.Float64(7)},
			TimestampMs: proto.Int64(1700000000000),
		}},
	}
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t,
		"# HELP jobs jobs seen\n# TYPE jobs untyped\njobs{queue=\"a\",state=\"done\"} 7 1700000000000\n",
		out)
}

func TestTextEncoder_Escaping(t *testing.T) {
	mf := counterFamily("esc_total", "a \\ b\nc \"q\"", 1, label("path", "x\\y\n\"z\""))
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t,
		"# HELP esc_total a \\\\ b\\nc \"q\"\n"+
			"# TYPE esc_total counter\n"+
			"esc_total{path=\"x\\\\y\\n\\\"z\\\"\"} 1\n",
		out)
}

func TestEscapeString(t *testing.T) {
	cases := []struct {
		in           string
		includeQuote bool
		want         string
	}{
		{in: "plain", want: "plain"},
		{in: `a"b`, want: `a"b`},
		{in: `a"b`, includeQuote: true, want: `a\"b`},
		{in: "a\\b", want: `a\\b`},
		{in: "a\nb", includeQuote: true, want: `a\nb`},
		{in: "ü\n", want: `ü\n`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeString(tc.in, tc.includeQuote), "input %q", tc.in)
	}
}

func TestEscapeString_PlainInputDoesNotAllocate(t *testing.T) {
	var out string
	allocs := testing.AllocsPerRun(100, func() {
		out = escapeString("plain label value", true)
	})
	assert.Zero(t, allocs)
	assert.Equal(t, "plain label value", out)
}

func TestTextEncoder_HistogramAddsInfBucket(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: proto.String("latency_seconds"),
		Help: proto.String("latency"),
		Type: dto.MetricType_HISTOGRAM.Enum(),
		Metric: []*dto.Metric{{
			Histogram: &dto.Histogram{
				SampleCount: proto.Uint64(3),
				SampleSum:   proto.Float64(2.5),
				Bucket: []*dto.Bucket{
					{UpperBound: proto.Float64(0.5), CumulativeCount: proto.Uint64(1)},
					{UpperBound: proto.Float64(1), CumulativeCount: proto.Uint64(2)},
				},
			},
		}},
	}
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t,
		"# HELP latency_seconds latency\n"+
			"# TYPE latency_seconds histogram\n"+
			"latency_seconds_bucket{le=\"0.5\"} 1\n"+
			"latency_seconds_bucket{le=\"1\"} 2\n"+
			"latency_seconds_bucket{le=\"+Inf\"} 3\n"+
			"latency_seconds_sum 2.5\n"+
			"latency_seconds_count 3\n",
		out)
}

func TestTextEncoder_HistogramKeepsDeclaredInfBucket(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: proto.String("size_bytes"),
		Type: dto.MetricType_HISTOGRAM.Enum(),
		Metric: []*dto.Metric{{
			Label: []*dto.LabelPair{label("op", "read")},
			Histogram: &dto.Histogram{
				SampleCount: proto.Uint64(2),
				SampleSum:   proto.Float64(10),
				Bucket: []*dto.Bucket{
					{UpperBound: proto.Float64(1), CumulativeCount: proto.Uint64(1)},
					{UpperBound: proto.Float64(math.Inf(1)), CumulativeCount: proto.Uint64(2)},
				},
			},
		}},
	}
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t,
		"# TYPE size_bytes histogram\n"+
			"size_bytes_bucket{op=\"read\",le=\"1\"} 1\n"+
			"size_bytes_bucket{op=\"read\",le=\"+Inf\"} 2\n"+
			"size_bytes_sum{op=\"read\"} 10\n"+
			"size_bytes_count{op=\"read\"} 2\n",
		out)
}

func TestTextEncoder_Summary(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: proto.String("rpc_seconds"),
		Type: dto.MetricType_SUMMARY.Enum(),
		Metric: []*dto.Metric{{
			Summary: &dto.Summary{
				SampleCount: proto.Uint64(4),
				SampleSum:   proto.Float64(1.25),
				Quantile: []*dto.Quantile{
					{Quantile: proto.Float64(0.5), Value: proto.Float64(0.25)},
					{Quantile: proto.Float64(0.99), Value: proto.Float64(0.75)},
				},
			},
		}},
	}
	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t,
		"# TYPE rpc_seconds summary\n"+
			"rpc_seconds{quantile=\"0.5\"} 0.25\n"+
			"rpc_seconds{quantile=\"0.99\"} 0.75\n"+
			"rpc_seconds_sum 1.25\n"+
			"rpc_seconds_count 4\n",
		out)
}

func TestTextEncoder_SpecialFloats(t *testing.T) {
	assert.Equal(t, "+Inf", formatFloat(math.Inf(1)))
	assert.Equal(t, "-Inf", formatFloat(math.Inf(-1)))
	assert.Equal(t, "NaN", formatFloat(math.NaN()))
	assert.Equal(t, "1000000", formatFloat(1e6))
	assert.Equal(t, "0.00001", formatFloat(1e-5))
	assert.Equal(t, "0.005", formatFloat(0.005))
	assert.Equal(t, "-2.5", formatFloat(-2.5))
}

func TestTextEncoder_LargeValuesAreDecimal(t *testing.T) {
	mf := counterFamily("req_total", "requests", 1e6)
	mf.Metric = append(mf.Metric, &dto.Metric{
		Label:   []*dto.LabelPair{{Name: proto.String("size"), Value: proto.String("tiny")}},
		Counter: &dto.Counter{Value: proto.Float64(1e-5)},
	})

	out, err := NewTextEncoder().EncodeToString([]*dto.MetricFamily{mf})
	require.NoError(t, err)
	assert.Equal(t, "# HELP req_total requests\n# TYPE req_total counter\nreq_total 1000000\nreq_total{size=\"tiny\"} 0.00001\n", out)
}

func TestEncoders_RejectInvalidFamilies(t *testing.T) {
	empty := &dto.MetricFamily{Name: proto.String("empty"), Type: dto.MetricType_COUNTER.Enum()}
	unnamed := counterFamily("", "", 1)
	gaugeHistogram := &dto.MetricFamily{
		Name:   proto.String("gh"),
		Type:   dto.MetricType_GAUGE_HISTOGRAM.Enum(),
		Metric: []*dto.Metric{{Histogram: &dto.Histogram{}}},
	}

	for _, enc := range []Encoder{NewTextEncoder(), NewProtobufEncoder()} {
		t.Run(enc.FormatType(), func(t *testing.T) {
			err := enc.Encode(io.Discard, []*dto.MetricFamily{empty})
			assert.ErrorIs(t, err, ErrEmptyFamily)

			err = enc.Encode(io.Discard, []*dto.MetricFamily{unnamed})
			assert.ErrorIs(t, err, ErrUnnamedFamily)
		})
	}

	err := NewTextEncoder().Encode(io.Discard, []*dto.MetricFamily{gaugeHistogram})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestTextEncoder_FailingFamilyWritesNothingForIt(t *testing.T) {
	var buf bytes.Buffer
	good := counterFamily("a_total", "", 1)
	bad := &dto.MetricFamily{Name: proto.String("b_total"), Type: dto.MetricType_COUNTER.Enum()}

	err := NewTextEncoder().Encode(&buf, []*dto.MetricFamily{good, bad})
	require.ErrorIs(t, err, ErrEmptyFamily)
	assert.Equal(t, "# TYPE a_total counter\na_total 1\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestTextEncoder_PropagatesWriteError(t *testing.T) {
	err := NewTextEncoder().Encode(failingWriter{}, []*dto.MetricFamily{counterFamily("a_total", "", 1)})
	assert.EqualError(t, err, "broken pipe")
}

func TestProtobufEncoder_RoundTrip(t *testing.T) {
	in := []*dto.MetricFamily{
		counterFamily("a_total", "first", 1, label("k", "v")),
		counterFamily("b_total", "second", 2),
	}

	var buf bytes.Buffer
	require.NoError(t, NewProtobufEncoder().Encode(&buf, in))

	r := bytes.NewReader(buf.Bytes())
	for _, want := range in {
		got := &dto.MetricFamily{}
		require.NoError(t, protodelim.UnmarshalFrom(r, got))
		assert.True(t, proto.Equal(want, got), "want %v got %v", want, got)
	}
	assert.ErrorIs(t, protodelim.UnmarshalFrom(r, &dto.MetricFamily{}), io.EOF)
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		name   string
		accept string
		want   string
	}{
		{name: "empty", accept: "", want: TextFormat},
		{name: "text", accept: "text/plain", want: TextFormat},
		{name: "wildcard", accept: "*/*", want: TextFormat},
		{
			name:   "delimited protobuf",
			accept: "application/vnd.google.protobuf;proto=io.prometheus.client.MetricFamily;encoding=delimited;q=0.7,text/plain;q=0.3",
			want:   ProtobufFormat,
		},
		{
			name:   "protobuf without delimited encoding",
			accept: "application/vnd.google.protobuf;proto=io.prometheus.client.MetricFamily",
			want:   TextFormat,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Negotiate(tc.accept).FormatType())
		})
	}
}
