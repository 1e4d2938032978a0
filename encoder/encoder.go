// Package encoder serializes gathered metric families into the text and
// delimited protobuf exposition formats.
package encoder

import (
	"errors"
	"fmt"
	"io"

	"github.com/munnerz/goautoneg"
	dto "github.com/prometheus/client_model/go"
)

const (
	// TextFormat is the media type of the text exposition format.
	TextFormat = "text/plain; version=0.0.4"

	// ProtobufFormat is the media type of the delimited protobuf format.
	ProtobufFormat = "application/vnd.google.protobuf; proto=io.prometheus.client.MetricFamily; encoding=delimited"
)

var (
	// ErrEmptyFamily indicates a metric family without samples.
	ErrEmptyFamily = errors.New("metric family has no metrics")

	// ErrUnnamedFamily indicates a metric family without a name.
	ErrUnnamedFamily = errors.New("metric family has no name")

	// ErrUnsupportedType indicates a metric type the encoder cannot render.
	ErrUnsupportedType = errors.New("unsupported metric type")
)

// Encoder converts metric families into a wire format. Encode does not
// validate metric or label names; invalid names produce invalid output.
type Encoder interface {
	Encode(w io.Writer, mfs []*dto.MetricFamily) error
	FormatType() string
}

// checkMetricFamily is the fail-fast validation run before anything is
// written for a family.
func checkMetricFamily(mf *dto.MetricFamily) error {
	if len(mf.GetMetric()) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyFamily, mf.GetName())
	}
	if mf.GetName() == "" {
		return ErrUnnamedFamily
	}
	return nil
}

// Negotiate picks the encoder matching an HTTP Accept header. The text
// encoder is the fallback.
func Negotiate(accept string) Encoder {
	switch goautoneg.Negotiate(accept, []string{"application/vnd.google.protobuf", "text/plain"}) {
	case "application/vnd.google.protobuf":
		for _, a := range goautoneg.ParseAccept(accept) {
			if a.Params["proto"] == "io.prometheus.client.MetricFamily" && a.Params["encoding"] == "delimited" {
				return NewProtobufEncoder()
			}
		}
	}
	return NewTextEncoder()
}
