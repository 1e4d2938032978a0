package encoder

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/encoding/protodelim"
)

// ProtobufEncoder writes each family as a varint length-prefixed
// io.prometheus.client.MetricFamily record.
type ProtobufEncoder struct{}

var _ Encoder = ProtobufEncoder{}

// NewProtobufEncoder returns an encoder writing varint-delimited MetricFamily records.
func NewProtobufEncoder() ProtobufEncoder { return ProtobufEncoder{} }

// Encode writes each family as one length-delimited protobuf record.
func (ProtobufEncoder) Encode(w io.Writer, mfs []*dto.MetricFamily) error {
	for _, mf := range mfs {
		if err := checkMetricFamily(mf); err != nil {
			return err
		}
		if _, err := protodelim.MarshalTo(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// FormatType returns ProtobufFormat.
func (ProtobufEncoder) FormatType() string { return ProtobufFormat }
