// Package metricshttp exposes a Gatherer over HTTP.
package metricshttp

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/kkqqqqqq/metrics"
	"github.com/kkqqqqqq/metrics/encoder"
)

type handlerConfig struct {
	logger metrics.Logger
}

// Option configures the handler.
type Option func(*handlerConfig)

// WithLogger logs encoding failures.
func WithLogger(l metrics.Logger) Option {
	return func(c *handlerConfig) { c.logger = l }
}

type handler struct {
	gatherer metrics.Gatherer
	logger   metrics.Logger
}

// Handler serves a fresh gather of g on every request, in the format picked
// from the Accept header. A failed encode answers 500 and sends no partial
// body.
func Handler(g metrics.Gatherer, opts ...Option) http.Handler {
	cfg := &handlerConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	return &handler{gatherer: g, logger: cfg.logger}
}

// ServeHTTP gathers and encodes a fresh snapshot per request.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	mfs := h.gatherer.Gather()
	enc := encoder.Negotiate(r.Header.Get("Accept"))

	var buf bytes.Buffer
	if err := enc.Encode(&buf, mfs); err != nil {
		if h.logger != nil {
			h.logger.Errorf("encode %d metric families: %v", len(mfs), err)
		}
		http.Error(w, "error encoding metrics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", enc.FormatType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := buf.WriteTo(w); err != nil && h.logger != nil {
		h.logger.Warnf("write metrics response: %v", err)
	}
}
