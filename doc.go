/*
Package metrics is a concurrency-safe, in-process metrics library that
produces Prometheus-compatible snapshots.

# Overview

Instrumented code updates metric values; a Registry gathers them into a
sorted snapshot of metric families; the encoder package serializes the
snapshot in the text or delimited protobuf exposition format.

 1. Values: Counter (float64) and IntCounter (uint64) only go up, Gauge
    (float64) and IntGauge (int64) go both ways, Histogram counts
    observations into cumulative buckets. Every value is a lock-free atomic
    cell; float additions use a compare-and-swap loop.

 2. Families: CounterVec, IntCounterVec, GaugeVec, IntGaugeVec and
    HistogramVec partition a family by variable label values. Children are
    created on first access and shared by every holder; removing a child
    stops its export but leaves held references usable.

 3. Local shadows: LocalCounter and LocalCounterVec buffer increments for a
    single goroutine and push them to the shared counter on Flush. They must
    not be shared between goroutines.

 4. Registry: Register checks that descriptor identities are unique and that
    a name keeps the same label names and help text for the lifetime of the
    registry, even across Unregister. A failed registration leaves the
    registry untouched. Gather drops empty families, merges families sharing
    a name, sorts families by name and samples by label values, then applies
    the optional prefix and common labels.

 5. Provider and Inspector: BasicProvider creates named instruments once per
    (type, name), registers them and keeps their descriptors for inspection.

Examples

	r := metrics.NewRegistry()
	requests, _ := metrics.NewCounterVec("http_requests_total", "HTTP requests", []string{"method"})
	r.MustRegister(requests)
	requests.WithLabelValues("GET").Inc()

	_ = encoder.NewTextEncoder().Encode(os.Stdout, r.Gather())

	// Buffer hot-loop increments and publish them once
	local := requests.Local()
	for range items {
	    local.WithLabelValues("POST").Inc()
	}
	local.Flush()

# Invariant violations

A negative increment on a counter is a programmer error. With the debug
build tag it panics; otherwise the update is dropped and reported to the
logger installed with SetInvariantLogger.

	go test -tags=debug ./...

# Notes

- Label values of different tuples whose hashes collide share one child.
- Gather reads each child independently; a snapshot is not transactional.
*/
package metrics
