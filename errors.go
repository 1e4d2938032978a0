package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrLabelCardinalityMismatch indicates a label-value count that differs from the declared label names.
	ErrLabelCardinalityMismatch = errors.New("inconsistent label cardinality")

	// ErrDuplicateLabel indicates a label name declared more than once, as a constant and a variable label or twice in the same set.
	ErrDuplicateLabel = errors.New("duplicate label name")

	// ErrAlreadyRegistered indicates a collector, or one of its descriptors, is already registered.
	ErrAlreadyRegistered = errors.New("duplicate metrics collector registration attempted")

	// ErrDescriptorConflict indicates a name previously registered with different label names or help text.
	ErrDescriptorConflict = errors.New("descriptor conflicts with a previously registered descriptor of the same name")

	// ErrDuplicateDescriptor indicates a collector exposing the same descriptor twice.
	ErrDuplicateDescriptor = errors.New("duplicate descriptor within the same collector")

	// ErrNotRegistered indicates an unregister call for an unknown collector.
	ErrNotRegistered = errors.New("collector is not registered")

	// ErrMetricNotFound indicates a removal of a label combination that does not exist.
	ErrMetricNotFound = errors.New("metric not found")

	// ErrInvalidName indicates a metric or label name that does not match the supported format.
	ErrInvalidName = errors.New("invalid metric or label name")

	// ErrInvalidBuckets indicates histogram buckets that are not strictly increasing.
	ErrInvalidBuckets = errors.New("histogram buckets must be in increasing order")

	// ErrEmptyPrefix indicates a registry configured with an empty name prefix.
	ErrEmptyPrefix = errors.New("empty prefix namespace")
)

// AlreadyRegisteredError is returned by Registry.Register when the collector
// (by identity) is already registered. Existing is the collector that was
// registered first; callers may adopt it instead of the new one.
type AlreadyRegisteredError struct {
	Existing, New Collector
}

// Error implements error.
func (e *AlreadyRegisteredError) Error() string {
	return ErrAlreadyRegistered.Error()
}

// Unwrap lets errors.Is match ErrAlreadyRegistered.
func (e *AlreadyRegisteredError) Unwrap() error { return ErrAlreadyRegistered }

func cardinalityError(want, got int) error {
	return fmt.Errorf("%w: expected %d label values but got %d", ErrLabelCardinalityMismatch, want, got)
}
