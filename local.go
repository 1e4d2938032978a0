package metrics

import "fmt"

// GenericLocalCounter buffers increments for a single goroutine and pushes
// them to the backing counter on Flush. It is not safe for concurrent use;
// sharing one across goroutines is a caller bug.
type GenericLocalCounter[N Number] struct {
	counter *GenericCounter[N]
	val     N
}

// LocalCounter is the float form of GenericLocalCounter.
type LocalCounter = GenericLocalCounter[float64]

// LocalIntCounter is the integer form of GenericLocalCounter.
type LocalIntCounter = GenericLocalCounter[uint64]

func newLocalCounter[N Number](c *GenericCounter[N]) *GenericLocalCounter[N] {
	return &GenericLocalCounter[N]{counter: c}
}

// Inc adds one to the local buffer.
func (l *GenericLocalCounter[N]) Inc() { l.val += fromInt64[N](1) }

// Add adds delta to the local buffer. A negative delta is rejected.
func (l *GenericLocalCounter[N]) Add(delta N) {
	if delta < fromInt64[N](0) {
		reportInvariantViolation("local counter %s: negative increment %v", l.counter.v.desc.fqName, delta)
		return
	}
	l.val += delta
}

// Get returns the buffered, not yet flushed, amount.
func (l *GenericLocalCounter[N]) Get() N { return l.val }

// Reset discards the buffered amount without touching the backing counter.
func (l *GenericLocalCounter[N]) Reset() { l.val = fromInt64[N](0) }

// Flush adds the buffered amount to the backing counter with a single
// atomic operation and clears the buffer. An empty buffer is a no-op.
func (l *GenericLocalCounter[N]) Flush() {
	if l.val == fromInt64[N](0) {
		return
	}
	l.counter.v.add(l.val)
	l.val = fromInt64[N](0)
}

// Counter returns the backing counter.
func (l *GenericLocalCounter[N]) Counter() *GenericCounter[N] { return l.counter }

// GenericLocalCounterVec keeps one local counter per label combination of a
// counter family. Like GenericLocalCounter it belongs to one goroutine.
type GenericLocalCounterVec[N Number] struct {
	vec   *GenericCounterVec[N]
	local map[uint64]*GenericLocalCounter[N]
}

// LocalCounterVec is the float form of GenericLocalCounterVec.
type LocalCounterVec = GenericLocalCounterVec[float64]

// LocalIntCounterVec is the integer form of GenericLocalCounterVec.
type LocalIntCounterVec = GenericLocalCounterVec[uint64]

func newLocalCounterVec[N Number](vec *GenericCounterVec[N]) *GenericLocalCounterVec[N] {
	return &GenericLocalCounterVec[N]{
		vec:   vec,
		local: make(map[uint64]*GenericLocalCounter[N], vec.Len()),
	}
}

// GetMetricWithLabelValues returns the local counter for the label values,
// creating the backing child in the vec when needed.
func (l *GenericLocalCounterVec[N]) GetMetricWithLabelValues(lvs ...string) (*GenericLocalCounter[N], error) {
	h, err := l.vec.desc.hashLabelValues(lvs)
	if err != nil {
		return nil, err
	}
	if lc, ok := l.local[h]; ok {
		return lc, nil
	}
	c, err := l.vec.getOrCreate(h, lvs)
	if err != nil {
		return nil, err
	}
	lc := c.Local()
	l.local[h] = lc
	return lc, nil
}

// WithLabelValues is GetMetricWithLabelValues that panics on error.
func (l *GenericLocalCounterVec[N]) WithLabelValues(lvs ...string) *GenericLocalCounter[N] {
	lc, err := l.GetMetricWithLabelValues(lvs...)
	if err != nil {
		panic(err)
	}
	return lc
}

// RemoveLabelValues drops the local counter, discarding unflushed increments,
// and removes the child from the backing vec.
func (l *GenericLocalCounterVec[N]) RemoveLabelValues(lvs ...string) error {
	h, err := l.vec.desc.hashLabelValues(lvs)
	if err != nil {
		return err
	}
	delete(l.local, h)
	if err := l.vec.remove(h); err != nil {
		return fmt.Errorf("remove local counter: %w", err)
	}
	return nil
}

// Flush flushes every local counter of the family.
func (l *GenericLocalCounterVec[N]) Flush() {
	for _, lc := range l.local {
		lc.Flush()
	}
}
