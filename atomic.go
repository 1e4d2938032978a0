package metrics

import (
	"math"
	"sync/atomic"
)

// Number is the closed set of value kinds a metric can hold.
// Integer kinds admit exact add/sub, float64 admits approximate add/sub.
type Number interface {
	int64 | uint64 | float64
}

// Kind identifies the representation of a Number.
type Kind uint8

const (
	KindInt Kind = iota
	KindUint
	KindFloat
)

// String returns "int", "uint" or "float".
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// KindOf reports the Kind backing N.
func KindOf[N Number]() Kind {
	var zero N
	switch any(zero).(type) {
	case int64:
		return KindInt
	case uint64:
		return KindUint
	default:
		return KindFloat
	}
}

// fromInt64 builds an N from a signed literal (used for zero and one).
func fromInt64[N Number](v int64) N { return N(v) }

// toFloat64 converts v for exposition.
func toFloat64[N Number](v N) float64 { return float64(v) }

// Atomic is a single numeric slot mutated without locks.
// Only the final aggregate value is guaranteed; callers must not rely on
// ordering between updates and unrelated memory.
type Atomic[N Number] interface {
	Set(v N)
	Get() N
	Add(delta N)
	Sub(delta N)
}

// newAtomic returns the Atomic implementation for N seeded with v.
func newAtomic[N Number](v N) Atomic[N] {
	switch x := any(v).(type) {
	case int64:
		return any(NewAtomicInt64(x)).(Atomic[N])
	case uint64:
		return any(NewAtomicUint64(x)).(Atomic[N])
	case float64:
		return any(NewAtomicFloat64(x)).(Atomic[N])
	}
	panic("metrics: unreachable number kind")
}

// AtomicInt64 is a lock-free signed integer. Overflow wraps.
type AtomicInt64 struct {
	v atomic.Int64
}

// NewAtomicInt64 returns a cell holding v.
func NewAtomicInt64(v int64) *AtomicInt64 {
	a := &AtomicInt64{}
	a.v.Store(v)
	return a
}

// Set stores v.
func (a *AtomicInt64) Set(v int64) { a.v.Store(v) }

// Get loads the value.
func (a *AtomicInt64) Get() int64 { return a.v.Load() }

// Add adds delta.
func (a *AtomicInt64) Add(delta int64) { a.v.Add(delta) }

// Sub subtracts delta.
func (a *AtomicInt64) Sub(delta int64) { a.v.Add(-delta) }

// Swap stores v and returns the previous value.
func (a *AtomicInt64) Swap(v int64) int64 { return a.v.Swap(v) }

// AtomicUint64 is a lock-free unsigned integer. Overflow and underflow wrap.
type AtomicUint64 struct {
	v atomic.Uint64
}

// NewAtomicUint64 returns a cell holding v.
func NewAtomicUint64(v uint64) *AtomicUint64 {
	a := &AtomicUint64{}
	a.v.Store(v)
	return a
}

// Set stores v.
func (a *AtomicUint64) Set(v uint64) { a.v.Store(v) }

// Get loads the value.
func (a *AtomicUint64) Get() uint64 { return a.v.Load() }

// Add adds delta.
func (a *AtomicUint64) Add(delta uint64) { a.v.Add(delta) }

// Sub subtracts delta using two's complement addition.
func (a *AtomicUint64) Sub(delta uint64) { a.v.Add(^(delta - 1)) }

// Swap stores v and returns the previous value.
func (a *AtomicUint64) Swap(v uint64) uint64 { return a.v.Swap(v) }

// CompareAndSwap executes the compare-and-swap operation on the raw value.
func (a *AtomicUint64) CompareAndSwap(old, new uint64) bool {
	return a.v.CompareAndSwap(old, new)
}

// AtomicFloat64 stores the IEEE-754 bit pattern of a float64 in a uint64.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns a cell holding v.
func NewAtomicFloat64(v float64) *AtomicFloat64 {
	a := &AtomicFloat64{}
	a.bits.Store(math.Float64bits(v))
	return a
}

// Set stores v.
func (a *AtomicFloat64) Set(v float64) { a.bits.Store(math.Float64bits(v)) }

// Get loads the value.
func (a *AtomicFloat64) Get() float64 { return math.Float64frombits(a.bits.Load()) }

// Add retries a compare-and-swap until it lands. Every failed attempt means
// another writer succeeded, so the loop always makes global progress.
func (a *AtomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Sub subtracts delta.
func (a *AtomicFloat64) Sub(delta float64) { a.Add(-delta) }

// Swap stores v and returns the previous value.
func (a *AtomicFloat64) Swap(v float64) float64 {
	return math.Float64frombits(a.bits.Swap(math.Float64bits(v)))
}
