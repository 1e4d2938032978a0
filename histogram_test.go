package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_Observe(t *testing.T) {
	h, err := NewHistogram("latency_seconds", "latency", WithBuckets([]float64{1, 5}))
	require.NoError(t, err)

	for _, v := range []float64{0.5, 1, 3, 7} {
		h.Observe(v)
	}

	m := h.Write().GetHistogram()
	assert.Equal(t, uint64(4), m.GetSampleCount())
	assert.Equal(t, 11.5, m.GetSampleSum())
	require.Len(t, m.GetBucket(), 2)
	assert.Equal(t, 1.0, m.GetBucket()[0].GetUpperBound())
	assert.Equal(t, uint64(2), m.GetBucket()[0].GetCumulativeCount())
	assert.Equal(t, 5.0, m.GetBucket()[1].GetUpperBound())
	assert.Equal(t, uint64(3), m.GetBucket()[1].GetCumulativeCount())
}

func TestHistogram_DefaultBuckets(t *testing.T) {
	h, err := NewHistogram("default_seconds", "")
	require.NoError(t, err)
	assert.Equal(t, DefBuckets, h.Buckets())
}

func TestHistogram_InvalidBuckets(t *testing.T) {
	_, err := NewHistogram("flat_seconds", "", WithBuckets([]float64{1, 1}))
	assert.ErrorIs(t, err, ErrInvalidBuckets)
}

func TestBucketHelpers(t *testing.T) {
	lin, err := LinearBuckets(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, lin)

	exp, err := ExponentialBuckets(1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 10, 100}, exp)

	cases := map[string]func() ([]float64, error){
		"linear zero count":       func() ([]float64, error) { return LinearBuckets(0, 1, 0) },
		"linear zero width":       func() ([]float64, error) { return LinearBuckets(0, 0, 2) },
		"exponential zero start":  func() ([]float64, error) { return ExponentialBuckets(0, 2, 2) },
		"exponential unit factor": func() ([]float64, error) { return ExponentialBuckets(1, 1, 2) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fn()
			assert.ErrorIs(t, err, ErrInvalidBuckets)
		})
	}
}

type recordingObserver struct{ values []float64 }

func (r *recordingObserver) Observe(v float64) { r.values = append(r.values, v) }

func TestTimer(t *testing.T) {
	obs := &recordingObserver{}
	timer := NewTimer(obs)
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	require.Len(t, obs.values, 1)
	assert.Equal(t, d.Seconds(), obs.values[0])
	assert.GreaterOrEqual(t, d, time.Millisecond)
}
