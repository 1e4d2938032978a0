package workerstats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kkqqqqqq/metrics"
	"github.com/kkqqqqqq/metrics/encoder"
)

type fakeSource struct {
	mu   sync.Mutex
	apps []App
	err  error
}

func (f *fakeSource) Apps(context.Context) ([]App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]App(nil), f.apps...), f.err
}

func (f *fakeSource) set(apps []App, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps, f.err = apps, err
}

func TestReporter_Refresh(t *testing.T) {
	now := time.Unix(1000, 0)
	src := &fakeSource{apps: []App{
		{Name: "hello", StartTime: now.Add(-90 * time.Second), ReadyInstances: 2},
		{Name: "echo", StartTime: now.Add(-5 * time.Second), ReadyInstances: 0},
	}}
	reg := metrics.NewRegistry()
	r, err := NewReporter(reg, src, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, r.Refresh(context.Background()))

	out, err := encoder.NewTextEncoder().EncodeToString(reg.Gather())
	require.NoError(t, err)
	assert.Equal(t,
		"# HELP app_last_time_seconds the running time of apps in seconds\n"+
			"# TYPE app_last_time_seconds gauge\n"+
			"app_last_time_seconds{app=\"echo\"} 5\n"+
			"app_last_time_seconds{app=\"hello\"} 90\n"+
			"# HELP app_num the number of apps running on the worker pool\n"+
			"# TYPE app_num gauge\n"+
			"app_num 2\n"+
			"# HELP ready_instances the number of ready instances per app\n"+
			"# TYPE ready_instances gauge\n"+
			"ready_instances{app=\"echo\"} 0\n"+
			"ready_instances{app=\"hello\"} 2\n",
		out)

	// second refresh: registration is idempotent, gone apps are dropped
	src.set([]App{{Name: "hello", StartTime: now, ReadyInstances: 7}}, nil)
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, int64(1), r.appNum.Get())
	assert.Equal(t, 1, r.ready.Len())
	assert.Equal(t, 1, r.lastTime.Len())
	assert.Equal(t, int64(7), r.ready.WithLabelValues("hello").Get())
}

func TestReporter_SkipsGaugesAlreadyInRegistry(t *testing.T) {
	reg := metrics.NewRegistry()
	g, err := metrics.NewIntGauge("app_num", "the number of apps running on the worker pool")
	require.NoError(t, err)
	require.NoError(t, reg.Register(g))

	r, err := NewReporter(reg, NewStaticSource(time.Now(), map[string]int{"a": 1}))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(context.Background()))

	// the pre-registered gauge keeps being exported, the reporter's copy is not
	assert.Equal(t, int64(1), r.appNum.Get())
	mfs := reg.Gather()
	require.Len(t, mfs, 3)
	assert.Equal(t, "app_num", mfs[1].GetName())
	assert.Equal(t, 0.0, mfs[1].GetMetric()[0].GetGauge().GetValue())
	assert.True(t, reg.Contains(r.ready))
	assert.True(t, reg.Contains(r.lastTime))
}

func TestReporter_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("scheduler unavailable")}
	r, err := NewReporter(metrics.NewRegistry(), src)
	require.NoError(t, err)
	assert.ErrorContains(t, r.Refresh(context.Background()), "scheduler unavailable")
}

func TestReporter_RunStopsOnCancel(t *testing.T) {
	src := &fakeSource{apps: []App{{Name: "a", StartTime: time.Now(), ReadyInstances: 1}}}
	reg := metrics.NewRegistry()
	r, err := NewReporter(reg, src, WithInterval(5*time.Millisecond), WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reg.Gather()) == 3 }, time.Second, 5*time.Millisecond)
	src.set([]App{{Name: "a", StartTime: time.Now(), ReadyInstances: 4}}, nil)
	require.Eventually(t, func() bool { return r.ready.WithLabelValues("a").Get() == 4 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewReporter_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewReporter(metrics.NewRegistry(), NewStaticSource(time.Now(), nil), WithInterval(0))
	assert.Error(t, err)
}
