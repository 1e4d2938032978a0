// Package workerstats reports the application inventory of a worker
// scheduler as gauges.
package workerstats

import (
	"context"
	"fmt"
	"time"

	"github.com/kkqqqqqq/metrics"
)

const appLabel = "app"

// App is the state of one application at refresh time.
type App struct {
	Name           string
	StartTime      time.Time
	ReadyInstances int
}

// AppSource lists the applications currently running.
type AppSource interface {
	Apps(ctx context.Context) ([]App, error)
}

// AppSourceFunc turns a function into an AppSource.
type AppSourceFunc func(ctx context.Context) ([]App, error)

// Apps calls f.
func (f AppSourceFunc) Apps(ctx context.Context) ([]App, error) { return f(ctx) }

type reporterConfig struct {
	interval time.Duration
	logger   metrics.Logger
	now      func() time.Time
}

// Option configures a Reporter.
type Option func(*reporterConfig)

// WithInterval sets the refresh period. Defaults to 2s.
func WithInterval(d time.Duration) Option {
	return func(c *reporterConfig) { c.interval = d }
}

// WithLogger sets the logger for refresh failures.
func WithLogger(l metrics.Logger) Option {
	return func(c *reporterConfig) { c.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *reporterConfig) { c.now = now }
}

// Reporter keeps three gauges in sync with an AppSource:
//
//	app_num                      number of running apps
//	app_last_time_seconds{app}   seconds since the app started
//	ready_instances{app}         ready instances of the app
type Reporter struct {
	registry *metrics.Registry
	source   AppSource
	cfg      reporterConfig

	appNum    *metrics.IntGauge
	lastTime  *metrics.IntGaugeVec
	ready     *metrics.IntGaugeVec
	reporting map[string]struct{}
}

// NewReporter creates the gauges. They are registered by Refresh, which
// skips any gauge whose descriptor the registry already holds.
func NewReporter(r *metrics.Registry, src AppSource, opts ...Option) (*Reporter, error) {
	cfg := reporterConfig{interval: 2 * time.Second, now: time.Now}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if cfg.interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", cfg.interval)
	}

	appNum, err := metrics.NewIntGauge("app_num", "the number of apps running on the worker pool")
	if err != nil {
		return nil, err
	}
	lastTime, err := metrics.NewIntGaugeVec("app_last_time_seconds", "the running time of apps in seconds", []string{appLabel})
	if err != nil {
		return nil, err
	}
	ready, err := metrics.NewIntGaugeVec("ready_instances", "the number of ready instances per app", []string{appLabel})
	if err != nil {
		return nil, err
	}
	return &Reporter{
		registry:  r,
		source:    src,
		cfg:       cfg,
		appNum:    appNum,
		lastTime:  lastTime,
		ready:     ready,
		reporting: make(map[string]struct{}),
	}, nil
}

// Collectors returns the reporter's gauges.
func (r *Reporter) Collectors() []metrics.Collector {
	return []metrics.Collector{r.appNum, r.lastTime, r.ready}
}

// ensureRegistered registers every gauge that the registry does not know
// yet. Calling it again is a no-op.
func (r *Reporter) ensureRegistered() error {
	for _, c := range r.Collectors() {
		if r.registry.Contains(c) {
			continue
		}
		if err := r.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Refresh reads the source once and sets every gauge. Apps that disappeared
// since the previous refresh are removed from the per-app families.
// Refresh must not be called concurrently with itself or Run.
func (r *Reporter) Refresh(ctx context.Context) error {
	if err := r.ensureRegistered(); err != nil {
		return fmt.Errorf("register workerstats gauges: %w", err)
	}
	apps, err := r.source.Apps(ctx)
	if err != nil {
		return fmt.Errorf("list apps: %w", err)
	}

	now := r.cfg.now()
	r.appNum.Set(int64(len(apps)))
	current := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		current[app.Name] = struct{}{}
		r.lastTime.WithLabelValues(app.Name).Set(int64(now.Sub(app.StartTime) / time.Second))
		r.ready.WithLabelValues(app.Name).Set(int64(app.ReadyInstances))
	}
	for name := range r.reporting {
		if _, ok := current[name]; ok {
			continue
		}
		// a gone app may never have been created in one of the vecs
		_ = r.lastTime.RemoveLabelValues(name)
		_ = r.ready.RemoveLabelValues(name)
	}
	r.reporting = current
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
// Refresh errors are logged and do not stop the loop.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.interval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil && r.cfg.logger != nil {
			r.cfg.logger.Warnf("workerstats refresh failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// StaticSource reports a fixed inventory; every app counts as started when
// the source was created.
type StaticSource struct {
	apps []App
}

// NewStaticSource builds a source from name to ready instance count pairs.
func NewStaticSource(started time.Time, ready map[string]int) *StaticSource {
	s := &StaticSource{apps: make([]App, 0, len(ready))}
	for name, n := range ready {
		s.apps = append(s.apps, App{Name: name, StartTime: started, ReadyInstances: n})
	}
	return s
}

// Apps returns the configured apps.
func (s *StaticSource) Apps(context.Context) ([]App, error) {
	return append([]App(nil), s.apps...), nil
}
