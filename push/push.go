// Package push sends gathered metric families to a Pushgateway in the
// delimited protobuf format.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/kkqqqqqq/metrics"
	"github.com/kkqqqqqq/metrics/encoder"
)

const (
	jobLabel       = "job"
	defaultTimeout = 10 * time.Second
)

var (
	// ErrInvalidGrouping indicates a job name or grouping label value containing '/'.
	ErrInvalidGrouping = errors.New("job and grouping label values must not contain '/'")

	// ErrReservedLabel indicates a pushed metric that already carries the job
	// label or one of the grouping labels.
	ErrReservedLabel = errors.New("pushed metric already carries a reserved label")

	// ErrUnexpectedStatus indicates a response other than 200 or 202.
	ErrUnexpectedStatus = errors.New("unexpected status code from pushgateway")
)

// BasicAuth holds HTTP basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

type config struct {
	client *http.Client
	auth   *BasicAuth
	logger metrics.Logger
}

// Option configures a push call.
type Option func(*config)

// WithBasicAuth authenticates requests with username and password.
func WithBasicAuth(username, password string) Option {
	return func(c *config) { c.auth = &BasicAuth{Username: username, Password: password} }
}

// WithHTTPClient replaces the default client, which times out after 10s.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.client = client }
}

// WithLogger logs pushes at debug level.
func WithLogger(l metrics.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Metrics replaces every metric of the job and grouping with mfs (HTTP PUT).
func Metrics(ctx context.Context, gatewayURL, job string, grouping map[string]string, mfs []*dto.MetricFamily, opts ...Option) error {
	return push(ctx, http.MethodPut, gatewayURL, job, grouping, mfs, opts)
}

// AddMetrics replaces only the metrics of the job and grouping that share a
// name with one of mfs (HTTP POST).
func AddMetrics(ctx context.Context, gatewayURL, job string, grouping map[string]string, mfs []*dto.MetricFamily, opts ...Option) error {
	return push(ctx, http.MethodPost, gatewayURL, job, grouping, mfs, opts)
}

// Collectors registers cs with a fresh registry, gathers it and pushes the
// result like Metrics.
func Collectors(ctx context.Context, gatewayURL, job string, grouping map[string]string, cs []metrics.Collector, opts ...Option) error {
	mfs, err := gatherCollectors(cs)
	if err != nil {
		return err
	}
	return push(ctx, http.MethodPut, gatewayURL, job, grouping, mfs, opts)
}

// AddCollectors is Collectors with AddMetrics semantics.
func AddCollectors(ctx context.Context, gatewayURL, job string, grouping map[string]string, cs []metrics.Collector, opts ...Option) error {
	mfs, err := gatherCollectors(cs)
	if err != nil {
		return err
	}
	return push(ctx, http.MethodPost, gatewayURL, job, grouping, mfs, opts)
}

// HostnameGroupingKey returns {"instance": hostname}, or "unknown" when the
// hostname cannot be determined.
func HostnameGroupingKey() map[string]string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return map[string]string{"instance": host}
}

func gatherCollectors(cs []metrics.Collector) ([]*dto.MetricFamily, error) {
	r := metrics.NewRegistry()
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r.Gather(), nil
}

func push(
	ctx context.Context,
	method, gatewayURL, job string,
	grouping map[string]string,
	mfs []*dto.MetricFamily,
	opts []Option,
) error {
	cfg := &config{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.client == nil {
		cfg.client = &http.Client{Timeout: defaultTimeout}
	}

	pushURL, err := buildURL(gatewayURL, job, grouping)
	if err != nil {
		return err
	}
	if err := checkLabels(mfs, grouping); err != nil {
		return err
	}

	enc := encoder.NewProtobufEncoder()
	var body bytes.Buffer
	if err := enc.Encode(&body, mfs); err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, pushURL, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", enc.FormatType())
	if cfg.auth != nil {
		req.SetBasicAuth(cfg.auth.Username, cfg.auth.Password)
	}

	resp, err := cfg.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to %s: %w", pushURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		if cfg.logger != nil {
			cfg.logger.Debugf("pushed %d metric families to %s", len(mfs), pushURL)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d while pushing to %s", ErrUnexpectedStatus, resp.StatusCode, pushURL)
	}
}

// buildURL renders <gateway>/metrics/job/<job>[/<label>/<value>...]. Grouping
// labels are sorted by name so the URL is stable.
func buildURL(gatewayURL, job string, grouping map[string]string) (string, error) {
	if !strings.Contains(gatewayURL, "://") {
		gatewayURL = "http://" + gatewayURL
	}
	gatewayURL = strings.TrimSuffix(gatewayURL, "/")

	if strings.Contains(job, "/") {
		return "", fmt.Errorf("%w: job %q", ErrInvalidGrouping, job)
	}

	names := make([]string, 0, len(grouping))
	for name, value := range grouping {
		if strings.Contains(value, "/") {
			return "", fmt.Errorf("%w: grouping label %s=%q", ErrInvalidGrouping, name, value)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(gatewayURL)
	b.WriteString("/metrics/job/")
	b.WriteString(url.PathEscape(job))
	for _, name := range names {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(name))
		b.WriteByte('/')
		b.WriteString(url.PathEscape(grouping[name]))
	}
	return b.String(), nil
}

func checkLabels(mfs []*dto.MetricFamily, grouping map[string]string) error {
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				name := lp.GetName()
				if name == jobLabel {
					return fmt.Errorf("%w: %s carries label %q", ErrReservedLabel, mf.GetName(), jobLabel)
				}
				if _, ok := grouping[name]; ok {
					return fmt.Errorf("%w: %s carries grouping label %q", ErrReservedLabel, mf.GetName(), name)
				}
			}
		}
	}
	return nil
}
