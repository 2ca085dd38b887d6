// Package client provides the upstream HTTP client for the CSV data source.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"csv-proxy-go/internal/config"
	"csv-proxy-go/internal/metrics"
	"csv-proxy-go/internal/model"
)

// SourceClient sends requests to the upstream CSV source.
type SourceClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewSourceClient creates a SourceClient with connection pooling.
// The overall request timeout is Upstream.TimeoutSeconds; zero means none.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewSourceClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *SourceClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &SourceClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "source_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the upstream and returns the raw response.
// The caller is responsible for closing the response body.
func (c *SourceClient) Do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"host", req.URL.Host,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
			c.metrics.UpstreamErrors.Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		StatusText: StatusText(resp),
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Get issues a plain GET with no extra headers against rawURL.
// The caller is responsible for closing the response body.
func (c *SourceClient) Get(ctx context.Context, rawURL string) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	return c.Do(req)
}

// RecordBody counts bytes read from a successful upstream body.
func (c *SourceClient) RecordBody(n int) {
	if c.metrics != nil {
		c.metrics.UpstreamBytes.Add(float64(n))
	}
}

// StatusText returns the reason phrase the upstream sent ("404 Not Found" ->
// "Not Found"). HTTP/2 carries no reason phrase, so the standard text for
// the code is used when none is present.
func StatusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	status := strings.TrimSpace(resp.Status)
	if text, ok := strings.CutPrefix(status, code+" "); ok {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	if status != "" && status != code {
		return status
	}
	return http.StatusText(resp.StatusCode)
}
