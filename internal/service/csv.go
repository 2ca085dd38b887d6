// Package service implements fetching the CSV document from the configured source.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"csv-proxy-go/internal/client"
	"csv-proxy-go/internal/config"
)

// ErrSourceURLMissing is returned when no upstream URL was configured.
var ErrSourceURLMissing = errors.New("source URL is not configured")

// UpstreamStatusError reports an upstream response outside the 2xx range.
type UpstreamStatusError struct {
	StatusCode int
	StatusText string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, e.StatusText)
}

// CSVService fetches the raw CSV text from the source URL it was built with.
// It holds no mutable state and is safe for concurrent use.
type CSVService struct {
	client    *client.SourceClient
	sourceURL string
	logger    *slog.Logger
}

// NewCSVService creates a CSVService. An empty sourceURL is accepted; every
// Fetch then fails with ErrSourceURLMissing.
func NewCSVService(c *client.SourceClient, sourceURL string, logger *slog.Logger) *CSVService {
	return &CSVService{
		client:    c,
		sourceURL: sourceURL,
		logger:    logger.With("component", "csv_service"),
	}
}

// NewCSVServiceFromConfig creates a CSVService using cfg.Source.URL.
func NewCSVServiceFromConfig(c *client.SourceClient, cfg *config.Config, logger *slog.Logger) *CSVService {
	return NewCSVService(c, cfg.Source.URL, logger)
}

// Configured reports whether a source URL is present.
func (s *CSVService) Configured() bool {
	return s.sourceURL != ""
}

// SourceURL returns the configured upstream URL, for log redaction.
func (s *CSVService) SourceURL() string {
	return s.sourceURL
}

// Fetch performs a single GET against the source and returns the full body.
//
// Errors:
//   - ErrSourceURLMissing when no URL is configured; no request is made.
//   - *UpstreamStatusError when the upstream answers outside 2xx.
//   - any other error for transport or body read failures.
func (s *CSVService) Fetch(ctx context.Context) ([]byte, error) {
	if s.sourceURL == "" {
		return nil, ErrSourceURLMissing
	}

	resp, err := s.client.Get(ctx, s.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !resp.OK() {
		return nil, &UpstreamStatusError{
			StatusCode: resp.StatusCode,
			StatusText: resp.StatusText,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read source body: %w", err)
	}
	s.client.RecordBody(len(body))

	s.logger.Debug("fetched source", "bytes", len(body))
	return body, nil
}
