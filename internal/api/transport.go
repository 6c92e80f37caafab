package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit follows the bridge's recommendation of ~10 commands per second
	DefaultRateLimit   = 10
	DefaultHTTPTimeout = 10 * time.Second
)

// Transport carries one REST call to the bridge and returns the raw JSON body.
// path is relative to the endpoint, e.g. "/api/<username>/lights".
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// HTTPTransport talks to a bridge over plain HTTP
type HTTPTransport struct {
	endpoint Endpoint
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPTransport creates a transport for endpoint. A non-positive rps
// disables rate limiting.
func NewHTTPTransport(endpoint Endpoint, timeout time.Duration, rps float64) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Endpoint returns the bridge endpoint
func (t *HTTPTransport) Endpoint() Endpoint {
	return t.endpoint
}

// Do performs a request, encoding body as JSON when non-nil
func (t *HTTPTransport) Do(ctx context.Context, method, path string, body any) (raw json.RawMessage, err error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := t.endpoint.BaseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", redactUsername(path)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Bridge request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bridge returned HTTP %d for %s %s", resp.StatusCode, method, path)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("bridge returned invalid JSON for %s %s", method, path)
	}
	return data, nil
}

// redactUsername hides the application key in /api/<username>/... paths
func redactUsername(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok || rest == "" {
		return path
	}
	if _, tail, found := strings.Cut(rest, "/"); found {
		return "/api/***/" + tail
	}
	return "/api/***"
}
