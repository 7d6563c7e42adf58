package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const itemsPath = "/api/published/items"

// HTTPClient calls the catalogue's published items endpoint behind a circuit breaker.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]Item]
	logger  *zap.Logger
}

// HTTPOptions tunes the client; zero values fall back to defaults.
type HTTPOptions struct {
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Transport        http.RoundTripper
}

func NewHTTPClient(baseURL string, opts HTTPOptions, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]Item](gobreaker.Settings{
		Name:        "catalogue",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

func (c *HTTPClient) FindAllByID(ctx context.Context, ids []string) ([]Item, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []Item{}, nil
	}

	items, err := c.breaker.Execute(func() ([]Item, error) {
		return c.fetch(ctx, ids)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) fetch(ctx context.Context, ids []string) ([]Item, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("id", id)
	}
	endpoint := c.baseURL + itemsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalogue request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	if !body.Success {
		desc := "unsuccessful response"
		if len(body.Messages) > 0 && body.Messages[0].Description != "" {
			desc = body.Messages[0].Description
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, desc)
	}
	if body.Result == nil {
		body.Result = []Item{}
	}

	c.logger.Debug("catalogue items fetched",
		zap.Int("requested", len(ids)),
		zap.Int("found", len(body.Result)))
	return body.Result, nil
}
