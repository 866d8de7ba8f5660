package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-mcp-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultBaseURL is the public NWS API root.
	DefaultBaseURL = "https://api.weather.gov"
	// DefaultUserAgent identifies this service to the NWS, which requires one.
	DefaultUserAgent = "weather-app/1.0"
	// DefaultTimeout bounds every request, including reading the body.
	DefaultTimeout = 10 * time.Second

	acceptGeoJSON = "application/geo+json"
)

// Outcome records why a fetch did or did not produce a document.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeParseError     Outcome = "parse_error"
)

// Result is the outcome of a single fetch. Failures are carried in the value
// rather than returned as errors; callers only need Available.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       json.RawMessage // a JSON object when Outcome is OutcomeOK
	Err        error
}

// Available reports whether the fetch produced a non-empty document.
// An empty JSON object counts as no result.
func (r Result) Available() bool {
	if r.Outcome != OutcomeOK {
		return false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &doc); err != nil {
		return false
	}
	return len(doc) > 0
}

// Client fetches GeoJSON documents from the NWS API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithClock swaps the time source used for request latency.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// NewClient creates an NWS client with a fixed per-request timeout.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		clock:     clockwork.NewRealClock(),
		metrics:   metrics,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root used to build endpoint URLs.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues one GET for an absolute URL and decodes the body as a JSON
// object. It makes a single attempt and never returns an error; every
// failure is logged once and reported through the Result.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	start := c.clock.Now()
	res := c.fetch(ctx, url)

	c.metrics.UpstreamRequests.WithLabelValues(string(res.Outcome)).Inc()
	c.metrics.UpstreamDuration.Observe(c.clock.Since(start).Seconds())

	switch res.Outcome {
	case OutcomeOK:
		c.logger.Debug("nws request succeeded", "url", url)
	case OutcomeTimeout:
		c.logger.Error("timeout when requesting nws", "url", url)
	case OutcomeHTTPError:
		c.logger.Error("http error when requesting nws", "url", url, "status", res.StatusCode)
	default:
		c.logger.Error("unexpected error when requesting nws", "url", url, "outcome", res.Outcome, "error", res.Err)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptGeoJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: classify(err), Err: fmt.Errorf("nws request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{
			Outcome:    OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("nws API error: status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Outcome: classify(err), StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Result{Outcome: OutcomeParseError, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if doc == nil {
		return Result{Outcome: OutcomeParseError, StatusCode: resp.StatusCode, Err: errors.New("decode response: null document")}
	}

	return Result{Outcome: OutcomeOK, StatusCode: resp.StatusCode, Body: body}
}

func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeTransportError
}
