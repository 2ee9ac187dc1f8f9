// Package client talks to the upstream movie/TV catalog (TMDb).
package client

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

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/metrics"
	"github.com/mantonx/cinecache/internal/types"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	breakerName  = "tmdb-api"
	maxErrorBody = 64 << 10
)

// Options configures a Client
type Options struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheMaxEntries int

	RequestsPerSecond float64
	Burst             int

	BreakerFailures int
	BreakerTimeout  time.Duration

	HTTPClient *http.Client
	Clock      Clock
	Logger     hclog.Logger
}

// OptionsFromConfig maps the catalog configuration section onto Options
func OptionsFromConfig(cfg config.CatalogConfig) Options {
	return Options{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.RequestTimeout,
		CacheEnabled:      cfg.CacheEnabled,
		CacheTTL:          cfg.CacheTTL,
		CacheMaxEntries:   cfg.CacheMaxEntries,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerTimeout:    cfg.BreakerTimeout,
	}
}

// Client issues GET requests against the catalog API. Responses are
// cached per instance, outbound calls are paced by a token bucket, and a
// circuit breaker stops hammering a provider that is down.
type Client struct {
	apiKey    string
	bearer    bool
	baseURL   string
	userAgent string

	httpClient *http.Client
	cache      *ResponseCache
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        hclog.Logger
}

// New builds a Client from opts
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}

	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		apiKey:     opts.APIKey,
		bearer:     isReadAccessToken(opts.APIKey),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: httpClient,
		log:        log,
	}

	if opts.CacheEnabled {
		cache, err := NewResponseCache(opts.CacheMaxEntries, opts.CacheTTL, opts.Clock)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	c.breaker = newBreaker(opts.BreakerFailures, opts.BreakerTimeout, log)
	return c, nil
}

// isReadAccessToken reports whether key is a v4 read access token (a JWT),
// which goes in the Authorization header instead of the query string
func isReadAccessToken(key string) bool {
	return len(key) > 100 && strings.HasPrefix(key, "eyJ")
}

func newBreaker(failures int, timeout time.Duration, log hclog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if failures < 1 {
		failures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		// Only an unreachable or failing provider counts against the breaker;
		// a 404 for an unknown id is a valid answer.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var gone *callerGone
			if errors.As(err, &gone) {
				return true
			}
			var appErr *types.AppError
			if errors.As(err, &appErr) && appErr.Code == types.ErrorCodeUpstreamError {
				status, _ := appErr.Context["upstream_status"].(int)
				return status < 500 && status != http.StatusTooManyRequests
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// callerGone marks a failure caused by the caller's own context ending.
// The provider was not at fault so the breaker does not count it.
type callerGone struct{ err error }

func (e *callerGone) Error() string { return e.err.Error() }
func (e *callerGone) Unwrap() error { return e.err }

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Request fetches endpoint (for example "/movie/550") with the given query
// parameters and returns the raw JSON body. Transport failures, timeouts and
// an open breaker yield UPSTREAM_UNAVAILABLE; non-2xx answers yield
// UPSTREAM_ERROR carrying the provider status and body.
func (c *Client) Request(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	if !c.bearer && c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	key := CacheKey(endpoint, query)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			c.log.Trace("cache hit", "endpoint", endpoint)
			return body, nil
		}
	}

	resource := resourceOf(endpoint)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.CatalogRequests.WithLabelValues(resource, "cancelled").Inc()
			return nil, types.NewUpstreamUnavailableError(err)
		}
	}

	started := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		body, err := c.do(ctx, endpoint, query)
		if err != nil && ctx.Err() != nil {
			return nil, &callerGone{err: err}
		}
		return body, err
	})
	metrics.CatalogRequestDuration.WithLabelValues(resource).Observe(time.Since(started).Seconds())

	var gone *callerGone
	if errors.As(err, &gone) {
		metrics.CatalogRequests.WithLabelValues(resource, "cancelled").Inc()
		return nil, gone.err
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CatalogRequests.WithLabelValues(resource, "rejected").Inc()
			c.log.Warn("catalog request rejected by circuit breaker", "endpoint", endpoint)
			return nil, types.NewUpstreamUnavailableError(err).WithRetryAfter(time.Second)
		}
		if types.CodeOf(err) == types.ErrorCodeUpstreamError {
			metrics.CatalogRequests.WithLabelValues(resource, "upstream_error").Inc()
		} else {
			metrics.CatalogRequests.WithLabelValues(resource, "unavailable").Inc()
		}
		return nil, err
	}

	metrics.CatalogRequests.WithLabelValues(resource, "success").Inc()
	if c.cache != nil {
		c.cache.Set(key, body)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := c.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, types.NewInternalError("failed to build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("catalog request error", "endpoint", endpoint, "error", err)
		return nil, types.NewUpstreamUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Error("catalog http error", "endpoint", endpoint, "status", resp.StatusCode, "detail", string(body))
		return nil, types.NewUpstreamError(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewUpstreamUnavailableError(fmt.Errorf("failed to read response body: %w", err))
	}
	return body, nil
}

// getJSON requests endpoint and decodes the body into out
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	body, err := c.Request(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return types.NewAppErrorWithCause(types.ErrorCodeUpstreamError,
			fmt.Sprintf("TMDB API error: malformed response from %s", endpoint), http.StatusBadGateway, err)
	}
	return nil
}

// Cache exposes the response cache, nil when caching is disabled
func (c *Client) Cache() *ResponseCache {
	return c.cache
}

// BreakerState returns the current circuit breaker state name
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// resourceOf reduces an endpoint to its first path segment for metric labels
func resourceOf(endpoint string) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
