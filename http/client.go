// Package http is the outbound client every feed request goes through.
//
// It layers the concerns the protocol clients should not care about:
// User-Agent and session headers, per-source credentials, retry with
// backoff, per-host circuit breaking, and per-source rate limiting.
// HTTP/2 is on by default and HTTP/3 can be enabled experimentally.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/willibrandon/nupanel/auth"
	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/observability"
	"github.com/willibrandon/nupanel/resilience"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultDialTimeout = 10 * time.Second
	DefaultUserAgent   = "nupanel/0.1.0"
)

// Client wraps http.Client with the feed-facing policy stack.
type Client struct {
	httpClient    *http.Client
	userAgent     string
	retryConfig   *RetryConfig
	logger        observability.Logger
	authenticator auth.Authenticator
	breaker       *resilience.HTTPCircuitBreaker
	limiter       *resilience.PerSourceLimiter
}

// Config tunes a Client. Nil pointer fields leave their layer disabled.
type Config struct {
	Timeout      time.Duration
	DialTimeout  time.Duration
	UserAgent    string
	TLSConfig    *tls.Config
	MaxIdleConns int
	EnableHTTP2  bool
	EnableHTTP3  bool
	RetryConfig  *RetryConfig

	// Logger receives request logs; nil logs nothing.
	Logger observability.Logger

	// Authenticator applies per-source credentials to every request.
	Authenticator auth.Authenticator

	// EnableTracing wraps the transport with OpenTelemetry spans.
	EnableTracing bool

	CircuitBreakerConfig *resilience.CircuitBreakerConfig
	RateLimiterConfig    *resilience.TokenBucketConfig
}

// DefaultConfig is the tuning the shared client runs with.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		DialTimeout:  DefaultDialTimeout,
		UserAgent:    DefaultUserAgent,
		MaxIdleConns: 100,
		EnableHTTP2:  true,
		RetryConfig:  DefaultRetryConfig(),
	}
}

// NewClient builds a client from cfg; nil takes DefaultConfig.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig()
	}

	transport := NewTransport(TransportConfig{
		EnableHTTP2:           cfg.EnableHTTP2,
		EnableHTTP3:           cfg.EnableHTTP3,
		DialTimeout:           cfg.DialTimeout,
		TLSClientConfig:       cfg.TLSConfig,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	})
	if cfg.EnableTracing {
		transport = observability.NewHTTPTracingTransport(transport, "github.com/willibrandon/nupanel/http")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent:     cfg.UserAgent,
		retryConfig:   cfg.RetryConfig,
		logger:        logger,
		authenticator: cfg.Authenticator,
	}
	if cfg.CircuitBreakerConfig != nil {
		c.breaker = resilience.NewHTTPCircuitBreaker(*cfg.CircuitBreakerConfig)
	}
	if cfg.RateLimiterConfig != nil {
		c.limiter = resilience.NewPerSourceLimiter(*cfg.RateLimiterConfig)
	}
	return c
}

// prepare stamps the headers every outbound request carries. The
// session id comes from the cache context the host installs, the same
// id NuGet.Client sends so server-side logs can group one panel
// session.
func (c *Client) prepare(ctx context.Context, req *http.Request) error {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if cc := cache.FromContext(ctx); cc != nil && cc.SessionID != "" {
		req.Header.Set("X-NuGet-Session-Id", cc.SessionID)
	}
	if c.authenticator != nil {
		if err := c.authenticator.Authenticate(req); err != nil {
			return fmt.Errorf("authenticate request: %w", err)
		}
	}
	return nil
}

// Do executes a single attempt of req through the policy stack.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if err := c.prepare(ctx, req); err != nil {
		return nil, err
	}

	host := req.URL.Host
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			c.logger.WarnContext(ctx, "HTTP {Method} {URL} rate limit wait failed: {Error}",
				req.Method, req.URL.String(), err)
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	c.logger.DebugContext(ctx, "HTTP {Method} {URL}", req.Method, req.URL.String())

	attempt := func(context.Context) (*http.Response, error) {
		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			c.logger.WarnContext(ctx, "HTTP {Method} {URL} failed after {Duration}ms: {Error}",
				req.Method, req.URL.String(), duration.Milliseconds(), err)
			observability.HTTPRequestsTotal.WithLabelValues(req.Method, "error", req.URL.Host).Inc()
			return nil, err
		}

		c.logger.DebugContext(ctx, "HTTP {Method} {URL} → {StatusCode} ({Duration}ms)",
			req.Method, req.URL.String(), resp.StatusCode, duration.Milliseconds())
		observability.HTTPRequestsTotal.WithLabelValues(req.Method, fmt.Sprintf("%d", resp.StatusCode), req.URL.Host).Inc()
		observability.HTTPRequestDuration.WithLabelValues(req.Method, req.URL.Host).Observe(duration.Seconds())
		return resp, nil
	}

	if c.breaker != nil {
		return c.breaker.Execute(ctx, host, attempt)
	}
	return attempt(ctx)
}

// DoWithRetry executes req, retrying transient failures with backoff.
// Retriable statuses that never clear are returned as the final
// response, not an error; the caller still gets to read the body. The
// breaker, when configured, wraps the whole retry sequence so retries
// against a dead host do not each count separately.
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			c.logger.WarnContext(ctx, "HTTP {Method} {URL} rate limit wait failed: {Error}",
				req.Method, req.URL.String(), err)
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	c.logger.DebugContext(ctx, "HTTP {Method} {URL} with retry (max={MaxRetries})",
		req.Method, req.URL.String(), c.retryConfig.MaxRetries)

	sequence := func(context.Context) (*http.Response, error) {
		var resp *http.Response
		var lastErr error

		for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
			// Clone per attempt; the body may be consumed by a failed try.
			clone := req.Clone(ctx)
			if err := c.prepare(ctx, clone); err != nil {
				return nil, err
			}

			resp, lastErr = c.httpClient.Do(clone)
			if lastErr == nil && !IsRetriableStatus(resp.StatusCode) {
				if attempt > 0 {
					c.logger.InfoContext(ctx, "HTTP {Method} {URL} succeeded after {Attempt} retries",
						req.Method, req.URL.String(), attempt)
				}
				return resp, nil
			}
			if lastErr != nil && !IsRetriable(lastErr) {
				c.logger.WarnContext(ctx, "HTTP {Method} {URL} failed with non-retriable error: {Error}",
					req.Method, req.URL.String(), lastErr)
				return nil, lastErr
			}

			if attempt == c.retryConfig.MaxRetries {
				break
			}

			// Honor Retry-After when the server sent one.
			var backoff time.Duration
			if resp != nil {
				backoff = ParseRetryAfter(resp.Header.Get("Retry-After"))
			}
			if backoff == 0 {
				backoff = c.retryConfig.CalculateBackoff(attempt)
			}

			c.logger.DebugContext(ctx, "HTTP {Method} {URL} retry {Attempt}/{MaxRetries} after {Backoff}ms",
				req.Method, req.URL.String(), attempt+1, c.retryConfig.MaxRetries, backoff.Milliseconds())

			retryErr := lastErr
			if retryErr == nil && resp != nil {
				retryErr = fmt.Errorf("http %d", resp.StatusCode)
			}
			observability.RecordRetry(ctx, attempt+1, retryErr)

			if resp != nil {
				_ = resp.Body.Close()
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if lastErr != nil {
			c.logger.ErrorContext(ctx, "HTTP {Method} {URL} failed after {MaxRetries} retries: {Error}",
				req.Method, req.URL.String(), c.retryConfig.MaxRetries, lastErr)
			return nil, fmt.Errorf("after %d retries: %w", c.retryConfig.MaxRetries, lastErr)
		}
		return resp, nil
	}

	if c.breaker != nil {
		return c.breaker.Execute(ctx, host, sequence)
	}
	return sequence(ctx)
}
