// Package resilience keeps a flaky or throttling feed from taking the
// whole panel down with it: a per-host circuit breaker sheds traffic to
// an endpoint that keeps failing, and a per-source token bucket spaces
// out bursts so nuget.org's rate limits stay out of the picture.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is returned instead of dialing a host whose breaker is
// open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState is the breaker position for one host.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreakerConfig tunes the per-host breakers.
type CircuitBreakerConfig struct {
	// MaxFailures is how many consecutive failures open the circuit.
	MaxFailures uint

	// Timeout is how long an open circuit rejects before letting a
	// trial request through.
	Timeout time.Duration

	// MaxHalfOpenRequests caps concurrent trial requests while
	// half-open.
	MaxHalfOpenRequests uint
}

// DefaultCircuitBreakerConfig opens after five straight failures and
// tries the host again a minute later.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         5,
		Timeout:             60 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// breaker is the state machine for a single host.
type breaker struct {
	cfg CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    uint
	lastFailure time.Time
	trials      uint
}

// allow admits the request or returns ErrCircuitOpen. An open breaker
// flips to half-open once Timeout has passed since the last failure.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) < b.cfg.Timeout {
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.trials = 0
	}
	if b.state == StateHalfOpen {
		if b.trials >= b.cfg.MaxHalfOpenRequests {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.state = StateOpen
		}
	case StateHalfOpen:
		// A failed trial reopens immediately.
		b.state = StateOpen
	}
}

func (b *breaker) currentState() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// HTTPCircuitBreaker runs one breaker per host so a broken private feed
// cannot block nuget.org.
type HTTPCircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu      sync.Mutex
	perHost map[string]*breaker
}

// NewHTTPCircuitBreaker builds a breaker set with the given tuning.
func NewHTTPCircuitBreaker(cfg CircuitBreakerConfig) *HTTPCircuitBreaker {
	return &HTTPCircuitBreaker{cfg: cfg, perHost: make(map[string]*breaker)}
}

func (cb *HTTPCircuitBreaker) forHost(host string) *breaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	b := cb.perHost[host]
	if b == nil {
		b = &breaker{cfg: cb.cfg}
		cb.perHost[host] = b
	}
	return b
}

// Execute runs op under the host's breaker. Transport errors and 5xx
// statuses count as failures; a 5xx response is still handed back to
// the caller, who may want its body or headers.
func (cb *HTTPCircuitBreaker) Execute(ctx context.Context, host string, op func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	b := cb.forHost(host)
	if err := b.allow(); err != nil {
		return nil, fmt.Errorf("%s: %w", host, err)
	}

	resp, err := op(ctx)
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	if resp.StatusCode >= 500 {
		b.recordFailure()
		return resp, nil
	}
	b.recordSuccess()
	return resp, nil
}

// State reports the breaker position for a host. Hosts never seen are
// closed.
func (cb *HTTPCircuitBreaker) State(host string) CircuitState {
	cb.mu.Lock()
	b := cb.perHost[host]
	cb.mu.Unlock()

	if b == nil {
		return StateClosed
	}
	return b.currentState()
}
