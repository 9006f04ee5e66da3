package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus grades a component on the /healthz endpoint.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck examines one dependency of the panel. A TTL above zero
// reuses the previous result for that long, so health polling does not
// hammer remote sources.
type HealthCheck struct {
	Name  string
	TTL   time.Duration
	Check func(context.Context) HealthCheckResult
}

// HealthCheckResult is the JSON reported for a single check.
type HealthCheckResult struct {
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker runs registered checks in parallel and aggregates
// their results.
type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]*HealthCheck
	recent map[string]recentResult
}

type recentResult struct {
	result HealthCheckResult
	at     time.Time
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]*HealthCheck),
		recent: make(map[string]recentResult),
	}
}

// Register adds a check, replacing any earlier one with the same name.
func (hc *HealthChecker) Register(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name] = &check
}

// Check runs every registered check concurrently and returns the
// results keyed by check name.
func (hc *HealthChecker) Check(ctx context.Context) map[string]HealthCheckResult {
	hc.mu.RLock()
	pending := make([]*HealthCheck, 0, len(hc.checks))
	for _, c := range hc.checks {
		pending = append(pending, c)
	}
	hc.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(pending))
	)
	for _, c := range pending {
		wg.Add(1)
		go func(c *HealthCheck) {
			defer wg.Done()
			r := hc.runOne(ctx, c)
			mu.Lock()
			results[c.Name] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

func (hc *HealthChecker) runOne(ctx context.Context, check *HealthCheck) HealthCheckResult {
	if check.TTL > 0 {
		hc.mu.RLock()
		prev, ok := hc.recent[check.Name]
		hc.mu.RUnlock()
		if ok && time.Since(prev.at) < check.TTL {
			return prev.result
		}
	}

	result := check.Check(ctx)

	if check.TTL > 0 {
		hc.mu.Lock()
		hc.recent[check.Name] = recentResult{result: result, at: time.Now()}
		hc.mu.Unlock()
	}
	return result
}

// OverallStatus collapses all checks into one grade: any unhealthy
// check wins, then any degraded one, else healthy.
func (hc *HealthChecker) OverallStatus(ctx context.Context) HealthStatus {
	return aggregate(hc.Check(ctx))
}

func aggregate(results map[string]HealthCheckResult) HealthStatus {
	overall := HealthStatusHealthy
	for _, r := range results {
		switch r.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusDegraded:
			overall = HealthStatusDegraded
		}
	}
	return overall
}

// Handler serves the health report as JSON. Degraded answers 200;
// only unhealthy flips the status code to 503.
func (hc *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := hc.Check(r.Context())
		overall := aggregate(results)

		w.Header().Set("Content-Type", "application/json")
		if overall == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		payload := struct {
			Status HealthStatus                 `json:"status"`
			Checks map[string]HealthCheckResult `json:"checks"`
		}{overall, results}
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// HTTPSourceHealthCheck reports whether a remote package source
// answers a HEAD request. Server errors grade degraded, an
// unreachable host grades unhealthy, and anything else counts as
// reachable, including auth challenges.
func HTTPSourceHealthCheck(name, url string, timeout time.Duration) HealthCheck {
	return HealthCheck{
		Name: name,
		TTL:  30 * time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return HealthCheckResult{
					Status:  HealthStatusUnhealthy,
					Message: "bad source url: " + err.Error(),
				}
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return HealthCheckResult{
					Status:  HealthStatusUnhealthy,
					Message: "unreachable: " + err.Error(),
				}
			}
			resp.Body.Close()

			if resp.StatusCode >= 500 {
				return HealthCheckResult{
					Status:  HealthStatusDegraded,
					Message: "server error",
					Details: map[string]string{"status_code": resp.Status},
				}
			}
			return HealthCheckResult{
				Status:  HealthStatusHealthy,
				Message: "source reachable",
			}
		},
	}
}

// HostHealthCheck wraps an arbitrary ping function, typically a stat
// of the project file or a local feed directory. Results are not
// cached.
func HostHealthCheck(name string, ping func(context.Context) error) HealthCheck {
	return HealthCheck{
		Name: name,
		Check: func(ctx context.Context) HealthCheckResult {
			if err := ping(ctx); err != nil {
				return HealthCheckResult{
					Status:  HealthStatusUnhealthy,
					Message: err.Error(),
				}
			}
			return HealthCheckResult{
				Status:  HealthStatusHealthy,
				Message: "host responding",
			}
		},
	}
}
