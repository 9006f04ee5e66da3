package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// scrape serves one /metrics request and returns the exposition body.
func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", rec.Code)
	}
	return rec.Body.String()
}

func TestMetricsHandler_ExposesPanelSeries(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "200", "nuget.org").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "nuget.org").Observe(0.042)
	CacheHitsTotal.WithLabelValues("versions").Inc()
	CacheMissesTotal.WithLabelValues("metadata").Inc()
	StaleResponsesTotal.WithLabelValues("search").Inc()
	DebounceFiresTotal.WithLabelValues("suggestion").Inc()
	HostRequestsTotal.WithLabelValues("versions").Inc()

	body := scrape(t)

	for _, series := range []string{
		"nupanel_http_requests_total",
		"nupanel_http_request_duration_seconds",
		"nupanel_cache_hits_total",
		"nupanel_cache_misses_total",
		"nupanel_stale_responses_total",
		"nupanel_debounce_fires_total",
		"nupanel_host_requests_total",
	} {
		if !strings.Contains(body, series) {
			t.Errorf("exposition missing %s", series)
		}
	}

	if !strings.Contains(body, "# HELP") || !strings.Contains(body, "# TYPE") {
		t.Error("exposition missing HELP/TYPE metadata")
	}
}

func TestGetCounterValue_TracksIncrements(t *testing.T) {
	before, err := GetCounterValue(StaleResponsesTotal, "versions")
	if err != nil {
		t.Fatalf("GetCounterValue() error = %v", err)
	}

	StaleResponsesTotal.WithLabelValues("versions").Add(3)

	after, err := GetCounterValue(StaleResponsesTotal, "versions")
	if err != nil {
		t.Fatalf("GetCounterValue() error = %v", err)
	}
	if after != before+3 {
		t.Errorf("counter = %v after adding 3 to %v", after, before)
	}
}

func TestGetCounterValue_LabelArityMismatch(t *testing.T) {
	if _, err := GetCounterValue(HTTPRequestsTotal, "GET"); err == nil {
		t.Error("GetCounterValue() accepted one label where three are required")
	}
}
