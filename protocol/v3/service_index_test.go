package v3

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// newIndexServer serves a service index whose resource URLs point back at
// the server itself, and counts how many times the index was fetched.
func newIndexServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := new(int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.json" {
			t.Errorf("service index fetched from %s, want /index.json", r.URL.Path)
		}
		*hits++
		base := "http://" + r.Host
		index := ServiceIndex{
			Version: "3.0.0",
			Resources: []Resource{
				{ID: base + "/search", Type: "SearchQueryService/3.5.0"},
				{ID: base + "/autocomplete", Type: "SearchAutocompleteService/3.5.0"},
				{ID: base + "/registration/", Type: "RegistrationsBaseUrl/3.6.0"},
				{ID: base + "/flat/", Type: "PackageBaseAddress/3.0.0"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(index)
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestServiceIndexClient_GetServiceIndex(t *testing.T) {
	server, _ := newIndexServer(t)

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	index, err := client.GetServiceIndex(context.Background(), server.URL+"/index.json")
	if err != nil {
		t.Fatalf("GetServiceIndex() error: %v", err)
	}
	if index.Version != "3.0.0" {
		t.Errorf("Version = %q, want %q", index.Version, "3.0.0")
	}
	if len(index.Resources) != 4 {
		t.Errorf("len(Resources) = %d, want 4", len(index.Resources))
	}
}

func TestServiceIndexClient_AppendsIndexSuffix(t *testing.T) {
	// Sources configured as bare base URLs still resolve; the handler in
	// newIndexServer fails the test if the path is not /index.json.
	server, _ := newIndexServer(t)

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	for _, sourceURL := range []string{server.URL, server.URL + "/"} {
		if _, err := client.GetServiceIndex(context.Background(), sourceURL); err != nil {
			t.Errorf("GetServiceIndex(%q) error: %v", sourceURL, err)
		}
	}
}

func TestServiceIndexClient_CachesPerSource(t *testing.T) {
	server, hits := newIndexServer(t)

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.GetServiceIndex(ctx, server.URL+"/index.json"); err != nil {
			t.Fatalf("GetServiceIndex() call %d error: %v", i+1, err)
		}
	}
	if *hits != 1 {
		t.Errorf("server hit %d times, want 1 (index should be cached)", *hits)
	}
}

func TestServiceIndexClient_RefetchAfterExpiry(t *testing.T) {
	server, hits := newIndexServer(t)

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	ctx := context.Background()
	if _, err := client.GetServiceIndex(ctx, server.URL+"/index.json"); err != nil {
		t.Fatalf("GetServiceIndex() error: %v", err)
	}

	// Age the cached copy out.
	client.mu.Lock()
	for url, entry := range client.indexes {
		entry.expires = time.Now().Add(-time.Second)
		client.indexes[url] = entry
	}
	client.mu.Unlock()

	if _, err := client.GetServiceIndex(ctx, server.URL+"/index.json"); err != nil {
		t.Fatalf("GetServiceIndex() after expiry error: %v", err)
	}
	if *hits != 2 {
		t.Errorf("server hit %d times, want 2 (expired index should be refetched)", *hits)
	}
}

func TestServiceIndexClient_GetResourceURL(t *testing.T) {
	server, _ := newIndexServer(t)

	tests := []struct {
		name         string
		resourceType string
		wantSuffix   string
	}{
		{"search query service", ResourceTypeSearchQueryService, "/search"},
		{"autocomplete service", ResourceTypeSearchAutocompleteService, "/autocomplete"},
		{"registrations base", ResourceTypeRegistrationsBaseURL, "/registration/"},
		{"flat container", ResourceTypePackageBaseAddress, "/flat/"},
	}

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := client.GetResourceURL(context.Background(), server.URL+"/index.json", tt.resourceType)
			if err != nil {
				t.Fatalf("GetResourceURL(%q) error: %v", tt.resourceType, err)
			}
			if !strings.HasSuffix(url, tt.wantSuffix) {
				t.Errorf("GetResourceURL(%q) = %q, want suffix %q", tt.resourceType, url, tt.wantSuffix)
			}
		})
	}
}

func TestServiceIndexClient_GetResourceURLNotFound(t *testing.T) {
	server, _ := newIndexServer(t)

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	_, err := client.GetResourceURL(context.Background(), server.URL+"/index.json", "PackagePublish/2.0.0")
	if err == nil {
		t.Fatal("GetResourceURL() for missing resource should fail")
	}
	if !strings.Contains(err.Error(), "PackagePublish/2.0.0") {
		t.Errorf("error %q should name the missing resource type", err)
	}
}

func TestResourceTypeMatches(t *testing.T) {
	tests := []struct {
		name   string
		actual string
		want   string
		match  bool
	}{
		{"exact", "RegistrationsBaseUrl", "RegistrationsBaseUrl", true},
		{"versioned", "RegistrationsBaseUrl/3.6.0", "RegistrationsBaseUrl", true},
		{"different type", "SearchQueryService/3.5.0", "RegistrationsBaseUrl", false},
		{"prefix without version separator", "SearchQueryServicePreview", "SearchQueryService", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resourceTypeMatches(tt.actual, tt.want); got != tt.match {
				t.Errorf("resourceTypeMatches(%q, %q) = %v, want %v", tt.actual, tt.want, got, tt.match)
			}
		})
	}
}

func TestServiceIndexClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed offline", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	_, err := client.GetServiceIndex(context.Background(), server.URL+"/index.json")
	if err == nil {
		t.Fatal("GetServiceIndex() against a 500 should fail")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestServiceIndexClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a service index</html>"))
	}))
	defer server.Close()

	client := NewServiceIndexClient(nugethttp.NewClient(nil))
	_, err := client.GetServiceIndex(context.Background(), server.URL+"/index.json")
	if err == nil {
		t.Fatal("GetServiceIndex() on malformed JSON should fail")
	}
}
