package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	nugethttp "github.com/willibrandon/nupanel/http"
	"github.com/willibrandon/nupanel/observability"
)

// serviceIndexTTL is how long a fetched service index stays cached.
// NuGet.Client uses 40 minutes.
const serviceIndexTTL = 40 * time.Minute

// ServiceIndexClient fetches and caches service indexes per source.
type ServiceIndexClient struct {
	httpClient *nugethttp.Client

	mu      sync.RWMutex
	indexes map[string]indexEntry
}

type indexEntry struct {
	index   *ServiceIndex
	expires time.Time
}

// NewServiceIndexClient creates a new service index client.
func NewServiceIndexClient(httpClient *nugethttp.Client) *ServiceIndexClient {
	return &ServiceIndexClient{
		httpClient: httpClient,
		indexes:    make(map[string]indexEntry),
	}
}

// GetServiceIndex returns the service index for sourceURL, fetching it
// on the first call and again once the cached copy ages out.
func (c *ServiceIndexClient) GetServiceIndex(ctx context.Context, sourceURL string) (*ServiceIndex, error) {
	c.mu.RLock()
	entry, ok := c.indexes[sourceURL]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.index, nil
	}

	index, err := c.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.indexes[sourceURL] = indexEntry{index: index, expires: time.Now().Add(serviceIndexTTL)}
	c.mu.Unlock()
	return index, nil
}

func (c *ServiceIndexClient) fetch(ctx context.Context, sourceURL string) (index *ServiceIndex, err error) {
	ctx, span := observability.StartServiceIndexFetchSpan(ctx, sourceURL)
	defer func() { observability.EndSpanWithError(span, err) }()

	// Config URLs usually carry the /index.json suffix already; bare
	// base URLs get it appended.
	indexURL := sourceURL
	if !strings.HasSuffix(indexURL, "/index.json") {
		indexURL = strings.TrimSuffix(indexURL, "/") + "/index.json"
	}

	req, err := http.NewRequest(http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch service index: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("service index returned %d: %s", resp.StatusCode, body)
	}

	var decoded ServiceIndex
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode service index: %w", err)
	}
	return &decoded, nil
}

// GetResourceURL resolves the endpoint URL for a resource type.
// Versioned type names match their base form, so a feed advertising
// "PackageBaseAddress/3.0.0" satisfies "PackageBaseAddress".
func (c *ServiceIndexClient) GetResourceURL(ctx context.Context, sourceURL, resourceType string) (string, error) {
	index, err := c.GetServiceIndex(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	for _, res := range index.Resources {
		if resourceTypeMatches(res.Type, resourceType) {
			return res.ID, nil
		}
	}
	return "", fmt.Errorf("resource type %q not found in service index", resourceType)
}

func resourceTypeMatches(actual, want string) bool {
	rest, found := strings.CutPrefix(actual, want)
	return found && (rest == "" || rest[0] == '/')
}
