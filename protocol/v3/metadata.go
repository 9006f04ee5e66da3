package v3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/nupanel/cache"
	nugethttp "github.com/willibrandon/nupanel/http"
	"github.com/willibrandon/nupanel/observability"
)

// registrationTTL is how long cached registration responses stay
// fresh. Matches the NuGet.Client default; a SourceCacheContext on
// the request overrides it.
const registrationTTL = 30 * time.Minute

var errNotFound = errors.New("not found")

// MetadataClient reads a feed's registration (metadata) resource.
type MetadataClient struct {
	httpClient         *nugethttp.Client
	serviceIndexClient *ServiceIndexClient
	httpCache          *cache.DiskCache
}

// NewMetadataClient creates a metadata client without a disk cache;
// SetHTTPCache adds one.
func NewMetadataClient(httpClient *nugethttp.Client, serviceIndexClient *ServiceIndexClient) *MetadataClient {
	return &MetadataClient{httpClient: httpClient, serviceIndexClient: serviceIndexClient}
}

// SetHTTPCache enables disk caching of registration responses. Keys
// follow the NuGet.Client layout: list_{id} for the index,
// list_{id}_range_{lower}-{upper} for pages.
func (c *MetadataClient) SetHTTPCache(httpCache *cache.DiskCache) {
	c.httpCache = httpCache
}

// cachePolicy is the client's disk cache resolved against the
// request's SourceCacheContext: NoCache skips reads, DirectDownload
// skips writes, MaxAge overrides the freshness window.
type cachePolicy struct {
	disk   *cache.DiskCache
	maxAge time.Duration
	read   bool
	write  bool
}

func (c *MetadataClient) policy(ctx context.Context) cachePolicy {
	p := cachePolicy{
		disk:   c.httpCache,
		maxAge: registrationTTL,
		read:   c.httpCache != nil,
		write:  c.httpCache != nil,
	}
	cc := cache.FromContext(ctx)
	if cc == nil {
		return p
	}
	if cc.MaxAge > 0 {
		p.maxAge = cc.MaxAge
	}
	if cc.NoCache {
		p.read = false
	}
	if cc.DirectDownload {
		p.write = false
	}
	return p
}

// get decodes a cached response into out, reporting whether it did.
func (p cachePolicy) get(urlStr, key string, out any) bool {
	if !p.read || key == "" {
		return false
	}
	rc, hit, err := p.disk.Get(urlStr, key, p.maxAge)
	if err != nil || !hit {
		return false
	}
	defer func() { _ = rc.Close() }()
	return json.NewDecoder(rc).Decode(out) == nil
}

func (p cachePolicy) put(urlStr, key string, body []byte) {
	if !p.write || key == "" {
		return
	}
	// A failed cache write never fails the request.
	_ = p.disk.Set(urlStr, key, bytes.NewReader(body))
}

// GetPackageMetadata returns the registration index for a package with
// every page populated.
func (c *MetadataClient) GetPackageMetadata(ctx context.Context, sourceURL, packageID string) (*RegistrationIndex, error) {
	baseURL, err := c.serviceIndexClient.GetResourceURL(ctx, sourceURL, ResourceTypeRegistrationsBaseURL)
	if err != nil {
		return nil, fmt.Errorf("get registration URL: %w", err)
	}

	id := strings.ToLower(packageID)
	indexURL := strings.TrimSuffix(baseURL, "/") + "/" + id + "/index.json"
	cacheKey := "list_" + id

	pol := c.policy(ctx)

	var index RegistrationIndex
	hit := pol.get(indexURL, cacheKey, &index)
	if pol.read {
		observability.RecordCacheHit(ctx, hit)
	}
	if !hit {
		body, err := c.fetchBody(ctx, indexURL, "registration")
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("package %q not found", packageID)
		}
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &index); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		pol.put(indexURL, cacheKey, body)
	}

	if err := c.inlinePages(ctx, pol, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// GetVersionMetadata returns the catalog entry for one exact version.
func (c *MetadataClient) GetVersionMetadata(ctx context.Context, sourceURL, packageID, version string) (*RegistrationCatalog, error) {
	index, err := c.GetPackageMetadata(ctx, sourceURL, packageID)
	if err != nil {
		return nil, err
	}
	for _, page := range index.Items {
		for _, leaf := range page.Items {
			if leaf.CatalogEntry != nil && leaf.CatalogEntry.Version == version {
				return leaf.CatalogEntry, nil
			}
		}
	}
	return nil, fmt.Errorf("version %q not found for package %q", version, packageID)
}

// inlinePages fetches, in parallel, the page bodies the index only
// references. Packages with many versions can carry dozens of pages,
// so the fan-out matters.
func (c *MetadataClient) inlinePages(ctx context.Context, pol cachePolicy, index *RegistrationIndex) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range index.Items {
		if len(index.Items[i].Items) > 0 || index.Items[i].ID == "" {
			continue
		}
		g.Go(func() error {
			page, err := c.fetchPage(ctx, pol, index.Items[i].ID)
			if err != nil {
				return fmt.Errorf("fetch page: %w", err)
			}
			index.Items[i] = *page
			return nil
		})
	}
	return g.Wait()
}

func (c *MetadataClient) fetchPage(ctx context.Context, pol cachePolicy, pageURL string) (*RegistrationPage, error) {
	cacheKey := pageCacheKey(pageURL)

	var page RegistrationPage
	if pol.get(pageURL, cacheKey, &page) {
		return &page, nil
	}

	body, err := c.fetchBody(ctx, pageURL, "page")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	pol.put(pageURL, cacheKey, body)
	return &page, nil
}

func (c *MetadataClient) fetchBody(ctx context.Context, urlStr, what string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", what, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s returned %d: %s", what, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return body, nil
}

// pageCacheKey derives the NuGet.Client cache key from a page URL of
// the form {base}/{id}/page/{lower}/{upper}.json. Other shapes get no
// key and skip the cache.
func pageCacheKey(pageURL string) string {
	parts := strings.Split(pageURL, "/")
	for i, part := range parts {
		if part != "page" || i < 1 || i+2 >= len(parts) {
			continue
		}
		id := strings.ToLower(parts[i-1])
		lower := parts[i+1]
		upper := strings.TrimSuffix(parts[i+2], ".json")
		return fmt.Sprintf("list_%s_range_%s-%s", id, lower, upper)
	}
	return ""
}
