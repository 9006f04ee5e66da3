package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// SearchClient queries a feed's search service.
type SearchClient struct {
	httpClient         *nugethttp.Client
	serviceIndexClient *ServiceIndexClient
}

// SearchOptions narrows a search request.
type SearchOptions struct {
	Query      string
	Skip       int
	Take       int
	Prerelease bool

	// SemVerLevel is "2.0.0" when the caller can handle SemVer 2
	// versions in results.
	SemVerLevel string
}

// NewSearchClient creates a new search client.
func NewSearchClient(httpClient *nugethttp.Client, serviceIndexClient *ServiceIndexClient) *SearchClient {
	return &SearchClient{httpClient: httpClient, serviceIndexClient: serviceIndexClient}
}

// Search runs one query against the feed's search endpoint. Take
// defaults to 20 when unset.
func (c *SearchClient) Search(ctx context.Context, sourceURL string, opts SearchOptions) (*SearchResponse, error) {
	endpoint, err := c.serviceIndexClient.GetResourceURL(ctx, sourceURL, ResourceTypeSearchQueryService)
	if err != nil {
		return nil, fmt.Errorf("get search URL: %w", err)
	}

	params := url.Values{}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}
	if opts.Skip > 0 {
		params.Set("skip", strconv.Itoa(opts.Skip))
	}
	take := opts.Take
	if take <= 0 {
		take = 20
	}
	params.Set("take", strconv.Itoa(take))
	params.Set("prerelease", strconv.FormatBool(opts.Prerelease))
	if opts.SemVerLevel != "" {
		params.Set("semVerLevel", opts.SemVerLevel)
	}

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, body)
	}

	var decoded SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &decoded, nil
}
