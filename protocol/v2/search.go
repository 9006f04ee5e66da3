package v2

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// SearchClient queries a v2 feed's Packages() collection.
type SearchClient struct {
	httpClient *nugethttp.Client
}

// SearchOptions narrows a search request.
type SearchOptions struct {
	Query             string
	Skip              int
	Top               int
	IncludePrerelease bool
}

// SearchResult is one row of a v2 search response.
type SearchResult struct {
	ID            string
	Version       string
	Description   string
	Authors       string
	IconURL       string
	DownloadCount int64
}

// NewSearchClient creates a new v2 search client.
func NewSearchClient(httpClient *nugethttp.Client) *SearchClient {
	return &SearchClient{httpClient: httpClient}
}

// Search runs one query against the feed. Results come back ordered
// by download count; Top defaults to 20 when unset.
func (c *SearchClient) Search(ctx context.Context, feedURL string, opts SearchOptions) ([]SearchResult, error) {
	req, err := http.NewRequest(http.MethodGet, searchURL(feedURL, opts), nil)
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

	var feed Feed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	results := make([]SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		results = append(results, SearchResult{
			ID:            entry.Properties.ID,
			Version:       entry.Properties.Version,
			Description:   entry.Properties.Description,
			Authors:       entry.Properties.Authors,
			IconURL:       entry.Properties.IconURL,
			DownloadCount: entry.Properties.DownloadCount,
		})
	}
	return results, nil
}

// searchURL builds the OData query. The search text becomes a
// substringof filter over Id and Description, matched case
// insensitively the way nuget.exe does it.
func searchURL(feedURL string, opts SearchOptions) string {
	params := url.Values{}

	var filters []string
	if opts.Query != "" {
		q := strings.ToLower(opts.Query)
		filters = append(filters, fmt.Sprintf(
			"(substringof('%s',tolower(Id)) or substringof('%s',tolower(Description)))", q, q))
	}
	if !opts.IncludePrerelease {
		filters = append(filters, "IsPrerelease eq false")
	}
	if len(filters) > 0 {
		params.Set("$filter", strings.Join(filters, " and "))
	}

	params.Set("$orderby", "DownloadCount desc")
	if opts.Skip > 0 {
		params.Set("$skip", strconv.Itoa(opts.Skip))
	}
	top := opts.Top
	if top <= 0 {
		top = 20
	}
	params.Set("$top", strconv.Itoa(top))

	return normalizeBase(feedURL) + "Packages()?" + params.Encode()
}
