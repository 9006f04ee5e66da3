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

// AutocompleteClient suggests package IDs as the user types.
type AutocompleteClient struct {
	httpClient         *nugethttp.Client
	serviceIndexClient *ServiceIndexClient
}

// NewAutocompleteClient creates a new autocomplete client.
func NewAutocompleteClient(httpClient *nugethttp.Client, serviceIndexClient *ServiceIndexClient) *AutocompleteClient {
	return &AutocompleteClient{httpClient: httpClient, serviceIndexClient: serviceIndexClient}
}

// AutocompletePackageIDs returns package ID completions for query.
// Take defaults to 20 when unset.
func (c *AutocompleteClient) AutocompletePackageIDs(ctx context.Context, sourceURL, query string, skip, take int, prerelease bool) (*AutocompleteResponse, error) {
	endpoint, err := c.serviceIndexClient.GetResourceURL(ctx, sourceURL, ResourceTypeSearchAutocompleteService)
	if err != nil {
		return nil, fmt.Errorf("get autocomplete URL: %w", err)
	}

	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if skip > 0 {
		params.Set("skip", strconv.Itoa(skip))
	}
	if take <= 0 {
		take = 20
	}
	params.Set("take", strconv.Itoa(take))
	params.Set("prerelease", strconv.FormatBool(prerelease))

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("autocomplete returned %d: %s", resp.StatusCode, body)
	}

	var decoded AutocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode autocomplete response: %w", err)
	}
	return &decoded, nil
}
