package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// VersionsClient lists package versions via the flat container endpoint.
type VersionsClient struct {
	httpClient         *nugethttp.Client
	serviceIndexClient *ServiceIndexClient
}

// NewVersionsClient creates a new versions client.
func NewVersionsClient(httpClient *nugethttp.Client, serviceIndexClient *ServiceIndexClient) *VersionsClient {
	return &VersionsClient{
		httpClient:         httpClient,
		serviceIndexClient: serviceIndexClient,
	}
}

// GetPackageVersions lists all available versions for a package.
// Uses the package base address versions endpoint.
func (c *VersionsClient) GetPackageVersions(ctx context.Context, sourceURL, packageID string) ([]string, error) {
	// Get package base address from service index
	baseURL, err := c.serviceIndexClient.GetResourceURL(ctx, sourceURL, ResourceTypePackageBaseAddress)
	if err != nil {
		return nil, fmt.Errorf("get package base URL: %w", err)
	}

	// Build versions URL
	// Format: {baseURL}/{packageID}/index.json
	packageIDLower := strings.ToLower(packageID)
	versionsURL := fmt.Sprintf("%s/%s/index.json",
		strings.TrimSuffix(baseURL, "/"),
		packageIDLower,
	)

	// Execute request
	req, err := http.NewRequest("GET", versionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("versions request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %s not found", packageID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("versions returned %d: %s", resp.StatusCode, body)
	}

	// Parse versions response
	var versionsResp struct {
		Versions []string `json:"versions"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&versionsResp); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}

	return versionsResp.Versions, nil
}
