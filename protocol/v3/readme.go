package v3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// maxReadmeSize caps readme downloads at 1 MB.
const maxReadmeSize = 1 << 20

// ReadmeClient fetches package readmes via the flat container endpoint.
// Only newer feeds serve readmes; absence is not an error.
type ReadmeClient struct {
	httpClient         *nugethttp.Client
	serviceIndexClient *ServiceIndexClient
}

// NewReadmeClient creates a new readme client.
func NewReadmeClient(httpClient *nugethttp.Client, serviceIndexClient *ServiceIndexClient) *ReadmeClient {
	return &ReadmeClient{
		httpClient:         httpClient,
		serviceIndexClient: serviceIndexClient,
	}
}

// GetReadme returns the readme markdown for a package version, or "" when
// the feed has none for it.
// Format: {baseURL}/{id}/{version}/readme
func (c *ReadmeClient) GetReadme(ctx context.Context, sourceURL, packageID, version string) (string, error) {
	baseURL, err := c.serviceIndexClient.GetResourceURL(ctx, sourceURL, ResourceTypePackageBaseAddress)
	if err != nil {
		return "", fmt.Errorf("get package base URL: %w", err)
	}

	readmeURL := fmt.Sprintf("%s/%s/%s/readme",
		strings.TrimSuffix(baseURL, "/"),
		strings.ToLower(packageID),
		strings.ToLower(version),
	)

	req, err := http.NewRequest("GET", readmeURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return "", fmt.Errorf("readme request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("readme returned %d: %s", resp.StatusCode, body)
	}

	readme, err := io.ReadAll(io.LimitReader(resp.Body, maxReadmeSize))
	if err != nil {
		return "", fmt.Errorf("read readme: %w", err)
	}

	return string(readme), nil
}
