package v2

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	nugethttp "github.com/willibrandon/nupanel/http"
)

// MetadataClient reads per-version metadata from a v2 feed.
type MetadataClient struct {
	httpClient *nugethttp.Client
}

// PackageMetadata is the v2 metadata for one package version.
type PackageMetadata struct {
	ID          string
	Version     string
	Description string
	Authors     string
	IconURL     string
	LicenseURL  string
	ProjectURL  string
	Tags        []string
	Published   string

	// Dependencies is the raw OData value: "id:range:tfm" triples
	// separated by pipes.
	Dependencies string
}

// NewMetadataClient creates a new v2 metadata client.
func NewMetadataClient(httpClient *nugethttp.Client) *MetadataClient {
	return &MetadataClient{httpClient: httpClient}
}

// GetPackageMetadata fetches the entry for one exact package version.
func (c *MetadataClient) GetPackageMetadata(ctx context.Context, feedURL, packageID, version string) (*PackageMetadata, error) {
	endpoint := fmt.Sprintf("%sPackages(Id='%s',Version='%s')",
		normalizeBase(feedURL), url.QueryEscape(packageID), url.QueryEscape(version))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %q version %q not found", packageID, version)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("metadata returned %d: %s", resp.StatusCode, body)
	}

	var entry Entry
	if err := xml.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	meta := &PackageMetadata{
		ID:           entry.Properties.ID,
		Version:      entry.Properties.Version,
		Description:  entry.Properties.Description,
		Authors:      entry.Properties.Authors,
		IconURL:      entry.Properties.IconURL,
		LicenseURL:   entry.Properties.LicenseURL,
		ProjectURL:   entry.Properties.ProjectURL,
		Published:    entry.Properties.Published,
		Dependencies: entry.Properties.Dependencies,
	}
	if entry.Properties.Tags != "" {
		meta.Tags = strings.Split(entry.Properties.Tags, " ")
	}
	return meta, nil
}

// ListVersions returns every published version of a package, via the
// FindPackagesById() endpoint.
func (c *MetadataClient) ListVersions(ctx context.Context, feedURL, packageID string) ([]string, error) {
	endpoint := fmt.Sprintf("%sFindPackagesById()?id='%s'",
		normalizeBase(feedURL), url.QueryEscape(packageID))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list versions request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("package %q not found", packageID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list versions returned %d: %s", resp.StatusCode, body)
	}

	var feed Feed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	versions := make([]string, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if v := entry.Properties.Version; v != "" {
			versions = append(versions, v)
		}
	}
	return versions, nil
}
