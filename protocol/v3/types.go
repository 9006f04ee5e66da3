// Package v3 speaks the NuGet v3 JSON protocol: service index
// discovery, search, autocomplete, registration metadata, and the
// flat container endpoints for version lists and readmes.
package v3

// ServiceIndex is a feed's entry point, mapping resource types to
// endpoint URLs.
// https://learn.microsoft.com/en-us/nuget/api/service-index
type ServiceIndex struct {
	Version   string     `json:"version"`
	Resources []Resource `json:"resources"`
	Context   any        `json:"@context,omitempty"`
}

// Resource is one endpoint advertised by the service index.
type Resource struct {
	ID      string `json:"@id"`
	Type    string `json:"@type"`
	Comment string `json:"comment,omitempty"`
}

// Resource types the panel resolves through the service index.
const (
	ResourceTypeSearchQueryService        = "SearchQueryService"
	ResourceTypeSearchAutocompleteService = "SearchAutocompleteService"
	ResourceTypeRegistrationsBaseURL      = "RegistrationsBaseUrl"
	ResourceTypePackageBaseAddress        = "PackageBaseAddress"
)

// SearchResponse is one page of search results.
type SearchResponse struct {
	TotalHits int            `json:"totalHits"`
	Data      []SearchResult `json:"data"`
	Context   any            `json:"@context,omitempty"`
}

// SearchResult describes one package as the search service returns it.
// Version is the latest version matching the query's prerelease flag.
type SearchResult struct {
	ID             string          `json:"@id"`
	Type           string          `json:"@type"`
	Registration   string          `json:"registration,omitempty"`
	PackageID      string          `json:"id"`
	Version        string          `json:"version"`
	Description    string          `json:"description"`
	Summary        string          `json:"summary,omitempty"`
	Title          string          `json:"title,omitempty"`
	IconURL        string          `json:"iconUrl,omitempty"`
	LicenseURL     string          `json:"licenseUrl,omitempty"`
	ProjectURL     string          `json:"projectUrl,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Authors        []string        `json:"authors,omitempty"`
	TotalDownloads int64           `json:"totalDownloads"`
	Verified       bool            `json:"verified"`
	Versions       []SearchVersion `json:"versions,omitempty"`
}

// SearchVersion is one version entry inside a search result.
type SearchVersion struct {
	Version   string `json:"version"`
	Downloads int64  `json:"downloads"`
	ID        string `json:"@id"`
}

// RegistrationIndex is the registration resource's root document for
// one package. Small packages inline their pages; large ones carry
// page URLs that must be fetched separately.
type RegistrationIndex struct {
	Count int                `json:"count"`
	Items []RegistrationPage `json:"items"`
}

// RegistrationPage groups the registration leaves for a version range.
type RegistrationPage struct {
	ID    string             `json:"@id"`
	Count int                `json:"count"`
	Items []RegistrationLeaf `json:"items,omitempty"`
	Lower string             `json:"lower"`
	Upper string             `json:"upper"`
}

// RegistrationLeaf ties one package version to its catalog entry.
type RegistrationLeaf struct {
	ID             string               `json:"@id"`
	CatalogEntry   *RegistrationCatalog `json:"catalogEntry"`
	PackageContent string               `json:"packageContent"`
}

// RegistrationCatalog is the full metadata for one package version.
type RegistrationCatalog struct {
	ID                       string            `json:"@id"`
	PackageID                string            `json:"id"`
	Version                  string            `json:"version"`
	Authors                  string            `json:"authors,omitempty"`
	Description              string            `json:"description,omitempty"`
	IconURL                  string            `json:"iconUrl,omitempty"`
	LicenseURL               string            `json:"licenseUrl,omitempty"`
	LicenseExpression        string            `json:"licenseExpression,omitempty"`
	ProjectURL               string            `json:"projectUrl,omitempty"`
	Published                string            `json:"published,omitempty"`
	RequireLicenseAcceptance bool              `json:"requireLicenseAcceptance"`
	Summary                  string            `json:"summary,omitempty"`
	Tags                     string            `json:"tags,omitempty"`
	Title                    string            `json:"title,omitempty"`
	DependencyGroups         []DependencyGroup `json:"dependencyGroups,omitempty"`
	PackageTypes             []PackageType     `json:"packageTypes,omitempty"`
}

// DependencyGroup lists the dependencies for one target framework.
type DependencyGroup struct {
	TargetFramework string       `json:"targetFramework,omitempty"`
	Dependencies    []Dependency `json:"dependencies,omitempty"`
}

// Dependency names one required package and its version range.
type Dependency struct {
	ID    string `json:"id"`
	Range string `json:"range,omitempty"`
}

// PackageType marks what a package is for ("Dependency", "DotnetTool").
type PackageType struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// AutocompleteResponse is the autocomplete service's answer: matching
// package IDs, not full packages.
type AutocompleteResponse struct {
	TotalHits int      `json:"totalHits"`
	Data      []string `json:"data"`
	Context   any      `json:"@context,omitempty"`
}
