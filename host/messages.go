// Package host defines the message contract between the package panel and
// the host side that performs registry I/O and project-file edits, plus the
// in-process Host that answers every request with exactly one response.
//
// The contract is a pair of closed sum types. Exhaustive switches over
// Request and Response replace the string-keyed dispatch a postMessage
// transport would use, so an unhandled message kind is a compile-time gap
// rather than a silent discard.
package host

import "github.com/willibrandon/nupanel/version"

// Request is a message the panel sends to the host. Implementations form a
// closed set; the panel never blocks on a request, it waits for the matching
// Response to arrive on the event loop.
type Request interface{ isRequest() }

// Response is a message the host sends back. Correlation is by package id
// (and query for searches), not request tokens, so receivers must treat any
// response as potentially stale.
type Response interface{ isResponse() }

// SourceRef names a feed for request scoping.
type SourceRef struct {
	Name string
	URL  string
}

// SearchRequest asks for packages matching a query across the given sources.
type SearchRequest struct {
	Query             string
	Sources           []SourceRef
	IncludePrerelease bool
	Take              int
}

// AutocompleteRequest asks for package-id completions for the quick-search
// dropdown, grouped per source.
type AutocompleteRequest struct {
	Query             string
	Sources           []SourceRef
	IncludePrerelease bool
	Take              int
}

// VersionsRequest asks for the full version list of one package.
// Source is empty when the panel is set to "all sources".
type VersionsRequest struct {
	PackageID         string
	Source            string
	IncludePrerelease bool
	Take              int
}

// MetadataRequest asks for the metadata record of one package version.
type MetadataRequest struct {
	PackageID string
	Version   string
	Source    string
}

// InstalledRequest asks for the project's declared packages with their
// resolved versions.
type InstalledRequest struct {
	ProjectPath string
}

// TransitiveRequest asks for the packages the direct references pull in,
// with their requiring chains.
type TransitiveRequest struct {
	ProjectPath string
}

// UpdatesRequest asks for the latest available version of every installed
// package, for the updates tab.
type UpdatesRequest struct {
	ProjectPath       string
	IncludePrerelease bool
}

// InstallRequest adds or updates a package reference and saves the project.
type InstallRequest struct {
	ProjectPath string
	PackageID   string
	Version     string
}

// UpdateRequest changes an existing package reference to a new version.
type UpdateRequest struct {
	ProjectPath string
	PackageID   string
	Version     string
}

// RemoveRequest removes a package reference from the project.
type RemoveRequest struct {
	ProjectPath string
	PackageID   string
}

func (SearchRequest) isRequest()       {}
func (AutocompleteRequest) isRequest() {}
func (VersionsRequest) isRequest()     {}
func (MetadataRequest) isRequest()     {}
func (InstalledRequest) isRequest()    {}
func (TransitiveRequest) isRequest()   {}
func (UpdatesRequest) isRequest()      {}
func (InstallRequest) isRequest()      {}
func (UpdateRequest) isRequest()       {}
func (RemoveRequest) isRequest()       {}

// SearchResult is one row of a search response, an immutable snapshot from
// a registry query.
type SearchResult struct {
	ID             string
	Version        string
	Description    string
	Authors        []string
	TotalDownloads int64
	IconURL        string
	Verified       bool
	SourceName     string
}

// InstalledPackage is a declared package reference paired with what the
// last restore resolved it to.
type InstalledPackage struct {
	ID string
	// DeclaredVersion is the project-file string: exact, range, or floating.
	DeclaredVersion string
	// ResolvedVersion is the concrete version the restore picked, empty when
	// no assets file exists yet.
	ResolvedVersion string
	Kind            version.Kind
	// AlwaysLatest is set for "*" style declarations that track latest.
	AlwaysLatest bool
	// Implicit marks SDK-provided or transitively pinned references the user
	// cannot remove directly.
	Implicit bool
}

// UpdateCandidate pairs an installed package with a newer available version.
// Synthesized by the panel from UpdatesResponse, never persisted.
type UpdateCandidate struct {
	ID               string
	InstalledVersion string
	LatestVersion    string
}

// TransitivePackage is a package present in the dependency graph without a
// direct reference.
type TransitivePackage struct {
	ID      string
	Version string
	// RequiredBy lists the direct packages whose closure pulls this in.
	RequiredBy []string
	// Chain is one full dependency path from a direct package to this one.
	Chain    []string
	IconURL  string
	Verified bool
	Authors  []string
}

// Metadata is the detail record for one package version.
type Metadata struct {
	ID                string
	Version           string
	Description       string
	Authors           string
	IconURL           string
	LicenseURL        string
	LicenseExpression string
	ProjectURL        string
	Tags              string
	Published         string
	DependencyGroups  []DependencyGroup
	Readme            string
}

// DependencyGroup is a target framework's dependency list.
type DependencyGroup struct {
	TargetFramework string
	Dependencies    []Dependency
}

// Dependency is one entry of a dependency group.
type Dependency struct {
	ID    string
	Range string
}

// AutocompleteGroup is one source's id completions.
type AutocompleteGroup struct {
	SourceName string
	SourceURL  string
	PackageIDs []string
}

// SearchResponse carries search results. Query echoes the request so the
// panel can discard responses for queries it no longer shows.
type SearchResponse struct {
	Query   string
	Results []SearchResult
	Err     string
}

// AutocompleteResponse carries id completions grouped per source.
type AutocompleteResponse struct {
	Query  string
	Groups []AutocompleteGroup
	Err    string
}

// VersionsResponse carries a package's version list, newest first.
type VersionsResponse struct {
	PackageID string
	Versions  []string
	Err       string
}

// MetadataResponse carries one package version's metadata record.
type MetadataResponse struct {
	PackageID string
	Version   string
	Metadata  *Metadata
	Err       string
}

// InstalledResponse carries the project's direct packages.
type InstalledResponse struct {
	Packages []InstalledPackage
	Err      string
}

// TransitiveResponse carries the transitive dependency set.
type TransitiveResponse struct {
	Packages []TransitivePackage
	Err      string
}

// UpdatesResponse carries per-package latest versions for the updates tab.
type UpdatesResponse struct {
	Candidates []UpdateCandidate
	Err        string
}

// InstallResponse reports a package install outcome. Failure travels as
// data; the panel shows Message inline and changes no cached state.
type InstallResponse struct {
	Success     bool
	ProjectPath string
	PackageID   string
	Message     string
}

// UpdateResponse reports a package update outcome.
type UpdateResponse struct {
	Success     bool
	ProjectPath string
	PackageID   string
	Message     string
}

// RemoveResponse reports a package removal outcome.
type RemoveResponse struct {
	Success     bool
	ProjectPath string
	PackageID   string
	Message     string
}

func (SearchResponse) isResponse()       {}
func (AutocompleteResponse) isResponse() {}
func (VersionsResponse) isResponse()     {}
func (MetadataResponse) isResponse()     {}
func (InstalledResponse) isResponse()    {}
func (TransitiveResponse) isResponse()   {}
func (UpdatesResponse) isResponse()      {}
func (InstallResponse) isResponse()      {}
func (UpdateResponse) isResponse()       {}
func (RemoveResponse) isResponse()       {}
