package packaging

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/willibrandon/nupanel/version"
)

// Nuspec is a parsed .nuspec manifest, reduced to the fields the panel
// surfaces. Unknown manifest elements are ignored by the decoder.
type Nuspec struct {
	XMLName  xml.Name       `xml:"package"`
	Metadata NuspecMetadata `xml:"metadata"`
}

// NuspecMetadata is the metadata section of the manifest.
type NuspecMetadata struct {
	ID          string `xml:"id"`
	Version     string `xml:"version"`
	Description string `xml:"description"`
	Authors     string `xml:"authors"`

	Title      string           `xml:"title"`
	ProjectURL string           `xml:"projectUrl"`
	IconURL    string           `xml:"iconUrl"`
	Icon       string           `xml:"icon"`
	LicenseURL string           `xml:"licenseUrl"`
	License    *LicenseMetadata `xml:"license"`
	Summary    string           `xml:"summary"`
	Tags       string           `xml:"tags"`
	Readme     string           `xml:"readme"`

	Dependencies *DependenciesElement `xml:"dependencies"`
}

// LicenseMetadata is the structured license element: an SPDX expression
// or a file path into the package, depending on Type.
type LicenseMetadata struct {
	Type string `xml:"type,attr"` // "expression" or "file"
	Text string `xml:",chardata"`
}

// Expression returns the SPDX license expression, or "" for file licenses.
func (l *LicenseMetadata) Expression() string {
	if l == nil || l.Type != "expression" {
		return ""
	}
	return strings.TrimSpace(l.Text)
}

// DependenciesElement is the dependencies container. Modern manifests
// group dependencies by target framework; very old ones list them flat.
type DependenciesElement struct {
	Groups       []DependencyGroup `xml:"group"`
	Dependencies []Dependency      `xml:"dependency"`
}

// DependencyGroup holds the dependencies for one target framework.
type DependencyGroup struct {
	TargetFramework string       `xml:"targetFramework,attr"`
	Dependencies    []Dependency `xml:"dependency"`
}

// Dependency is a single package dependency with its version range.
type Dependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// ParseNuspec parses a .nuspec manifest from a reader.
func ParseNuspec(r io.Reader) (*Nuspec, error) {
	var nuspec Nuspec
	if err := xml.NewDecoder(r).Decode(&nuspec); err != nil {
		return nil, fmt.Errorf("parse nuspec: %w", err)
	}
	return &nuspec, nil
}

// Identity returns the package id and parsed version from the manifest.
func (n *Nuspec) Identity() (*PackageIdentity, error) {
	if n.Metadata.ID == "" {
		return nil, fmt.Errorf("nuspec missing package id")
	}
	v, err := version.Parse(n.Metadata.Version)
	if err != nil {
		return nil, fmt.Errorf("nuspec version %q: %w", n.Metadata.Version, err)
	}
	return &PackageIdentity{ID: n.Metadata.ID, Version: v}, nil
}

// DependencyGroups returns the manifest's dependency groups, folding the
// legacy ungrouped form into a single group with an empty target
// framework.
func (n *Nuspec) DependencyGroups() []DependencyGroup {
	if n.Metadata.Dependencies == nil {
		return nil
	}
	groups := n.Metadata.Dependencies.Groups
	if len(n.Metadata.Dependencies.Dependencies) > 0 {
		legacy := DependencyGroup{Dependencies: n.Metadata.Dependencies.Dependencies}
		groups = append([]DependencyGroup{legacy}, groups...)
	}
	return groups
}
