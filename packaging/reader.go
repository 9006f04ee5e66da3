// Package packaging reads .nupkg archives. The panel uses it to serve
// search, version, and metadata requests from local folder feeds, where
// the packages sit on disk instead of behind a registry API.
package packaging

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/willibrandon/nupanel/version"
)

// signaturePath is where a signed package carries its PKCS#7 signature.
// Reference: SigningSpecificationsV1.cs
const signaturePath = ".signature.p7s"

// A valid package carries exactly one .nuspec at the archive root.
var (
	ErrNuspecNotFound  = errors.New("nuspec file not found")
	ErrMultipleNuspecs = errors.New("multiple nuspec files found")
)

// PackageIdentity is a package id and parsed version.
type PackageIdentity struct {
	ID      string
	Version *version.NuGetVersion
}

// String returns "ID Version" format.
func (p *PackageIdentity) String() string {
	return fmt.Sprintf("%s %s", p.ID, p.Version.String())
}

// PackageReader provides read access to a .nupkg archive.
type PackageReader struct {
	zr *zip.ReadCloser

	// Cached values
	isSigned    *bool
	nuspecEntry *zip.File
}

// OpenPackage opens a .nupkg file from disk.
func OpenPackage(path string) (*PackageReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	return &PackageReader{zr: zr}, nil
}

// Close closes the archive.
func (r *PackageReader) Close() error {
	return r.zr.Close()
}

// IsSigned reports whether the package carries a signature file.
func (r *PackageReader) IsSigned() bool {
	if r.isSigned != nil {
		return *r.isSigned
	}
	signed := false
	for _, file := range r.zr.File {
		if file.Name == signaturePath {
			signed = true
			break
		}
	}
	r.isSigned = &signed
	return signed
}

// GetNuspecFile finds the manifest entry. A valid package has exactly one
// .nuspec at the archive root.
func (r *PackageReader) GetNuspecFile() (*zip.File, error) {
	if r.nuspecEntry != nil {
		return r.nuspecEntry, nil
	}

	var candidates []*zip.File
	for _, file := range r.zr.File {
		if !strings.Contains(file.Name, "/") && strings.HasSuffix(strings.ToLower(file.Name), ".nuspec") {
			candidates = append(candidates, file)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, ErrNuspecNotFound
	case 1:
		r.nuspecEntry = candidates[0]
		return r.nuspecEntry, nil
	default:
		return nil, ErrMultipleNuspecs
	}
}

// OpenNuspec opens the manifest for reading.
func (r *PackageReader) OpenNuspec() (io.ReadCloser, error) {
	entry, err := r.GetNuspecFile()
	if err != nil {
		return nil, err
	}
	return entry.Open()
}

// Nuspec parses and returns the manifest.
func (r *PackageReader) Nuspec() (*Nuspec, error) {
	rc, err := r.OpenNuspec()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return ParseNuspec(rc)
}

// ReadFile returns the content of an archive entry, matching the path
// case-insensitively with either separator. Used for files the manifest
// references by name, like an embedded readme.
func (r *PackageReader) ReadFile(name string) ([]byte, error) {
	normalized := strings.ReplaceAll(name, "\\", "/")
	for _, file := range r.zr.File {
		if strings.EqualFold(file.Name, normalized) {
			rc, err := file.Open()
			if err != nil {
				return nil, err
			}
			defer func() { _ = rc.Close() }()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found in package: %s", name)
}
