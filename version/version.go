// Package version implements NuGet version semantics: parsing and
// comparison of SemVer 2.0 and legacy 4-part versions, plus the bracket
// range and floating wildcard syntax used by declared package references.
//
// Example:
//
//	v, err := version.Parse("1.2.3-beta.1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v.Major, v.Minor, v.Patch) // 1 2 3
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// NuGetVersion represents a NuGet package version.
//
// It supports both SemVer 2.0 format (Major.Minor.Patch[-Prerelease][+Metadata])
// and legacy 4-part versions (Major.Minor.Build.Revision).
type NuGetVersion struct {
	// Major version number
	Major int

	// Minor version number
	Minor int

	// Patch version number (or Build for legacy versions)
	Patch int

	// Revision is only used for legacy 4-part versions
	Revision int

	// IsLegacyVersion indicates this is a 4-part version, not SemVer 2.0
	IsLegacyVersion bool

	// ReleaseLabels contains prerelease labels (e.g., ["beta", "1"] for "1.0.0-beta.1")
	ReleaseLabels []string

	// Metadata is the build metadata (e.g., "20241019" for "1.0.0+20241019").
	// Metadata never participates in comparison per SemVer 2.0.
	Metadata string

	// originalString preserves the input exactly as parsed
	originalString string
}

// Parse parses a version string into a NuGetVersion.
//
// Accepted forms:
//   - SemVer 2.0: Major[.Minor[.Patch]][-Prerelease][+Metadata]
//   - Legacy: Major.Minor.Build.Revision
//
// Omitted numeric parts default to zero, so "1" parses as 1.0.0.
func Parse(s string) (*NuGetVersion, error) {
	if s == "" {
		return nil, fmt.Errorf("version string cannot be empty")
	}

	v := &NuGetVersion{originalString: s}

	rest := s
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		v.Metadata = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		if labels := rest[i+1:]; labels != "" {
			v.ReleaseLabels = strings.Split(labels, ".")
		}
		rest = rest[:i]
	}

	numbers := strings.Split(rest, ".")
	if len(numbers) > 4 {
		return nil, fmt.Errorf("invalid version format: %q", s)
	}

	parts := make([]int, len(numbers))
	for i, number := range numbers {
		n, err := strconv.Atoi(number)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version part %q in %q", number, s)
		}
		parts[i] = n
	}

	v.Major = parts[0]
	if len(parts) > 1 {
		v.Minor = parts[1]
	}
	if len(parts) > 2 {
		v.Patch = parts[2]
	}
	if len(parts) == 4 {
		v.Revision = parts[3]
		v.IsLegacyVersion = true
	}

	return v, nil
}

// MustParse parses a version string and panics on error.
// Use this only when you know the version string is valid.
func MustParse(s string) *NuGetVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original input when the version was parsed,
// otherwise the canonical formatted form.
func (v *NuGetVersion) String() string {
	if v.originalString != "" {
		return v.originalString
	}
	return v.format()
}

// ToNormalizedString returns the canonical string form, discarding any
// formatting quirks of the original input (leading zeros, omitted parts).
func (v *NuGetVersion) ToNormalizedString() string {
	return v.format()
}

// IsPrerelease reports whether the version carries any non-empty release label.
func (v *NuGetVersion) IsPrerelease() bool {
	for _, label := range v.ReleaseLabels {
		if label != "" {
			return true
		}
	}
	return false
}

// format creates the canonical version string.
func (v *NuGetVersion) format() string {
	var b strings.Builder

	if v.IsLegacyVersion {
		fmt.Fprintf(&b, "%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Revision)
	} else {
		fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	}

	for i, label := range v.ReleaseLabels {
		if i == 0 {
			b.WriteByte('-')
		} else {
			b.WriteByte('.')
		}
		b.WriteString(label)
	}

	if v.Metadata != "" {
		b.WriteByte('+')
		b.WriteString(v.Metadata)
	}

	return b.String()
}
