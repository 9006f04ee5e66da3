package version

import (
	"fmt"
	"slices"
	"strings"
)

// FloatBehavior says which position of a declared version floats.
type FloatBehavior int

const (
	FloatNone       FloatBehavior = iota
	FloatPrerelease               // 1.0.0-*
	FloatRevision                 // 1.0.0.*
	FloatPatch                    // 1.0.*
	FloatMinor                    // 1.*
	FloatMajor                    // *
)

func (f FloatBehavior) String() string {
	switch f {
	case FloatNone:
		return "none"
	case FloatPrerelease:
		return "prerelease"
	case FloatRevision:
		return "revision"
	case FloatPatch:
		return "patch"
	case FloatMinor:
		return "minor"
	case FloatMajor:
		return "major"
	}
	return "unknown"
}

// FloatRange is a parsed floating declaration: the fixed prefix and
// which position floats. A nil MinVersion means nothing is fixed.
type FloatRange struct {
	MinVersion    *NuGetVersion
	FloatBehavior FloatBehavior
}

// ParseFloatRange parses wildcard declarations like "1.0.*", "1.0.0-*"
// or "*". The wildcard must stand alone in its position; "1.0.4*" is
// not float syntax.
func ParseFloatRange(s string) (*FloatRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("float range cannot be empty")
	}

	if s == "*" {
		return &FloatRange{FloatBehavior: FloatMajor}, nil
	}

	if prefix, ok := strings.CutSuffix(s, "-*"); ok {
		v, err := Parse(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid float range: %w", err)
		}
		return &FloatRange{MinVersion: v, FloatBehavior: FloatPrerelease}, nil
	}

	parts := strings.Split(s, ".")
	wild := slices.Index(parts, "*")
	if wild < 0 {
		return nil, fmt.Errorf("float range %q has no wildcard", s)
	}

	byPosition := []FloatBehavior{FloatMajor, FloatMinor, FloatPatch, FloatRevision}
	if wild >= len(byPosition) {
		return nil, fmt.Errorf("wildcard too deep in %q", s)
	}
	fr := &FloatRange{FloatBehavior: byPosition[wild]}

	if wild > 0 {
		fixed := parts[:wild]
		for len(fixed) < 2 {
			fixed = append(fixed, "0")
		}
		v, err := Parse(strings.Join(fixed, "."))
		if err != nil {
			return nil, fmt.Errorf("invalid float range: %w", err)
		}
		fr.MinVersion = v
	}
	return fr, nil
}

// Satisfies reports whether v shares the float's fixed prefix.
func (f *FloatRange) Satisfies(v *NuGetVersion) bool {
	if v == nil {
		return false
	}
	if f.MinVersion == nil {
		return true
	}

	switch f.FloatBehavior {
	case FloatPrerelease, FloatRevision:
		return v.Major == f.MinVersion.Major &&
			v.Minor == f.MinVersion.Minor &&
			v.Patch == f.MinVersion.Patch
	case FloatPatch:
		return v.Major == f.MinVersion.Major && v.Minor == f.MinVersion.Minor
	case FloatMinor:
		return v.Major == f.MinVersion.Major
	case FloatMajor:
		return true
	}
	return false
}

// FindBestMatch picks the highest satisfying version; a float tracks
// the newest release its prefix allows.
func (f *FloatRange) FindBestMatch(versions []*NuGetVersion) *NuGetVersion {
	var best *NuGetVersion
	for _, v := range versions {
		if f.Satisfies(v) && (best == nil || v.GreaterThan(best)) {
			best = v
		}
	}
	return best
}

func (f *FloatRange) String() string {
	if f.MinVersion == nil {
		return "*"
	}
	switch f.FloatBehavior {
	case FloatPrerelease:
		return f.MinVersion.String() + "-*"
	case FloatRevision:
		return fmt.Sprintf("%d.%d.%d.*", f.MinVersion.Major, f.MinVersion.Minor, f.MinVersion.Patch)
	case FloatPatch:
		return fmt.Sprintf("%d.%d.*", f.MinVersion.Major, f.MinVersion.Minor)
	case FloatMinor:
		return fmt.Sprintf("%d.*", f.MinVersion.Major)
	case FloatMajor:
		return "*"
	}
	return ""
}
