package version

import "strings"

// Kind classifies how a declared package version constrains resolution.
type Kind int

const (
	// KindStandard is a plain version like "1.2.3", resolved as >= 1.2.3.
	KindStandard Kind = iota

	// KindExact is a pinned bracket version like "[1.2.3]".
	KindExact

	// KindRange is an interval like "[1.0, 2.0)".
	KindRange

	// KindFloating is a wildcard pattern like "1.0.*" or "*".
	KindFloating
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	case KindFloating:
		return "floating"
	default:
		return "unknown"
	}
}

// Classify determines the kind of a declared version string and whether
// it tracks the latest available version outright ("*", or "*-*" to
// include prereleases).
//
// Declared versions come from user-edited project files, so
// classification never fails: anything unparseable falls back to
// KindStandard.
func Classify(declared string) (kind Kind, alwaysLatest bool) {
	s := strings.TrimSpace(declared)

	switch {
	case s == "*" || s == "*-*":
		return KindFloating, true

	case strings.HasPrefix(s, "[") || strings.HasPrefix(s, "("):
		r, err := ParseVersionRange(s)
		if err != nil {
			return KindStandard, false
		}
		if r.MinInclusive && r.MaxInclusive &&
			r.MinVersion != nil && r.MaxVersion != nil &&
			r.MinVersion.Equals(r.MaxVersion) {
			return KindExact, false
		}
		return KindRange, false

	case strings.Contains(s, "*"):
		if _, err := ParseFloatRange(s); err != nil {
			return KindStandard, false
		}
		return KindFloating, false

	default:
		return KindStandard, false
	}
}
