package version

import (
	"fmt"
	"strings"
)

// Range is a bracket version constraint from a PackageReference.
//
//	[1.0, 2.0]   inclusive both ends
//	(1.0, 2.0)   exclusive both ends
//	[1.0, 2.0)   the usual floor-inclusive form
//	[1.0, )      no ceiling
//	(, 2.0]      no floor
//	[1.0]        exactly 1.0
//	1.0          shorthand for [1.0, )
type Range struct {
	MinVersion   *NuGetVersion
	MaxVersion   *NuGetVersion
	MinInclusive bool
	MaxInclusive bool
}

// ParseVersionRange parses bracket syntax, or a bare version as an
// inclusive floor.
func ParseVersionRange(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("version range cannot be empty")
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(") {
		return parseBracketRange(s)
	}

	v, err := Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version range: %w", err)
	}
	return &Range{MinVersion: v, MinInclusive: true}, nil
}

// MustParseRange parses a range and panics on error. For literals in
// tests.
func MustParseRange(s string) *Range {
	r, err := ParseVersionRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseBracketRange(s string) (*Range, error) {
	if !strings.HasSuffix(s, "]") && !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("range %q must end with ] or )", s)
	}

	r := &Range{
		MinInclusive: strings.HasPrefix(s, "["),
		MaxInclusive: strings.HasSuffix(s, "]"),
	}

	lo, hi, twoPart := strings.Cut(s[1:len(s)-1], ",")
	if strings.Contains(hi, ",") {
		return nil, fmt.Errorf("range %q has too many parts", s)
	}
	lo = strings.TrimSpace(lo)
	hi = strings.TrimSpace(hi)
	if !twoPart {
		// [1.0] pins exactly that version.
		hi = lo
	}

	var err error
	if lo != "" {
		if r.MinVersion, err = Parse(lo); err != nil {
			return nil, fmt.Errorf("invalid range floor: %w", err)
		}
	}
	if hi != "" {
		if r.MaxVersion, err = Parse(hi); err != nil {
			return nil, fmt.Errorf("invalid range ceiling: %w", err)
		}
	}
	return r, nil
}

// Satisfies reports whether v falls inside the range.
func (r *Range) Satisfies(v *NuGetVersion) bool {
	if v == nil {
		return false
	}
	if r.MinVersion != nil {
		c := v.Compare(r.MinVersion)
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.MaxVersion != nil {
		c := v.Compare(r.MaxVersion)
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// FindBestMatch picks the lowest version satisfying the range, the
// resolution rule NuGet applies to dependency ranges.
func (r *Range) FindBestMatch(versions []*NuGetVersion) *NuGetVersion {
	var best *NuGetVersion
	for _, v := range versions {
		if r.Satisfies(v) && (best == nil || v.LessThan(best)) {
			best = v
		}
	}
	return best
}

func (r *Range) String() string {
	lb, rb := "(", ")"
	if r.MinInclusive {
		lb = "["
	}
	if r.MaxInclusive {
		rb = "]"
	}

	var lo, hi string
	if r.MinVersion != nil {
		lo = r.MinVersion.String()
	}
	if r.MaxVersion != nil {
		hi = r.MaxVersion.String()
	}
	return lb + lo + ", " + hi + rb
}
