package version

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other.
//
// Ordering follows NuGet semantics: numeric parts compare first, then
// prerelease labels (a release orders above all of its prereleases,
// numeric labels below alphanumeric ones, alphanumeric labels
// case-insensitively). Build metadata is ignored. Revision participates
// only when both versions are legacy 4-part versions.
func (v *NuGetVersion) Compare(other *NuGetVersion) int {
	if other == nil {
		return 1
	}

	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	if v.IsLegacyVersion && other.IsLegacyVersion {
		if c := compareInt(v.Revision, other.Revision); c != 0 {
			return c
		}
	}

	return compareReleaseLabels(v, other)
}

// Equals reports whether v and other compare as equal (metadata ignored).
func (v *NuGetVersion) Equals(other *NuGetVersion) bool {
	return v.Compare(other) == 0
}

// LessThan reports whether v orders strictly before other.
func (v *NuGetVersion) LessThan(other *NuGetVersion) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v orders strictly after other.
func (v *NuGetVersion) GreaterThan(other *NuGetVersion) bool {
	return v.Compare(other) > 0
}

func compareReleaseLabels(a, b *NuGetVersion) int {
	aPre, bPre := a.IsPrerelease(), b.IsPrerelease()
	switch {
	case !aPre && !bPre:
		return 0
	case !aPre:
		return 1
	case !bPre:
		return -1
	}

	for i := 0; i < len(a.ReleaseLabels) && i < len(b.ReleaseLabels); i++ {
		if c := compareLabel(a.ReleaseLabels[i], b.ReleaseLabels[i]); c != 0 {
			return c
		}
	}

	// All shared labels equal; the shorter label list orders first
	// ("1.0.0-alpha" < "1.0.0-alpha.1").
	return compareInt(len(a.ReleaseLabels), len(b.ReleaseLabels))
}

func compareLabel(a, b string) int {
	aNum, aErr := strconv.Atoi(a)
	bNum, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return compareInt(aNum, bNum)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
