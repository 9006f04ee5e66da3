// Package frameworks parses Target Framework Monikers and picks the
// dependency group nearest a project's framework.
//
// The parser covers the families a package panel actually meets in
// registration pages and project files: .NET 5+ and .NET Core
// (.NETCoreApp), .NET Standard, and classic .NET Framework, plus the
// platform suffixes of OS-specific TFMs (net8.0-windows10.0.19041).
// Portable class library monikers parse into an opaque profile so they
// survive round-trips, but they never win nearest-group selection.
package frameworks

import (
	"fmt"
	"strconv"
	"strings"
)

// Framework identifiers as NuGet spells them in full framework names.
const (
	netCoreApp   = ".NETCoreApp"
	netStandard  = ".NETStandard"
	netFramework = ".NETFramework"
	netPortable  = ".NETPortable"
)

// NuGetFramework is a parsed Target Framework Moniker.
type NuGetFramework struct {
	// Framework is the full identifier, e.g. ".NETCoreApp".
	Framework string

	// Version is the framework version. net48 parses as 4.8.
	Version FrameworkVersion

	// Platform and PlatformVersion carry an OS suffix such as
	// "windows" 10.0.19041 in net8.0-windows10.0.19041.
	Platform        string
	PlatformVersion FrameworkVersion

	// Profile holds the portable profile of a PCL moniker, verbatim.
	Profile string

	// raw keeps the input string so String round-trips.
	raw string
}

// FrameworkVersion is a framework version of up to four components.
type FrameworkVersion struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// Compare orders two versions component-wise. It returns -1, 0, or 1.
func (v FrameworkVersion) Compare(other FrameworkVersion) int {
	pairs := [4][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Build, other.Build},
		{v.Revision, other.Revision},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// IsEmpty reports whether every component is zero.
func (v FrameworkVersion) IsEmpty() bool {
	return v == FrameworkVersion{}
}

// String renders the version with trailing zero components dropped,
// keeping at least major.minor: 4.7.2.0 → "4.7.2", 8.0.0.0 → "8.0".
func (v FrameworkVersion) String() string {
	switch {
	case v.Revision > 0:
		return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	case v.Build > 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	default:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
}

// Equals reports whether two frameworks name the same target. Both nil
// compares true; one nil compares false.
func (fw *NuGetFramework) Equals(other *NuGetFramework) bool {
	if fw == nil || other == nil {
		return fw == other
	}
	return fw.Framework == other.Framework &&
		fw.Version.Compare(other.Version) == 0 &&
		fw.Platform == other.Platform &&
		fw.PlatformVersion.Compare(other.PlatformVersion) == 0 &&
		fw.Profile == other.Profile
}

// String returns the original moniker when the framework was parsed,
// otherwise the short folder name.
func (fw *NuGetFramework) String() string {
	if fw.raw != "" {
		return fw.raw
	}
	return fw.shortFolderName()
}

func (fw *NuGetFramework) shortFolderName() string {
	var sb strings.Builder
	switch fw.Framework {
	case netStandard:
		sb.WriteString("netstandard")
		sb.WriteString(fw.Version.String())
	case netCoreApp:
		if fw.Version.Major >= 5 {
			sb.WriteString("net")
		} else {
			sb.WriteString("netcoreapp")
		}
		sb.WriteString(fw.Version.String())
	case netFramework:
		sb.WriteString("net")
		sb.WriteString(compactDigits(fw.Version))
	case netPortable:
		return "portable-" + strings.ToLower(fw.Profile)
	default:
		return strings.ToLower(fw.Framework)
	}
	if fw.Platform != "" {
		sb.WriteString("-")
		sb.WriteString(strings.ToLower(fw.Platform))
		if !fw.PlatformVersion.IsEmpty() {
			sb.WriteString(fw.PlatformVersion.String())
		}
	}
	return sb.String()
}

// compactDigits renders a version the .NET Framework folder way, digits
// only with trailing zeros dropped past minor: 4.8 → "48", 4.7.2 → "472".
func compactDigits(v FrameworkVersion) string {
	parts := [4]int{v.Major, v.Minor, v.Build, v.Revision}
	last := 1
	for i := 2; i < 4; i++ {
		if parts[i] != 0 {
			last = i
		}
	}
	var sb strings.Builder
	for i := 0; i <= last; i++ {
		sb.WriteString(strconv.Itoa(parts[i]))
	}
	return sb.String()
}

// ParseFramework parses a short TFM into a NuGetFramework.
//
// net5.0 and up map to .NETCoreApp; dotless net versions are classic
// .NET Framework read digit by digit (net48 → 4.8, net472 → 4.7.2).
// A "-platform" suffix is split into Platform and PlatformVersion.
func ParseFramework(tfm string) (*NuGetFramework, error) {
	tfm = strings.TrimSpace(tfm)
	if tfm == "" {
		return nil, fmt.Errorf("empty framework moniker")
	}

	if rest, ok := strings.CutPrefix(tfm, "portable-"); ok {
		return &NuGetFramework{Framework: netPortable, Profile: rest, raw: tfm}, nil
	}

	fw := &NuGetFramework{raw: tfm}
	name, platform, hasPlatform := strings.Cut(tfm, "-")
	if hasPlatform {
		if err := fw.setPlatform(platform); err != nil {
			return nil, err
		}
	}
	if err := fw.setIdentifier(name); err != nil {
		return nil, err
	}
	return fw, nil
}

// MustParseFramework is ParseFramework for fixtures; it panics on error.
func MustParseFramework(tfm string) *NuGetFramework {
	fw, err := ParseFramework(tfm)
	if err != nil {
		panic(err)
	}
	return fw
}

func (fw *NuGetFramework) setIdentifier(s string) error {
	// Longest prefix first so "netstandard" is not eaten by "net".
	table := []struct {
		prefix string
		id     string
	}{
		{"netstandard", netStandard},
		{"netcoreapp", netCoreApp},
		{"net", ""},
	}
	for _, row := range table {
		rest, ok := strings.CutPrefix(s, row.prefix)
		if !ok {
			continue
		}
		if rest == "" {
			return fmt.Errorf("framework %q has no version", s)
		}
		compactOK := row.id == ""
		v, err := parseVersion(rest, compactOK)
		if err != nil {
			return fmt.Errorf("framework %q: %w", s, err)
		}
		fw.Version = v
		fw.Framework = row.id
		if row.id == "" {
			// Bare "net" is .NET 5+ for 5.0 and up, classic below.
			if v.Major >= 5 {
				fw.Framework = netCoreApp
			} else {
				fw.Framework = netFramework
			}
		}
		return nil
	}

	switch strings.ToLower(s) {
	case "any", "unsupported", "agnostic":
		fw.Framework = s
		return nil
	}
	return fmt.Errorf("unknown framework moniker %q", s)
}

// parseVersion reads a dotted version of up to three components. With
// compactOK it also accepts 2 to 4 bare digits, one component each;
// a lone digit stays a plain major version ("net4" is 4.0).
func parseVersion(s string, compactOK bool) (FrameworkVersion, error) {
	if compactOK && !strings.Contains(s, ".") && len(s) >= 2 {
		return parseCompact(s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return FrameworkVersion{}, fmt.Errorf("invalid version %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return FrameworkVersion{}, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return FrameworkVersion{Major: nums[0], Minor: nums[1], Build: nums[2]}, nil
}

func parseCompact(s string) (FrameworkVersion, error) {
	if len(s) < 2 || len(s) > 4 {
		return FrameworkVersion{}, fmt.Errorf("invalid compact version %q", s)
	}
	var nums [4]int
	for i, c := range s {
		if c < '0' || c > '9' {
			return FrameworkVersion{}, fmt.Errorf("invalid compact version %q", s)
		}
		nums[i] = int(c - '0')
	}
	return FrameworkVersion{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3]}, nil
}

func (fw *NuGetFramework) setPlatform(s string) error {
	digit := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if digit < 0 {
		fw.Platform = s
		return nil
	}
	fw.Platform = s[:digit]
	v, err := parseVersion(s[digit:], false)
	if err != nil {
		return fmt.Errorf("platform %q: %w", s, err)
	}
	fw.PlatformVersion = v
	return nil
}

// NormalizeFrameworkName rewrites the framework names registration pages
// and assets files use into short TFMs:
//
//	".NETStandard2.0"          → "netstandard2.0"
//	".NETCoreApp,Version=v2.2" → "netcoreapp2.2"
//	".NETFramework,Version=v4.7.2" → "net472"
//
// Names already in short form pass through lowercased; shapes it does
// not recognize come back lowercased untouched.
func NormalizeFrameworkName(name string) string {
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, ".") && !strings.Contains(name, ",") {
		return strings.ToLower(name)
	}

	ident, props, _ := strings.Cut(name, ",")

	// The version trails the identifier (".NETStandard2.0") or sits in
	// a Version=v property (".NETCoreApp,Version=v2.2").
	version := ""
	if i := strings.IndexFunc(ident, func(r rune) bool { return r >= '0' && r <= '9' }); i >= 0 {
		ident, version = ident[:i], ident[i:]
	} else if props != "" {
		for _, prop := range strings.Split(props, ",") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(prop), "Version=v"); ok {
				version = v
			}
		}
	}

	switch ident {
	case netStandard:
		return "netstandard" + version
	case netCoreApp:
		return "netcoreapp" + version
	case netFramework:
		// Folder names spell classic versions without dots.
		return "net" + strings.ReplaceAll(version, ".", "")
	default:
		return strings.ToLower(name)
	}
}
