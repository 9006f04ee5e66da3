package frameworks

import "testing"

func TestParseFramework(t *testing.T) {
	tests := []struct {
		name    string
		tfm     string
		family  string
		version FrameworkVersion
	}{
		// Modern .NET folds into .NETCoreApp
		{"net5", "net5.0", netCoreApp, FrameworkVersion{Major: 5}},
		{"net8", "net8.0", netCoreApp, FrameworkVersion{Major: 8}},
		{"two digit major", "net10.0", netCoreApp, FrameworkVersion{Major: 10}},

		// Long-form identifiers
		{"netcoreapp", "netcoreapp3.1", netCoreApp, FrameworkVersion{Major: 3, Minor: 1}},
		{"netstandard", "netstandard2.0", netStandard, FrameworkVersion{Major: 2}},
		{"netstandard21", "netstandard2.1", netStandard, FrameworkVersion{Major: 2, Minor: 1}},

		// Classic .NET Framework reads digits one component each
		{"net48", "net48", netFramework, FrameworkVersion{Major: 4, Minor: 8}},
		{"net472", "net472", netFramework, FrameworkVersion{Major: 4, Minor: 7, Build: 2}},
		{"four digits", "net4721", netFramework, FrameworkVersion{Major: 4, Minor: 7, Build: 2, Revision: 1}},
		{"single digit", "net4", netFramework, FrameworkVersion{Major: 4}},

		// Whitespace tolerated
		{"padded", "  net8.0  ", netCoreApp, FrameworkVersion{Major: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, err := ParseFramework(tt.tfm)
			if err != nil {
				t.Fatalf("ParseFramework(%q): %v", tt.tfm, err)
			}
			if fw.Framework != tt.family {
				t.Errorf("family = %q, want %q", fw.Framework, tt.family)
			}
			if fw.Version.Compare(tt.version) != 0 {
				t.Errorf("version = %v, want %v", fw.Version, tt.version)
			}
		})
	}
}

func TestParseFramework_PlatformSuffix(t *testing.T) {
	fw, err := ParseFramework("net8.0-windows10.0.19041")
	if err != nil {
		t.Fatal(err)
	}
	if fw.Framework != netCoreApp || fw.Platform != "windows" {
		t.Errorf("got %q platform %q, want .NETCoreApp windows", fw.Framework, fw.Platform)
	}
	want := FrameworkVersion{Major: 10, Minor: 0, Build: 19041}
	if fw.PlatformVersion.Compare(want) != 0 {
		t.Errorf("platform version = %v, want %v", fw.PlatformVersion, want)
	}

	// Version-less platform
	fw, err = ParseFramework("net6.0-android")
	if err != nil {
		t.Fatal(err)
	}
	if fw.Platform != "android" || !fw.PlatformVersion.IsEmpty() {
		t.Errorf("got platform %q version %v, want bare android", fw.Platform, fw.PlatformVersion)
	}
}

func TestParseFramework_Portable(t *testing.T) {
	fw, err := ParseFramework("portable-net45+win8")
	if err != nil {
		t.Fatal(err)
	}
	if fw.Framework != netPortable || fw.Profile != "net45+win8" {
		t.Errorf("got %q profile %q", fw.Framework, fw.Profile)
	}
	if fw.String() != "portable-net45+win8" {
		t.Errorf("String() = %q, want the original moniker", fw.String())
	}
}

func TestParseFramework_Rejects(t *testing.T) {
	for _, tfm := range []string{
		"",
		"net",
		"netstandard",
		"banana1.0",
		"net2.x",
		"net47210",
		"netstandard2.0.1.5",
		"net8.0-windows10.0.x",
	} {
		if _, err := ParseFramework(tfm); err == nil {
			t.Errorf("ParseFramework(%q) accepted, want error", tfm)
		}
	}
}

func TestNormalizeFrameworkName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		// Registration page spellings
		{"standard inline version", ".NETStandard2.0", "netstandard2.0"},
		{"coreapp inline version", ".NETCoreApp2.2", "netcoreapp2.2"},
		{"coreapp version property", ".NETCoreApp,Version=v6.0", "netcoreapp6.0"},
		{"framework version property", ".NETFramework,Version=v4.7.2", "net472"},
		{"framework inline version", ".NETFramework4.6.2", "net462"},

		// Already short
		{"short passthrough", "net8.0", "net8.0"},
		{"uppercase short", "NET8.0", "net8.0"},

		// Shapes left alone
		{"empty", "", ""},
		{"portable", ".NETPortable,Version=v4.5,Profile=Profile259", ".netportable,version=v4.5,profile=profile259"},
		{"unknown family", ".NETMicroFramework4.3", ".netmicroframework4.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFrameworkName(tt.in); got != tt.want {
				t.Errorf("NormalizeFrameworkName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFramework_String(t *testing.T) {
	// Parsed frameworks echo their input, even when the short folder
	// name would spell them differently.
	if got := MustParseFramework("netcoreapp8.0").String(); got != "netcoreapp8.0" {
		t.Errorf("parsed String() = %q, want the input back", got)
	}

	// Constructed frameworks format the short folder name.
	tests := []struct {
		name string
		fw   NuGetFramework
		want string
	}{
		{"net5 era", NuGetFramework{Framework: netCoreApp, Version: FrameworkVersion{Major: 8}}, "net8.0"},
		{"coreapp era", NuGetFramework{Framework: netCoreApp, Version: FrameworkVersion{Major: 3, Minor: 1}}, "netcoreapp3.1"},
		{"standard", NuGetFramework{Framework: netStandard, Version: FrameworkVersion{Major: 2}}, "netstandard2.0"},
		{"classic compact", NuGetFramework{Framework: netFramework, Version: FrameworkVersion{Major: 4, Minor: 7, Build: 2}}, "net472"},
		{"classic trailing zero", NuGetFramework{Framework: netFramework, Version: FrameworkVersion{Major: 4, Minor: 8}}, "net48"},
		{"platform suffix", NuGetFramework{
			Framework: netCoreApp, Version: FrameworkVersion{Major: 8},
			Platform: "windows", PlatformVersion: FrameworkVersion{Major: 10, Minor: 0, Build: 19041},
		}, "net8.0-windows10.0.19041"},
		{"portable", NuGetFramework{Framework: netPortable, Profile: "Profile259"}, "portable-profile259"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fw.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameworkVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b FrameworkVersion
		want int
	}{
		{FrameworkVersion{Major: 2}, FrameworkVersion{Major: 2}, 0},
		{FrameworkVersion{Major: 2}, FrameworkVersion{Major: 3}, -1},
		{FrameworkVersion{Major: 4, Minor: 8}, FrameworkVersion{Major: 4, Minor: 7, Build: 2}, 1},
		{FrameworkVersion{Major: 4, Minor: 6, Build: 1}, FrameworkVersion{Major: 4, Minor: 6, Build: 1}, 0},
		{FrameworkVersion{Major: 1, Revision: 1}, FrameworkVersion{Major: 1}, 1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFrameworkVersion_String(t *testing.T) {
	tests := []struct {
		v    FrameworkVersion
		want string
	}{
		{FrameworkVersion{Major: 8}, "8.0"},
		{FrameworkVersion{Major: 4, Minor: 8}, "4.8"},
		{FrameworkVersion{Major: 4, Minor: 7, Build: 2}, "4.7.2"},
		{FrameworkVersion{Major: 1, Minor: 2, Build: 3, Revision: 4}, "1.2.3.4"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFramework_Equals(t *testing.T) {
	net8a := MustParseFramework("net8.0")
	net8b := MustParseFramework("net8.0")
	net8win := MustParseFramework("net8.0-windows")

	if !net8a.Equals(net8b) {
		t.Error("identical monikers should be equal")
	}
	if net8a.Equals(net8win) {
		t.Error("platform suffix should break equality")
	}
	if net8a.Equals(MustParseFramework("net6.0")) {
		t.Error("different versions should not be equal")
	}
	if net8a.Equals(nil) {
		t.Error("non-nil vs nil should not be equal")
	}
	var a, b *NuGetFramework
	if !a.Equals(b) {
		t.Error("nil vs nil should be equal")
	}
}
