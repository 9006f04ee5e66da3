package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSources(t *testing.T) {
	tmpDir := t.TempDir()
	configXML := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" protocolVersion="3" />
    <add key="legacy" value="https://nuget.example.com/api/v2" />
  </packageSources>
  <packageSourceCredentials>
    <legacy>
      <add key="Username" value="builder" />
      <add key="ClearTextPassword" value="s3cret" />
    </legacy>
  </packageSourceCredentials>
</configuration>`

	configPath := tmpDir + "/NuGet.config"
	if err := os.WriteFile(configPath, []byte(configXML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	sources := ResolveSources(tmpDir)
	if len(sources) != 2 {
		t.Fatalf("ResolveSources() returned %d sources, want 2", len(sources))
	}

	if sources[0].Name != "nuget.org" {
		t.Errorf("sources[0].Name = %q, want nuget.org", sources[0].Name)
	}
	if !sources[0].IsV3() {
		t.Error("nuget.org should resolve as v3")
	}
	if sources[0].Credential != nil {
		t.Error("nuget.org should have no credential")
	}

	if sources[1].Name != "legacy" {
		t.Errorf("sources[1].Name = %q, want legacy", sources[1].Name)
	}
	if sources[1].IsV3() {
		t.Error("legacy OData feed should resolve as v2")
	}
	if sources[1].Credential == nil {
		t.Fatal("legacy source should carry its credential")
	}
	if sources[1].Credential.Username != "builder" {
		t.Errorf("Credential.Username = %q, want builder", sources[1].Credential.Username)
	}
}

func TestResolveSources_AllDisabledFallsBackToDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configXML := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="internal" value="https://nuget.example.com/v3/index.json" />
  </packageSources>
  <disabledPackageSources>
    <add key="internal" value="true" />
  </disabledPackageSources>
</configuration>`

	if err := os.WriteFile(tmpDir+"/NuGet.config", []byte(configXML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	sources := ResolveSources(tmpDir)
	if len(sources) == 0 {
		t.Fatal("ResolveSources() returned no sources, want defaults")
	}

	found := false
	for _, source := range sources {
		if source.Name == "nuget.org" {
			found = true
		}
	}
	if !found {
		t.Error("fallback sources should contain nuget.org")
	}
}

func TestDetectProtocolVersion(t *testing.T) {
	tests := []struct {
		name   string
		source PackageSource
		want   int
	}{
		{
			name:   "explicit v3",
			source: PackageSource{Value: "https://example.com/feed", ProtocolVersion: "3"},
			want:   3,
		},
		{
			name:   "explicit v2 wins over json suffix",
			source: PackageSource{Value: "https://example.com/index.json", ProtocolVersion: "2"},
			want:   2,
		},
		{
			name:   "json suffix infers v3",
			source: PackageSource{Value: "https://api.nuget.org/v3/index.json"},
			want:   3,
		},
		{
			name:   "json suffix is case-insensitive",
			source: PackageSource{Value: "https://example.com/INDEX.JSON"},
			want:   3,
		},
		{
			name:   "plain URL defaults to v2",
			source: PackageSource{Value: "https://nuget.example.com/api/v2"},
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectProtocolVersion(tt.source); got != tt.want {
				t.Errorf("detectProtocolVersion() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSource_IsLocal(t *testing.T) {
	tests := []struct {
		url       string
		local     bool
		localPath string
	}{
		{"https://api.nuget.org/v3/index.json", false, ""},
		{"http://internal/nuget", false, ""},
		{"/var/feeds/packages", true, filepath.FromSlash("/var/feeds/packages")},
		{"../local-packages", true, filepath.FromSlash("../local-packages")},
		{"file:///var/feeds/packages", true, filepath.FromSlash("/var/feeds/packages")},
	}

	for _, tt := range tests {
		src := Source{URL: tt.url}
		if got := src.IsLocal(); got != tt.local {
			t.Errorf("IsLocal(%q) = %v, want %v", tt.url, got, tt.local)
		}
		if tt.local {
			if got := src.LocalPath(); got != tt.localPath {
				t.Errorf("LocalPath(%q) = %q, want %q", tt.url, got, tt.localPath)
			}
		}
	}
}

func TestSource_Authenticator(t *testing.T) {
	noCred := Source{Name: "public", URL: "https://api.nuget.org/v3/index.json"}
	if noCred.Authenticator() != nil {
		t.Error("source without credential should have nil authenticator")
	}

	encrypted := Source{
		Name:       "internal",
		URL:        "https://nuget.example.com/v3/index.json",
		Credential: &Credential{Username: "builder", Password: "AQAAANCMnd8...", IsClearText: false},
	}
	if encrypted.Authenticator() != nil {
		t.Error("encrypted password should yield nil authenticator")
	}

	clear := Source{
		Name:       "internal",
		URL:        "https://nuget.example.com/v3/index.json",
		Credential: &Credential{Username: "builder", Password: "s3cret", IsClearText: true},
	}
	authenticator := clear.Authenticator()
	if authenticator == nil {
		t.Fatal("cleartext credential should yield an authenticator")
	}

	req, err := http.NewRequest(http.MethodGet, "https://nuget.example.com/v3/index.json", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if err := authenticator.Authenticate(req); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	header := req.Header.Get("Authorization")
	if header == "" {
		t.Fatal("Authorization header not set")
	}
	// builder:s3cret base64-encoded
	if header != "Basic YnVpbGRlcjpzM2NyZXQ=" {
		t.Errorf("Authorization = %q, want Basic YnVpbGRlcjpzM2NyZXQ=", header)
	}
}
