package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseNuGetConfig(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" protocolVersion="3" />
  </packageSources>
  <config>
    <add key="globalPackagesFolder" value="~/.nuget/packages" />
  </config>
</configuration>`

	config, err := ParseNuGetConfig(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	if config.PackageSources == nil {
		t.Fatal("PackageSources is nil")
	}

	if len(config.PackageSources.Add) != 1 {
		t.Errorf("expected 1 package source, got %d", len(config.PackageSources.Add))
	}

	source := config.PackageSources.Add[0]
	if source.Key != "nuget.org" {
		t.Errorf("source.Key = %q, want %q", source.Key, "nuget.org")
	}

	value := config.GetConfigValue("globalPackagesFolder")
	if value != "~/.nuget/packages" {
		t.Errorf("config value = %q, want %q", value, "~/.nuget/packages")
	}
}

func TestWriteNuGetConfig(t *testing.T) {
	config := NewDefaultConfig()
	config.SetConfigValue("test", "value")

	var buf bytes.Buffer
	if err := WriteNuGetConfig(&buf, config); err != nil {
		t.Fatalf("WriteNuGetConfig() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "configuration") {
		t.Error("output doesn't contain configuration element")
	}
	if !strings.Contains(output, "nuget.org") {
		t.Error("output doesn't contain nuget.org source")
	}
}

func TestNuGetConfig_AddPackageSource(t *testing.T) {
	config := &NuGetConfig{}

	source := PackageSource{
		Key:   "test",
		Value: "https://test.com/v3/index.json",
	}

	config.AddPackageSource(source)

	got := config.GetPackageSource("test")
	if got == nil {
		t.Fatal("GetPackageSource() returned nil")
	}
	if got.Key != "test" {
		t.Errorf("source.Key = %q, want %q", got.Key, "test")
	}
}

func TestNuGetConfig_RemovePackageSource(t *testing.T) {
	config := NewDefaultConfig()

	if !config.RemovePackageSource("nuget.org") {
		t.Error("RemovePackageSource() returned false, want true")
	}

	if config.GetPackageSource("nuget.org") != nil {
		t.Error("source still exists after removal")
	}
}

func TestNuGetConfig_UpdatePackageSource(t *testing.T) {
	config := NewDefaultConfig()

	// Update existing source
	updated := PackageSource{
		Key:             "nuget.org",
		Value:           "https://custom.nuget.org/v3/index.json",
		ProtocolVersion: "3",
		Enabled:         "true",
	}

	config.AddPackageSource(updated)

	got := config.GetPackageSource("nuget.org")
	if got == nil {
		t.Fatal("GetPackageSource() returned nil")
	}
	if got.Value != "https://custom.nuget.org/v3/index.json" {
		t.Errorf("source.Value = %q, want %q", got.Value, "https://custom.nuget.org/v3/index.json")
	}

	// Should still have only one source
	if len(config.PackageSources.Add) != 1 {
		t.Errorf("expected 1 source after update, got %d", len(config.PackageSources.Add))
	}
}

func TestNuGetConfig_SetConfigValue(t *testing.T) {
	config := &NuGetConfig{}

	config.SetConfigValue("key1", "value1")
	config.SetConfigValue("key2", "value2")

	if got := config.GetConfigValue("key1"); got != "value1" {
		t.Errorf("GetConfigValue(key1) = %q, want %q", got, "value1")
	}
	if got := config.GetConfigValue("key2"); got != "value2" {
		t.Errorf("GetConfigValue(key2) = %q, want %q", got, "value2")
	}

	// Update existing
	config.SetConfigValue("key1", "updated")
	if got := config.GetConfigValue("key1"); got != "updated" {
		t.Errorf("GetConfigValue(key1) after update = %q, want %q", got, "updated")
	}

	// Should have 2 items
	if len(config.Config.Add) != 2 {
		t.Errorf("expected 2 config items, got %d", len(config.Config.Add))
	}
}

func TestNuGetConfig_DisabledSources(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="nuget.org" value="https://api.nuget.org/v3/index.json" protocolVersion="3" />
    <add key="internal" value="https://nuget.example.com/v3/index.json" />
    <add key="attr-disabled" value="https://other.example.com/v3/index.json" enabled="false" />
  </packageSources>
  <disabledPackageSources>
    <add key="internal" value="true" />
  </disabledPackageSources>
</configuration>`

	config, err := ParseNuGetConfig(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	if !config.IsSourceDisabled("internal") {
		t.Error("IsSourceDisabled(internal) = false, want true")
	}
	if config.IsSourceDisabled("nuget.org") {
		t.Error("IsSourceDisabled(nuget.org) = true, want false")
	}

	enabled := config.GetEnabledPackageSources()
	if len(enabled) != 1 {
		t.Fatalf("expected 1 enabled source, got %d", len(enabled))
	}
	if enabled[0].Key != "nuget.org" {
		t.Errorf("enabled source = %q, want nuget.org", enabled[0].Key)
	}
}

func TestNuGetConfig_GetCredential(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="internal" value="https://nuget.example.com/v3/index.json" />
  </packageSources>
  <packageSourceCredentials>
    <internal>
      <add key="Username" value="builder" />
      <add key="ClearTextPassword" value="s3cret" />
    </internal>
  </packageSourceCredentials>
</configuration>`

	config, err := ParseNuGetConfig(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	cred, ok := config.GetCredential("internal")
	if !ok {
		t.Fatal("GetCredential(internal) = false, want true")
	}
	if cred.Username != "builder" {
		t.Errorf("Username = %q, want builder", cred.Username)
	}
	if cred.Password != "s3cret" {
		t.Errorf("Password = %q, want s3cret", cred.Password)
	}
	if !cred.IsClearText {
		t.Error("IsClearText = false, want true")
	}

	if _, ok := config.GetCredential("nuget.org"); ok {
		t.Error("GetCredential(nuget.org) = true, want false")
	}
}

func TestNuGetConfig_GetCredential_EscapedName(t *testing.T) {
	// Source keys with spaces are escaped in element names
	xml := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSourceCredentials>
    <My_x0020_Feed>
      <add key="Username" value="user" />
      <add key="ClearTextPassword" value="pass" />
    </My_x0020_Feed>
  </packageSourceCredentials>
</configuration>`

	config, err := ParseNuGetConfig(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	cred, ok := config.GetCredential("My Feed")
	if !ok {
		t.Fatal("GetCredential(My Feed) = false, want true")
	}
	if cred.Username != "user" {
		t.Errorf("Username = %q, want user", cred.Username)
	}
}

func TestNuGetConfig_GetCredential_EncryptedPassword(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSourceCredentials>
    <internal>
      <add key="Username" value="builder" />
      <add key="Password" value="AQAAANCMnd8BFdERjHoAwE..." />
    </internal>
  </packageSourceCredentials>
</configuration>`

	config, err := ParseNuGetConfig(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	cred, ok := config.GetCredential("internal")
	if !ok {
		t.Fatal("GetCredential(internal) = false, want true")
	}
	if cred.IsClearText {
		t.Error("IsClearText = true, want false for encrypted Password")
	}
}

func TestRoundTrip(t *testing.T) {
	// Create config
	config := NewDefaultConfig()
	config.SetConfigValue("globalPackagesFolder", "~/.nuget/packages")

	// Write to buffer
	var buf bytes.Buffer
	if err := WriteNuGetConfig(&buf, config); err != nil {
		t.Fatalf("WriteNuGetConfig() error = %v", err)
	}

	// Parse back
	parsed, err := ParseNuGetConfig(&buf)
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	// Verify
	if parsed.GetConfigValue("globalPackagesFolder") != "~/.nuget/packages" {
		t.Error("round-trip failed to preserve config value")
	}

	if len(parsed.PackageSources.Add) != 1 {
		t.Errorf("round-trip failed to preserve package sources, got %d", len(parsed.PackageSources.Add))
	}
}

func TestGetUserConfigPath(t *testing.T) {
	path := GetUserConfigPath()
	if path == "" {
		t.Error("GetUserConfigPath() returned empty string")
	}

	// On Windows: %APPDATA%\NuGet\NuGet.Config
	// On Unix: ~/.nuget/NuGet/NuGet.Config
	if !strings.Contains(path, "NuGet") {
		t.Errorf("GetUserConfigPath() = %q, should contain NuGet", path)
	}
}

func TestDefaultPackageSources(t *testing.T) {
	sources := DefaultPackageSources()
	if len(sources) == 0 {
		t.Fatal("DefaultPackageSources() returned empty slice")
	}

	// Should have nuget.org
	found := false
	for _, source := range sources {
		if source.Key == "nuget.org" {
			found = true
			if source.Value != "https://api.nuget.org/v3/index.json" {
				t.Errorf("nuget.org value = %q, want https://api.nuget.org/v3/index.json", source.Value)
			}
			if source.ProtocolVersion != "3" {
				t.Errorf("nuget.org protocolVersion = %q, want 3", source.ProtocolVersion)
			}
		}
	}

	if !found {
		t.Error("DefaultPackageSources() doesn't contain nuget.org")
	}
}

func TestLoadAndSaveNuGetConfig(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := tmpDir + "/NuGet.config"

	// Save config
	config := NewDefaultConfig()
	config.SetConfigValue("testKey", "testValue")

	if err := SaveNuGetConfig(configPath, config); err != nil {
		t.Fatalf("SaveNuGetConfig() error = %v", err)
	}

	// Load it back
	loaded, err := LoadNuGetConfig(configPath)
	if err != nil {
		t.Fatalf("LoadNuGetConfig() error = %v", err)
	}

	if loaded.GetConfigValue("testKey") != "testValue" {
		t.Error("loaded config doesn't contain expected value")
	}
}

func TestParseNuGetConfig_InvalidXML(t *testing.T) {
	xml := `not valid xml`

	_, err := ParseNuGetConfig(strings.NewReader(xml))
	if err == nil {
		t.Error("ParseNuGetConfig() should return error for invalid XML")
	}
}

func TestLoadNuGetConfig_NotFound(t *testing.T) {
	_, err := LoadNuGetConfig("/nonexistent/path/NuGet.config")
	if err == nil {
		t.Error("LoadNuGetConfig() should return error for nonexistent file")
	}
}

func TestSaveNuGetConfig_CreateDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := tmpDir + "/subdir/NuGet.config"

	config := NewDefaultConfig()
	if err := SaveNuGetConfig(configPath, config); err != nil {
		t.Fatalf("SaveNuGetConfig() error = %v", err)
	}

	// Verify directory was created
	if _, err := LoadNuGetConfig(configPath); err != nil {
		t.Errorf("failed to load saved config: %v", err)
	}
}

func TestFindConfigFileFrom(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directory structure with config at the top
	nested := tmpDir + "/a/b/c"
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	configPath := tmpDir + "/NuGet.config"
	if err := SaveNuGetConfig(configPath, NewDefaultConfig()); err != nil {
		t.Fatalf("SaveNuGetConfig() error = %v", err)
	}

	found := FindConfigFileFrom(nested)
	if found != configPath {
		t.Errorf("FindConfigFileFrom() = %q, want %q", found, configPath)
	}
}

func TestDefaultConfigLocations_NotEmpty(t *testing.T) {
	locations := DefaultConfigLocations()

	if len(locations) < 2 {
		t.Errorf("DefaultConfigLocations() returned %d locations, want at least 2", len(locations))
	}

	// Should contain at least one path with NuGet.config
	hasNuGetConfig := false
	for _, loc := range locations {
		if strings.Contains(loc, "NuGet.config") {
			hasNuGetConfig = true
			break
		}
	}

	if !hasNuGetConfig {
		t.Error("DefaultConfigLocations() should contain paths with NuGet.config")
	}
}
