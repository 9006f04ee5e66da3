// Package config implements NuGet configuration management and parsing.
//
// The panel reads NuGet.config files to discover package sources, their
// protocol versions, and per-source credentials. Config files are resolved
// hierarchically, from the project directory up to the user and machine
// level, matching NuGet.Client behavior.
package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NuGetConfig represents a NuGet.config file
type NuGetConfig struct {
	XMLName                  xml.Name                  `xml:"configuration"`
	PackageSources           *PackageSources           `xml:"packageSources"`
	DisabledPackageSources   *DisabledPackageSources   `xml:"disabledPackageSources,omitempty"`
	Config                   *Section                  `xml:"config"`
	PackageSourceCredentials *PackageSourceCredentials `xml:"packageSourceCredentials"`
}

// DisabledPackageSources contains disabled package source definitions
type DisabledPackageSources struct {
	Add []DisabledPackageSource `xml:"add"`
}

// DisabledPackageSource represents a disabled package source
type DisabledPackageSource struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// PackageSources contains package source definitions
type PackageSources struct {
	Clear bool            `xml:"clear"`
	Add   []PackageSource `xml:"add"`
}

// PackageSource represents a package source
type PackageSource struct {
	Key             string `xml:"key,attr"`
	Value           string `xml:"value,attr"`
	ProtocolVersion string `xml:"protocolVersion,attr,omitempty"`
	Enabled         string `xml:"enabled,attr,omitempty"`
}

// Section contains configuration settings
type Section struct {
	Clear bool   `xml:"clear"`
	Add   []Item `xml:"add"`
}

// Item represents a configuration key-value pair
type Item struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// PackageSourceCredentials contains credentials for sources.
// Each child element is named after the source key, with special characters
// escaped (e.g. spaces become _x0020_).
type PackageSourceCredentials struct {
	Items []SourceCredential `xml:",any"`
}

// SourceCredential represents credentials for a source
type SourceCredential struct {
	XMLName xml.Name
	Add     []Item `xml:"add"`
}

// Credential holds resolved credentials for a package source.
type Credential struct {
	Username string
	Password string
	// IsClearText is true when the password came from ClearTextPassword.
	// Encrypted Password values are Windows DPAPI blobs the panel cannot decode.
	IsClearText bool
}

// LoadNuGetConfig loads a NuGet.config file
func LoadNuGetConfig(path string) (*NuGetConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseNuGetConfig(f)
}

// ParseNuGetConfig parses NuGet.config XML from a reader
func ParseNuGetConfig(r io.Reader) (*NuGetConfig, error) {
	var config NuGetConfig
	decoder := xml.NewDecoder(r)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config XML: %w", err)
	}

	return &config, nil
}

// SaveNuGetConfig saves a NuGet.config file
func SaveNuGetConfig(path string, config *NuGetConfig) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return WriteNuGetConfig(f, config)
}

// WriteNuGetConfig writes NuGet.config XML to a writer
func WriteNuGetConfig(w io.Writer, config *NuGetConfig) error {
	// Write XML declaration
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config XML: %w", err)
	}

	return encoder.Flush()
}

// GetPackageSource gets a package source by key
func (c *NuGetConfig) GetPackageSource(key string) *PackageSource {
	if c.PackageSources == nil {
		return nil
	}

	for i := range c.PackageSources.Add {
		if c.PackageSources.Add[i].Key == key {
			return &c.PackageSources.Add[i]
		}
	}

	return nil
}

// AddPackageSource adds or updates a package source
func (c *NuGetConfig) AddPackageSource(source PackageSource) {
	if c.PackageSources == nil {
		c.PackageSources = &PackageSources{}
	}

	// Check if source exists
	for i := range c.PackageSources.Add {
		if c.PackageSources.Add[i].Key == source.Key {
			// Update existing
			c.PackageSources.Add[i] = source
			return
		}
	}

	// Add new
	c.PackageSources.Add = append(c.PackageSources.Add, source)
}

// RemovePackageSource removes a package source by key
func (c *NuGetConfig) RemovePackageSource(key string) bool {
	if c.PackageSources == nil {
		return false
	}

	for i := range c.PackageSources.Add {
		if c.PackageSources.Add[i].Key == key {
			c.PackageSources.Add = append(
				c.PackageSources.Add[:i],
				c.PackageSources.Add[i+1:]...,
			)
			return true
		}
	}

	return false
}

// GetConfigValue gets a configuration value by key
func (c *NuGetConfig) GetConfigValue(key string) string {
	if c.Config == nil {
		return ""
	}

	for _, item := range c.Config.Add {
		if item.Key == key {
			return item.Value
		}
	}

	return ""
}

// SetConfigValue sets a configuration value
func (c *NuGetConfig) SetConfigValue(key, value string) {
	if c.Config == nil {
		c.Config = &Section{}
	}

	// Check if exists
	for i := range c.Config.Add {
		if c.Config.Add[i].Key == key {
			c.Config.Add[i].Value = value
			return
		}
	}

	// Add new
	c.Config.Add = append(c.Config.Add, Item{Key: key, Value: value})
}

// IsSourceDisabled checks if a source is disabled
func (c *NuGetConfig) IsSourceDisabled(key string) bool {
	if c.DisabledPackageSources == nil {
		return false
	}

	for _, disabled := range c.DisabledPackageSources.Add {
		if disabled.Key == key && disabled.Value == "true" {
			return true
		}
	}

	return false
}

// GetEnabledPackageSources returns all enabled package sources from the config.
// A source is enabled if it's not in the disabledPackageSources section or if its enabled attribute is "true".
func (c *NuGetConfig) GetEnabledPackageSources() []PackageSource {
	if c.PackageSources == nil {
		return []PackageSource{}
	}

	var enabled []PackageSource
	for _, source := range c.PackageSources.Add {
		// Check if explicitly disabled in disabledPackageSources section
		if c.IsSourceDisabled(source.Key) {
			continue
		}

		// Check if disabled via enabled attribute
		if source.Enabled == "false" {
			continue
		}

		enabled = append(enabled, source)
	}

	return enabled
}

// GetCredential resolves credentials for a source by key.
// Element names in packageSourceCredentials escape special characters the
// way NuGet.Client does, so the lookup unescapes before comparing.
func (c *NuGetConfig) GetCredential(sourceKey string) (*Credential, bool) {
	if c.PackageSourceCredentials == nil {
		return nil, false
	}

	for _, item := range c.PackageSourceCredentials.Items {
		if !strings.EqualFold(unescapeElementName(item.XMLName.Local), sourceKey) {
			continue
		}

		cred := &Credential{}
		for _, add := range item.Add {
			switch {
			case strings.EqualFold(add.Key, "Username"):
				cred.Username = add.Value
			case strings.EqualFold(add.Key, "ClearTextPassword"):
				cred.Password = add.Value
				cred.IsClearText = true
			case strings.EqualFold(add.Key, "Password") && !cred.IsClearText:
				cred.Password = add.Value
			}
		}

		if cred.Username == "" && cred.Password == "" {
			return nil, false
		}
		return cred, true
	}

	return nil, false
}

// unescapeElementName reverses the XmlConvert-style escaping NuGet applies
// to source names used as element names (e.g. "_x0020_" for space).
func unescapeElementName(name string) string {
	for {
		start := strings.Index(name, "_x")
		if start < 0 || start+7 > len(name) || name[start+6] != '_' {
			return name
		}
		hex := name[start+2 : start+6]
		var code rune
		if _, err := fmt.Sscanf(hex, "%04x", &code); err != nil {
			return name
		}
		name = name[:start] + string(code) + name[start+7:]
	}
}

// FindConfigFileFrom finds config file starting from specified directory
func FindConfigFileFrom(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, "NuGet.config")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	// Fall back to user config
	return GetUserConfigPath()
}

// GetConfigHierarchy returns all config file paths in the hierarchy
func GetConfigHierarchy(workingDirectory string) []string {
	var paths []string

	// Start directory
	startDir := workingDirectory
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			startDir = "."
		}
	}

	// Walk up directory tree
	dir := startDir
	for {
		// Check for both casings (NuGet.Config and NuGet.config)
		// Prefer the one that actually exists on disk
		configPath := filepath.Join(dir, "NuGet.Config")
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		} else {
			// Try lowercase if capital C doesn't exist
			configPath = filepath.Join(dir, "NuGet.config")
			if _, err := os.Stat(configPath); err == nil {
				paths = append(paths, configPath)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Add user config
	userConfig := GetUserConfigPath()
	paths = append(paths, userConfig)

	// Add machine-wide config (platform-specific)
	machineConfig := getMachineWideConfigPath()
	if machineConfig != "" {
		paths = append(paths, machineConfig)
	}

	return paths
}

// getMachineWideConfigPath returns the machine-wide config path
func getMachineWideConfigPath() string {
	// Platform-specific logic
	if programData := os.Getenv("ProgramData"); programData != "" {
		// Windows
		return filepath.Join(programData, "NuGet", "Config", "NuGet.config")
	}
	// Unix-like systems
	return "/etc/nuget/NuGet.config"
}

// GetEnabledSourcesOrDefault returns enabled package sources from the config hierarchy,
// or default sources if none are configured. This matches NuGet.Client behavior where
// the default nuget.org source is always available as a fallback.
func GetEnabledSourcesOrDefault(startDir string) []PackageSource {
	// Try to find and load config from the hierarchy
	configPath := FindConfigFileFrom(startDir)
	if configPath != "" {
		cfg, err := LoadNuGetConfig(configPath)
		if err == nil {
			sources := cfg.GetEnabledPackageSources()
			if len(sources) > 0 {
				return sources
			}
		}
	}

	// If no sources found in local config, try user config
	userConfigPath := GetUserConfigPath()
	if userConfigPath != "" {
		cfg, err := LoadNuGetConfig(userConfigPath)
		if err == nil {
			sources := cfg.GetEnabledPackageSources()
			if len(sources) > 0 {
				return sources
			}
		}
	}

	// If still no sources found, return default sources
	return DefaultPackageSources()
}
