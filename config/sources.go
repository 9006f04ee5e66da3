package config

import (
	"path/filepath"
	"strings"

	"github.com/willibrandon/nupanel/auth"
)

// Source is a resolved package source the panel can query.
type Source struct {
	// Name is the source key from NuGet.config, shown in the source selector.
	Name string
	// URL is the feed endpoint.
	URL string
	// ProtocolVersion is 3 for v3 JSON feeds, 2 for legacy OData feeds.
	ProtocolVersion int
	// Credential holds per-source credentials, if configured.
	Credential *Credential
}

// IsV3 reports whether the source speaks the NuGet v3 protocol.
func (s Source) IsV3() bool {
	return s.ProtocolVersion >= 3
}

// IsLocal reports whether the source is a folder feed: a filesystem path
// or file:// URL instead of an HTTP endpoint.
func (s Source) IsLocal() bool {
	u := strings.ToLower(s.URL)
	return !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://")
}

// LocalPath returns the directory of a local source in OS path form.
func (s Source) LocalPath() string {
	path := s.URL
	if len(path) >= len("file://") && strings.EqualFold(path[:len("file://")], "file://") {
		path = path[len("file://"):]
	}
	return filepath.FromSlash(path)
}

// Authenticator returns the authenticator for this source, or nil when no
// credentials are configured. Encrypted passwords are skipped: the panel
// cannot decode DPAPI blobs, and sending them verbatim would only produce
// confusing 401s.
func (s Source) Authenticator() auth.Authenticator {
	if s.Credential == nil {
		return nil
	}
	if s.Credential.Password != "" && !s.Credential.IsClearText {
		return nil
	}
	return auth.NewBasicAuthenticator(s.Credential.Username, s.Credential.Password)
}

// ResolveSources loads the config hierarchy starting at startDir and returns
// the enabled sources with protocol versions and credentials resolved.
// Falls back to nuget.org when no sources are configured.
func ResolveSources(startDir string) []Source {
	configPath := FindConfigFileFrom(startDir)

	var cfg *NuGetConfig
	if configPath != "" {
		if loaded, err := LoadNuGetConfig(configPath); err == nil {
			cfg = loaded
		}
	}

	var packageSources []PackageSource
	if cfg != nil {
		packageSources = cfg.GetEnabledPackageSources()
	}
	if len(packageSources) == 0 {
		packageSources = DefaultPackageSources()
	}

	sources := make([]Source, 0, len(packageSources))
	for _, ps := range packageSources {
		src := Source{
			Name:            ps.Key,
			URL:             ps.Value,
			ProtocolVersion: detectProtocolVersion(ps),
		}
		if cfg != nil {
			if cred, ok := cfg.GetCredential(ps.Key); ok {
				src.Credential = cred
			}
		}
		sources = append(sources, src)
	}

	return sources
}

// detectProtocolVersion resolves the protocol version for a source.
// An explicit protocolVersion attribute wins; otherwise v3 is inferred from
// the .json service index suffix, matching NuGet.Client's detection.
func detectProtocolVersion(ps PackageSource) int {
	switch ps.ProtocolVersion {
	case "3":
		return 3
	case "2":
		return 2
	}
	if strings.HasSuffix(strings.ToLower(ps.Value), ".json") {
		return 3
	}
	return 2
}
