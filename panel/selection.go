package panel

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/host"
	"github.com/willibrandon/nupanel/observability"
)

// VersionOptions supplies the three version values a selection needs.
// The call sites differ: search results and installed packages display
// their own version, but metadata for an installed package must be looked
// up by its resolved version (a floating declaration like "10.*" is not a
// fetchable version), and update candidates seed the dropdown with both
// sides of the pair.
type VersionOptions struct {
	// SelectedVersion is the version initially shown in the dropdown.
	SelectedVersion string
	// MetadataVersion keys the metadata lookup. Empty skips metadata.
	MetadataVersion string
	// InitialVersions seeds the dropdown while the full list is in flight
	// so it never renders empty.
	InitialVersions []string
}

// SelectPackage makes pkg the direct selection and resolves its version
// list and metadata, cache-first. With skipIfSelected, reselecting the
// already-selected package id (case-insensitive) is a no-op returning
// false: re-clicks must not restart in-flight fetches or flicker the
// detail panel.
//
// Selecting a direct package clears any transitive selection.
func (m *Model) SelectPackage(pkg SelectedPackage, opts VersionOptions, skipIfSelected bool) (bool, tea.Cmd) {
	if skipIfSelected && m.sel.pkg != nil && strings.EqualFold(m.sel.pkg.ID, pkg.ID) {
		return false, nil
	}

	m.sel.pkg = &pkg
	m.sel.transitive = nil
	m.sel.selectedVersion = opts.SelectedVersion
	m.sel.detailTab = DetailDetails
	m.sel.depCursor = 0
	m.sel.expandedGroups = make(map[string]bool)
	m.sel.versionsErr = ""
	m.sel.metadataErr = ""
	m.sel.metadata = nil
	m.readmeView.GotoTop()

	var cmds []tea.Cmd

	versionsKey := cache.VersionsKey(pkg.ID, m.settings.source, m.settings.includePrerelease)
	if versions, ok := m.versionsCache.Get(versionsKey); ok {
		observability.CacheHitsTotal.WithLabelValues("versions").Inc()
		m.sel.versions = versions
		m.sel.loadingVersions = false
	} else {
		observability.CacheMissesTotal.WithLabelValues("versions").Inc()
		m.sel.versions = opts.InitialVersions
		m.sel.loadingVersions = true
		cmds = append(cmds, m.requestCmd(host.VersionsRequest{
			PackageID:         pkg.ID,
			Source:            m.requestSource(),
			IncludePrerelease: m.settings.includePrerelease,
			Take:              versionsTake,
		}))
	}

	m.sel.metadataVersion = opts.MetadataVersion
	if opts.MetadataVersion != "" {
		metadataKey := cache.MetadataKey(pkg.ID, opts.MetadataVersion, m.settings.source)
		if metadata, ok := m.metadataCache.Get(metadataKey); ok {
			observability.CacheHitsTotal.WithLabelValues("metadata").Inc()
			m.sel.metadata = metadata
			m.sel.loadingMetadata = false
		} else {
			observability.CacheMissesTotal.WithLabelValues("metadata").Inc()
			m.sel.loadingMetadata = true
			cmds = append(cmds, m.requestCmd(host.MetadataRequest{
				PackageID: pkg.ID,
				Version:   opts.MetadataVersion,
				Source:    m.requestSource(),
			}))
		}
	} else {
		m.sel.loadingMetadata = false
	}

	return true, tea.Batch(cmds...)
}

// SelectTransitive makes tp the transitive selection, clearing any direct
// selection. Transitive rows carry their data already; nothing is fetched.
func (m *Model) SelectTransitive(tp host.TransitivePackage) {
	m.sel.transitive = &tp
	m.sel.pkg = nil
	m.sel.versions = nil
	m.sel.selectedVersion = ""
	m.sel.loadingVersions = false
	m.sel.metadata = nil
	m.sel.loadingMetadata = false
	m.sel.detailTab = DetailDetails
	m.sel.depCursor = 0
	m.sel.expandedGroups = make(map[string]bool)
}

// ClearSelection clears both the direct and transitive selections.
func (m *Model) ClearSelection() {
	m.sel = selectionState{expandedGroups: make(map[string]bool)}
}

// selectSearchResult selects a browse row.
func (m *Model) selectSearchResult(r host.SearchResult) (bool, tea.Cmd) {
	return m.SelectPackage(SelectedPackage{
		ID:          r.ID,
		Origin:      TabBrowse,
		Description: r.Description,
		Authors:     r.Authors,
		IconURL:     r.IconURL,
		Verified:    r.Verified,
	}, VersionOptions{
		SelectedVersion: r.Version,
		MetadataVersion: r.Version,
		InitialVersions: []string{r.Version},
	}, true)
}

// selectInstalled selects an installed row. Metadata is keyed by the
// resolved version so floating and range declarations resolve to a real
// record; display falls back to the declared string before a restore.
func (m *Model) selectInstalled(p host.InstalledPackage) (bool, tea.Cmd) {
	display := p.ResolvedVersion
	if display == "" {
		display = p.DeclaredVersion
	}
	metadataVersion := p.ResolvedVersion
	if metadataVersion == "" {
		metadataVersion = p.DeclaredVersion
	}

	var initial []string
	if display != "" {
		initial = []string{display}
	}

	return m.SelectPackage(SelectedPackage{
		ID:               p.ID,
		InstalledVersion: p.ResolvedVersion,
		DeclaredVersion:  p.DeclaredVersion,
		Origin:           TabInstalled,
	}, VersionOptions{
		SelectedVersion: display,
		MetadataVersion: metadataVersion,
		InitialVersions: initial,
	}, true)
}

// selectUpdate selects an update-candidate row, seeding the dropdown with
// both sides of the pair so latest and installed are visible immediately.
func (m *Model) selectUpdate(c host.UpdateCandidate) (bool, tea.Cmd) {
	return m.SelectPackage(SelectedPackage{
		ID:               c.ID,
		InstalledVersion: c.InstalledVersion,
		Origin:           TabUpdates,
	}, VersionOptions{
		SelectedVersion: c.LatestVersion,
		MetadataVersion: c.LatestVersion,
		InitialVersions: []string{c.LatestVersion, c.InstalledVersion},
	}, true)
}

// refreshSelectionData re-resolves the selected package's version list and
// metadata after a settings change re-keyed both caches. Cache-first like
// the initial selection, but the detail tab and expanded groups survive.
func (m *Model) refreshSelectionData() tea.Cmd {
	pkg := m.sel.pkg
	if pkg == nil {
		return nil
	}

	var cmds []tea.Cmd

	versionsKey := cache.VersionsKey(pkg.ID, m.settings.source, m.settings.includePrerelease)
	if versions, ok := m.versionsCache.Get(versionsKey); ok {
		observability.CacheHitsTotal.WithLabelValues("versions").Inc()
		m.applyVersionList(versions)
	} else {
		observability.CacheMissesTotal.WithLabelValues("versions").Inc()
		m.sel.loadingVersions = true
		m.sel.versionsErr = ""
		cmds = append(cmds, m.requestCmd(host.VersionsRequest{
			PackageID:         pkg.ID,
			Source:            m.requestSource(),
			IncludePrerelease: m.settings.includePrerelease,
			Take:              versionsTake,
		}))
	}

	if m.sel.metadataVersion != "" {
		metadataKey := cache.MetadataKey(pkg.ID, m.sel.metadataVersion, m.settings.source)
		if metadata, ok := m.metadataCache.Get(metadataKey); ok {
			observability.CacheHitsTotal.WithLabelValues("metadata").Inc()
			m.sel.metadata = metadata
			m.sel.loadingMetadata = false
			m.sel.metadataErr = ""
		} else {
			observability.CacheMissesTotal.WithLabelValues("metadata").Inc()
			m.sel.loadingMetadata = true
			m.sel.metadataErr = ""
			cmds = append(cmds, m.requestCmd(host.MetadataRequest{
				PackageID: pkg.ID,
				Version:   m.sel.metadataVersion,
				Source:    m.requestSource(),
			}))
		}
	}

	return tea.Batch(cmds...)
}
