package panel

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/host"
	"github.com/willibrandon/nupanel/observability"
)

// route dispatches one host response against current UI state. Responses
// that no longer correspond to anything on screen are discarded here;
// nothing downstream ever sees them. There are no request tokens in the
// protocol, so all correlation is by package id and query text.
func (m *Model) route(resp host.Response) tea.Cmd {
	switch r := resp.(type) {
	case host.VersionsResponse:
		return m.routeVersions(r)
	case host.SearchResponse:
		m.routeSearch(r)
	case host.AutocompleteResponse:
		m.routeAutocomplete(r)
	case host.MetadataResponse:
		m.routeMetadata(r)
	case host.InstalledResponse:
		m.routeInstalled(r)
	case host.TransitiveResponse:
		m.routeTransitive(r)
	case host.UpdatesResponse:
		m.routeUpdates(r)
	case host.InstallResponse:
		return m.routeMutation(r.Success, r.Message)
	case host.UpdateResponse:
		return m.routeMutation(r.Success, r.Message)
	case host.RemoveResponse:
		return m.routeMutation(r.Success, r.Message)
	}
	return nil
}

// routeVersions applies the marker precedence: a pending quick-search
// expansion wins, then a pending quick-install, then the selected
// package. Anything else is a response to a selection the user already
// abandoned.
func (m *Model) routeVersions(r host.VersionsResponse) tea.Cmd {
	if m.quickExpand != nil && strings.EqualFold(m.quickExpand.packageID, r.PackageID) {
		m.quickExpand = nil
		if r.Err != "" {
			m.setError(r.Err)
			return nil
		}
		preview := r.Versions
		if len(preview) > suggestionPreview {
			preview = preview[:suggestionPreview]
		}
		m.search.expanded = &suggestionExpansion{packageID: r.PackageID, versions: preview}
		m.versionsCache.Set(m.versionsKeyFor(r.PackageID), r.Versions)
		return nil
	}

	if m.quickInstall != nil && strings.EqualFold(m.quickInstall.packageID, r.PackageID) {
		m.quickInstall = nil
		if r.Err != "" {
			m.setError(r.Err)
			return nil
		}
		if len(r.Versions) == 0 {
			m.setError(fmt.Sprintf("no versions available for %s", r.PackageID))
			return nil
		}
		version := r.Versions[0]
		m.recentInstalls.add(RecentInstall{ID: r.PackageID, Version: version})
		m.search.suggestionsOpen = false
		m.search.expanded = nil
		m.setStatus(fmt.Sprintf("Installing %s %s", r.PackageID, version))
		return m.requestCmd(host.InstallRequest{
			ProjectPath: m.projectPath,
			PackageID:   r.PackageID,
			Version:     version,
		})
	}

	if m.sel.pkg != nil && strings.EqualFold(m.sel.pkg.ID, r.PackageID) {
		if r.Err != "" {
			m.sel.loadingVersions = false
			m.sel.versionsErr = r.Err
			return nil
		}
		m.versionsCache.Set(m.versionsKeyFor(r.PackageID), r.Versions)
		m.applyVersionList(r.Versions)
		return nil
	}

	observability.StaleResponsesTotal.WithLabelValues("versions").Inc()
	m.logger.Debug("Discarding stale version list for {PackageID}", r.PackageID)
	return nil
}

// applyVersionList installs a fresh newest-first list for the current
// selection and reconciles the selected version against it.
func (m *Model) applyVersionList(versions []string) {
	prevList := m.sel.versions
	prevSelected := m.sel.selectedVersion

	m.sel.versions = versions
	m.sel.loadingVersions = false
	m.sel.versionsErr = ""
	m.sel.selectedVersion = pickVersion(
		m.sel.pkg.Origin,
		m.sel.pkg.InstalledVersion,
		m.sel.pkg.DeclaredVersion,
		prevList,
		prevSelected,
		versions,
	)
}

// routeSearch drops responses whose query no longer matches the input: a
// slow response to an early keystroke must not clobber results already
// rendered for a later one. An untagged response always applies.
func (m *Model) routeSearch(r host.SearchResponse) {
	if r.Query != "" && !queriesMatch(r.Query, m.search.query) {
		observability.StaleResponsesTotal.WithLabelValues("search").Inc()
		return
	}

	m.search.loading = false
	if r.Err != "" {
		m.search.err = r.Err
		return
	}
	m.search.err = ""
	m.search.results = r.Results
	m.search.cursor = 0
}

func (m *Model) routeAutocomplete(r host.AutocompleteResponse) {
	if !queriesMatch(r.Query, m.search.query) {
		observability.StaleResponsesTotal.WithLabelValues("autocomplete").Inc()
		return
	}
	if r.Err != "" {
		// Suggestions are decorative; a failed lookup just closes the list.
		m.search.suggestions = nil
		m.search.suggestionsOpen = false
		return
	}

	m.search.suggestions = r.Groups
	m.search.suggestionCursor = 0
	m.search.expanded = nil
	m.search.suggestionsOpen = m.search.mode == SearchModeQuick &&
		m.search.input.Focused() && suggestionCount(r.Groups) > 0
}

func (m *Model) routeMetadata(r host.MetadataResponse) {
	if m.sel.pkg == nil ||
		!strings.EqualFold(m.sel.pkg.ID, r.PackageID) ||
		!strings.EqualFold(m.sel.metadataVersion, r.Version) {
		observability.StaleResponsesTotal.WithLabelValues("metadata").Inc()
		m.logger.Debug("Discarding stale metadata for {PackageID} {Version}", r.PackageID, r.Version)
		return
	}

	if r.Err != "" {
		m.sel.loadingMetadata = false
		m.sel.metadataErr = r.Err
		return
	}

	m.metadataCache.Set(cache.MetadataKey(r.PackageID, r.Version, m.settings.source), r.Metadata)
	m.sel.metadata = r.Metadata
	m.sel.loadingMetadata = false
	m.sel.metadataErr = ""
	if r.Metadata != nil {
		m.readmeView.SetContent(r.Metadata.Readme)
		m.readmeView.GotoTop()
	}
}

func (m *Model) routeInstalled(r host.InstalledResponse) {
	m.inst.loading = false
	if r.Err != "" {
		m.inst.err = r.Err
		return
	}
	m.inst.err = ""
	m.inst.packages = r.Packages
	if m.inst.cursor >= m.inst.rowCount() {
		m.inst.cursor = max(0, m.inst.rowCount()-1)
	}
}

func (m *Model) routeTransitive(r host.TransitiveResponse) {
	m.inst.loadingTrans = false
	if r.Err != "" {
		m.inst.transitiveErr = r.Err
		return
	}
	m.inst.transitiveErr = ""
	m.inst.transitive = r.Packages
	m.inst.transitiveFresh = true
	if m.inst.cursor >= m.inst.rowCount() {
		m.inst.cursor = max(0, m.inst.rowCount()-1)
	}
}

func (m *Model) routeUpdates(r host.UpdatesResponse) {
	m.updates.loading = false
	if r.Err != "" {
		m.updates.err = r.Err
		return
	}
	m.updates.err = ""
	m.updates.candidates = r.Candidates
	if m.updates.cursor >= len(r.Candidates) {
		m.updates.cursor = max(0, len(r.Candidates)-1)
	}
}

// routeMutation surfaces the outcome inline. Success refreshes the
// installed set, the transitive section when open, and the updates view
// when active. Failure changes nothing beyond the status line: cached
// data stays valid because nothing was written.
func (m *Model) routeMutation(success bool, message string) tea.Cmd {
	if !success {
		m.setError(message)
		return nil
	}
	m.setStatus(message)

	cmds := []tea.Cmd{m.refreshInstalledCmd()}
	if m.inst.transitiveOpen {
		cmds = append(cmds, m.refreshTransitiveCmd())
	} else {
		// The graph changed; a closed section refetches when reopened.
		m.inst.transitiveFresh = false
	}
	if m.tab == TabUpdates {
		cmds = append(cmds, m.refreshUpdatesCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) versionsKeyFor(packageID string) string {
	return cache.VersionsKey(packageID, m.settings.source, m.settings.includePrerelease)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func queriesMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func suggestionCount(groups []host.AutocompleteGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.PackageIDs)
	}
	return n
}
