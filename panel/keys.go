package panel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/host"
)

// Key layout: tab/shift+tab switch views, ctrl+t and ctrl+o change the
// prerelease and source settings everywhere. The browse view keeps the
// search input live, so its bindings stay off the printable range; the
// installed and updates views use plain letters like a pager would.
//
// Detail-panel bindings are uniform across views: ctrl+d cycles the
// detail tab, ctrl+p/ctrl+n move the version pick (or the dependency
// group cursor when that tab is active), ctrl+e expands a group,
// ctrl+g applies the action button, pgup/pgdn scroll the readme.

func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	// Any keypress retires the status line.
	if m.status != "" {
		m.status = ""
		m.statusErr = false
	}

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "tab":
		return m.switchTab((m.tab + 1) % 3)
	case "shift+tab":
		return m.switchTab((m.tab + 2) % 3)
	case "ctrl+t":
		return m.togglePrerelease()
	case "ctrl+o":
		return m.cycleSource()
	}

	// Detail bindings claim their keys only while a package is selected,
	// so on the browse view the input keeps its editing shortcuts until
	// a selection exists.
	if handled, cmd := m.onDetailKey(msg); handled {
		return cmd
	}

	switch m.tab {
	case TabBrowse:
		return m.onBrowseKey(msg)
	case TabInstalled:
		return m.onInstalledKey(msg)
	case TabUpdates:
		return m.onUpdatesKey(msg)
	}
	return nil
}

func (m *Model) onDetailKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if m.sel.pkg == nil {
		return false, nil
	}
	switch msg.String() {
	case "ctrl+d":
		m.sel.detailTab = (m.sel.detailTab + 1) % 3
		return true, nil
	case "ctrl+p":
		m.detailCursorMove(-1)
		return true, nil
	case "ctrl+n":
		m.detailCursorMove(1)
		return true, nil
	case "ctrl+e":
		m.toggleDepGroup()
		return true, nil
	case "ctrl+g":
		return true, m.applySelectedCmd()
	case "pgup":
		if m.sel.detailTab == DetailReadme {
			m.readmeView.ViewUp()
			return true, nil
		}
	case "pgdown":
		if m.sel.detailTab == DetailReadme {
			m.readmeView.ViewDown()
			return true, nil
		}
	}
	return false, nil
}

func (m *Model) onBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		if m.search.suggestionsOpen {
			m.search.suggestionsOpen = false
			m.search.expanded = nil
			m.quickExpand = nil
			return nil
		}
		if m.sel.pkg != nil || m.sel.transitive != nil {
			m.ClearSelection()
			return nil
		}
		m.clearQuery()
		return nil

	case "up":
		if m.search.suggestionsOpen {
			if m.search.suggestionCursor > 0 {
				m.search.suggestionCursor--
				m.search.expanded = nil
			}
			return nil
		}
		if m.search.cursor > 0 {
			m.search.cursor--
		}
		return nil

	case "down":
		if m.search.suggestionsOpen {
			if m.search.suggestionCursor < suggestionCount(m.search.suggestions)-1 {
				m.search.suggestionCursor++
				m.search.expanded = nil
			}
			return nil
		}
		if m.search.cursor < m.browseRowCount()-1 {
			m.search.cursor++
		}
		return nil

	case "right":
		if m.search.suggestionsOpen {
			return m.expandSuggestionCmd()
		}

	case "alt+enter":
		if m.search.suggestionsOpen {
			return m.quickInstallSuggestionCmd()
		}
		return nil

	case "enter":
		if m.search.suggestionsOpen {
			return m.acceptSuggestionCmd()
		}
		if m.recentsActive() {
			recents := m.recentSearches.list()
			if m.search.cursor < len(recents) {
				query := recents[m.search.cursor]
				m.setQueryProgrammatic(query)
				return m.searchNowCmd(query)
			}
			return nil
		}
		if len(m.search.results) > 0 {
			if m.search.cursor < len(m.search.results) {
				_, cmd := m.selectSearchResult(m.search.results[m.search.cursor])
				return cmd
			}
			return nil
		}
		if query := strings.TrimSpace(m.search.input.Value()); utf8.RuneCountInString(query) >= minQueryLen {
			return m.searchNowCmd(query)
		}
		return nil
	}

	// Everything else edits the query.
	var cmd tea.Cmd
	before := m.search.input.Value()
	m.search.input, cmd = m.search.input.Update(msg)
	if after := m.search.input.Value(); after != before {
		return tea.Batch(cmd, m.onQueryChanged(after))
	}
	return cmd
}

func (m *Model) onInstalledKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "/":
		return m.switchTab(TabBrowse)
	case "esc":
		m.ClearSelection()
	case "up", "k":
		if m.inst.cursor > 0 {
			m.inst.cursor--
		}
	case "down", "j":
		if m.inst.cursor < m.inst.rowCount()-1 {
			m.inst.cursor++
		}
	case "enter":
		return m.selectInstalledRowCmd()
	case "t":
		return m.toggleTransitiveCmd()
	case "d":
		return m.removeSelectedCmd()
	case "g":
		return m.applySelectedCmd()
	case "r":
		if m.inst.transitiveOpen {
			return tea.Batch(m.refreshInstalledCmd(), m.refreshTransitiveCmd())
		}
		return m.refreshInstalledCmd()
	case "p":
		return m.togglePrerelease()
	case "s":
		return m.cycleSource()
	}
	return nil
}

func (m *Model) onUpdatesKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "/":
		return m.switchTab(TabBrowse)
	case "esc":
		m.ClearSelection()
	case "up", "k":
		if m.updates.cursor > 0 {
			m.updates.cursor--
		}
	case "down", "j":
		if m.updates.cursor < len(m.updates.candidates)-1 {
			m.updates.cursor++
		}
	case "enter":
		if m.updates.cursor < len(m.updates.candidates) {
			_, cmd := m.selectUpdate(m.updates.candidates[m.updates.cursor])
			return cmd
		}
	case "u":
		if m.updates.cursor < len(m.updates.candidates) {
			return m.updateCandidateCmd(m.updates.candidates[m.updates.cursor])
		}
	case "U":
		return m.updateAllCmd()
	case "g":
		return m.applySelectedCmd()
	case "r":
		return m.refreshUpdatesCmd()
	case "p":
		return m.togglePrerelease()
	case "s":
		return m.cycleSource()
	}
	return nil
}

// browseRowCount is the height of whichever list the browse cursor is
// currently walking: search results, or recent searches when idle.
func (m *Model) browseRowCount() int {
	if m.recentsActive() {
		return m.recentSearches.len()
	}
	return len(m.search.results)
}

// recentsActive reports whether the browse view is showing the recent
// searches list instead of results.
func (m *Model) recentsActive() bool {
	return strings.TrimSpace(m.search.input.Value()) == "" &&
		len(m.search.results) == 0 && m.recentSearches.len() > 0
}

// suggestionAt resolves a flat index over the suggestion groups to the
// package id and the owning group's source URL.
func (m *Model) suggestionAt(idx int) (string, string, bool) {
	for _, g := range m.search.suggestions {
		if idx < len(g.PackageIDs) {
			return g.PackageIDs[idx], g.SourceURL, true
		}
		idx -= len(g.PackageIDs)
	}
	return "", "", false
}

// acceptSuggestionCmd fills the query from the highlighted suggestion and
// runs the full search immediately; the suggestion loop must not refire
// for the programmatic change.
func (m *Model) acceptSuggestionCmd() tea.Cmd {
	id, _, ok := m.suggestionAt(m.search.suggestionCursor)
	if !ok {
		return nil
	}
	m.setQueryProgrammatic(id)
	return m.searchNowCmd(id)
}

// expandSuggestionCmd toggles the version preview under the highlighted
// suggestion. Opening one requests the version list with the expansion
// marker set; the response populates the preview and the cache.
func (m *Model) expandSuggestionCmd() tea.Cmd {
	id, sourceURL, ok := m.suggestionAt(m.search.suggestionCursor)
	if !ok {
		return nil
	}
	if m.search.expanded != nil && strings.EqualFold(m.search.expanded.packageID, id) {
		m.search.expanded = nil
		m.quickExpand = nil
		return nil
	}
	m.quickExpand = &pendingTarget{packageID: id, sourceURL: sourceURL}
	return m.requestCmd(host.VersionsRequest{
		PackageID:         id,
		Source:            m.requestSource(),
		IncludePrerelease: m.settings.includePrerelease,
		Take:              versionsTake,
	})
}

// quickInstallSuggestionCmd installs the newest version of the highlighted
// suggestion. The version is not known yet, so this requests the list with
// the install marker set; the response synthesizes the install.
func (m *Model) quickInstallSuggestionCmd() tea.Cmd {
	id, sourceURL, ok := m.suggestionAt(m.search.suggestionCursor)
	if !ok {
		return nil
	}
	m.quickInstall = &pendingTarget{packageID: id, sourceURL: sourceURL}
	m.setStatus(fmt.Sprintf("Resolving latest %s", id))
	return m.requestCmd(host.VersionsRequest{
		PackageID:         id,
		Source:            m.requestSource(),
		IncludePrerelease: m.settings.includePrerelease,
		Take:              versionsTake,
	})
}

// selectInstalledRowCmd selects the row under the installed cursor,
// direct or transitive.
func (m *Model) selectInstalledRowCmd() tea.Cmd {
	if m.inst.cursor < len(m.inst.packages) {
		_, cmd := m.selectInstalled(m.inst.packages[m.inst.cursor])
		return cmd
	}
	idx := m.inst.cursor - len(m.inst.packages)
	if m.inst.transitiveOpen && idx < len(m.inst.transitive) {
		m.SelectTransitive(m.inst.transitive[idx])
	}
	return nil
}

// toggleTransitiveCmd opens or closes the transitive section, fetching
// the graph when it opens without fresh data.
func (m *Model) toggleTransitiveCmd() tea.Cmd {
	if m.inst.transitiveOpen {
		m.inst.transitiveOpen = false
		if m.inst.cursor >= m.inst.rowCount() {
			m.inst.cursor = max(0, m.inst.rowCount()-1)
		}
		return nil
	}
	m.inst.transitiveOpen = true
	if !m.inst.transitiveFresh {
		return m.refreshTransitiveCmd()
	}
	return nil
}

// removeSelectedCmd removes the direct package under the cursor. Implicit
// references come from the SDK, not the project file, and transitive rows
// belong to their parents; both are refused with an explanation.
func (m *Model) removeSelectedCmd() tea.Cmd {
	if m.inst.rowCount() == 0 {
		return nil
	}
	if m.inst.cursor >= len(m.inst.packages) {
		m.setError("transitive packages are brought in by a direct reference and cannot be removed here")
		return nil
	}
	p := m.inst.packages[m.inst.cursor]
	if p.Implicit {
		m.setError(fmt.Sprintf("%s is implicit and cannot be removed here", p.ID))
		return nil
	}
	m.setStatus(fmt.Sprintf("Removing %s", p.ID))
	return m.requestCmd(host.RemoveRequest{
		ProjectPath: m.projectPath,
		PackageID:   p.ID,
	})
}

// applySelectedCmd performs the detail panel's action button: install,
// update, or downgrade the selected package at the picked version.
func (m *Model) applySelectedCmd() tea.Cmd {
	pkg := m.sel.pkg
	if pkg == nil || m.sel.selectedVersion == "" {
		return nil
	}
	action := resolveAction(m.sel.selectedVersion, pkg.InstalledVersion, m.sel.versions)
	m.setStatus(fmt.Sprintf("%s %s %s", actionProgress(action), pkg.ID, m.sel.selectedVersion))
	if action == ActionInstall {
		return m.requestCmd(host.InstallRequest{
			ProjectPath: m.projectPath,
			PackageID:   pkg.ID,
			Version:     m.sel.selectedVersion,
		})
	}
	return m.requestCmd(host.UpdateRequest{
		ProjectPath: m.projectPath,
		PackageID:   pkg.ID,
		Version:     m.sel.selectedVersion,
	})
}

func actionProgress(a Action) string {
	switch a {
	case ActionDowngrade:
		return "Downgrading"
	case ActionUpdate:
		return "Updating"
	default:
		return "Installing"
	}
}

// updateCandidateCmd updates one candidate straight to its latest.
func (m *Model) updateCandidateCmd(c host.UpdateCandidate) tea.Cmd {
	m.setStatus(fmt.Sprintf("Updating %s to %s", c.ID, c.LatestVersion))
	return m.requestCmd(host.UpdateRequest{
		ProjectPath: m.projectPath,
		PackageID:   c.ID,
		Version:     c.LatestVersion,
	})
}

// updateAllCmd updates every candidate. The requests run sequentially:
// each one rewrites the project file, so they must not interleave.
func (m *Model) updateAllCmd() tea.Cmd {
	if len(m.updates.candidates) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.updates.candidates))
	for _, c := range m.updates.candidates {
		cmds = append(cmds, m.requestCmd(host.UpdateRequest{
			ProjectPath: m.projectPath,
			PackageID:   c.ID,
			Version:     c.LatestVersion,
		}))
	}
	m.setStatus(fmt.Sprintf("Updating %d packages", len(cmds)))
	return tea.Sequence(cmds...)
}

// detailCursorMove moves the version pick, or the dependency group
// cursor when the dependencies tab is active.
func (m *Model) detailCursorMove(delta int) {
	if m.sel.pkg == nil {
		return
	}
	if m.sel.detailTab == DetailDependencies {
		if m.sel.metadata == nil {
			return
		}
		n := len(m.sel.metadata.DependencyGroups)
		if n == 0 {
			return
		}
		m.sel.depCursor = clamp(m.sel.depCursor+delta, 0, n-1)
		return
	}
	if len(m.sel.versions) == 0 {
		return
	}
	idx := indexOfVersion(m.sel.versions, m.sel.selectedVersion)
	if idx < 0 {
		idx = 0
	} else {
		idx = clamp(idx+delta, 0, len(m.sel.versions)-1)
	}
	m.sel.selectedVersion = m.sel.versions[idx]
}

// toggleDepGroup expands or collapses the framework group under the
// dependency cursor.
func (m *Model) toggleDepGroup() {
	if m.sel.detailTab != DetailDependencies || m.sel.metadata == nil {
		return
	}
	groups := m.sel.metadata.DependencyGroups
	if m.sel.depCursor >= len(groups) {
		return
	}
	fw := groups[m.sel.depCursor].TargetFramework
	m.sel.expandedGroups[fw] = !m.sel.expandedGroups[fw]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
