package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSurface = lipgloss.Color("#161b22")
	colorBorder  = lipgloss.Color("#30363d")
	colorMuted   = lipgloss.Color("#484f58")
	colorText    = lipgloss.Color("#e6edf3")
	colorSubtle  = lipgloss.Color("#8b949e")
	colorAccent  = lipgloss.Color("#58a6ff")
	colorGreen   = lipgloss.Color("#3fb950")
	colorYellow  = lipgloss.Color("#d29922")
	colorRed     = lipgloss.Color("#f85149")
	colorPurple  = lipgloss.Color("#bc8cff")
)

func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	listW, detailW := m.panelWidths()

	var list string
	switch m.tab {
	case TabBrowse:
		list = m.renderBrowse(listW)
	case TabInstalled:
		list = m.renderInstalled(listW)
	case TabUpdates:
		list = m.renderUpdates(listW)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, m.renderDetailPanel(detailW))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m *Model) panelWidths() (int, int) {
	detailW := m.width/2 - 2
	if detailW < 24 {
		detailW = 24
	}
	listW := m.width - detailW
	if listW < 24 {
		listW = 24
	}
	return listW, detailW
}

func (m *Model) bodyHeight() int {
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1).
		Render("◈ nupanel")

	names := []string{"Browse", "Installed", "Updates"}
	tabs := make([]string, len(names))
	for i, name := range names {
		style := lipgloss.NewStyle().Foreground(colorSubtle).Padding(0, 1)
		if Tab(i) == m.tab {
			style = style.Foreground(colorAccent).Bold(true).Underline(true)
		}
		tabs[i] = style.Render(name)
	}

	prerelease := "stable only"
	if m.settings.includePrerelease {
		prerelease = "prerelease"
	}
	settings := lipgloss.NewStyle().Foreground(colorMuted).
		Render(fmt.Sprintf("source: %s  ·  %s", m.settings.source, prerelease))

	left := title + " " + strings.Join(tabs, " ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(settings) - 2
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(colorSurface).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottomForeground(colorBorder).
		Render(left + strings.Repeat(" ", gap) + settings)
}

func (m *Model) renderBrowse(w int) string {
	var lines []string
	lines = append(lines, m.search.input.View())
	lines = append(lines, lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", max(1, w-4))))

	switch {
	case m.search.suggestionsOpen:
		lines = append(lines, m.renderSuggestions(w)...)
	case m.search.loading:
		lines = append(lines, m.spin.View()+lipgloss.NewStyle().Foreground(colorSubtle).Render(" Searching..."))
	case m.search.err != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.search.err, w-4)))
	case len(m.search.results) > 0:
		lines = append(lines, m.renderResults(w)...)
	case m.recentsActive():
		lines = append(lines, m.renderRecents(w)...)
	default:
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("Type to search packages"))
	}

	return m.listFrame(w, strings.Join(lines, "\n"))
}

func (m *Model) renderSuggestions(w int) []string {
	var lines []string
	idx := 0
	for _, g := range m.search.suggestions {
		src := g.SourceName
		if src == "" {
			src = g.SourceURL
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render(truncate(src, w-6)))

		for _, id := range g.PackageIDs {
			selected := idx == m.search.suggestionCursor
			prefix := "  "
			style := lipgloss.NewStyle().Foreground(colorText)
			if selected {
				prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
				style = style.Foreground(colorAccent).Bold(true)
			}
			lines = append(lines, prefix+style.Render(truncate(id, w-8)))

			if selected && m.search.expanded != nil && strings.EqualFold(m.search.expanded.packageID, id) {
				for _, v := range m.search.expanded.versions {
					lines = append(lines, lipgloss.NewStyle().Foreground(colorSubtle).Render("     "+v))
				}
			}
			idx++
		}
	}
	hint := "enter search · → versions · alt+enter install newest"
	lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render(hint))
	return lines
}

func (m *Model) renderResults(w int) []string {
	hStyle := lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)
	idW := max(20, w-42)
	lines := []string{
		"  " + padRight(hStyle.Render("Package"), idW+1) +
			padRight(hStyle.Render("Version"), 14) +
			padRight(hStyle.Render("Downloads"), 11) +
			hStyle.Render("Source"),
	}

	visible := m.bodyHeight() - 4
	start, end := window(m.search.cursor, len(m.search.results), visible)
	for i := start; i < end; i++ {
		r := m.search.results[i]
		selected := i == m.search.cursor

		prefix := "  "
		idStyle := lipgloss.NewStyle().Foreground(colorText)
		if selected {
			prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
			idStyle = idStyle.Foreground(colorAccent).Bold(true)
		}

		id := truncate(r.ID, idW-2)
		if r.Verified {
			id += lipgloss.NewStyle().Foreground(colorGreen).Render(" ✓")
		}

		lines = append(lines, prefix+
			padRight(idStyle.Render(id), idW+1)+
			padRight(lipgloss.NewStyle().Foreground(colorSubtle).Render(truncate(r.Version, 12)), 14)+
			padRight(lipgloss.NewStyle().Foreground(colorMuted).Render(formatDownloads(r.TotalDownloads)), 11)+
			lipgloss.NewStyle().Foreground(colorMuted).Render(truncate(r.SourceName, 14)))
	}
	if end < len(m.search.results) {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).
			Render(fmt.Sprintf("  … and %d more", len(m.search.results)-end)))
	}
	return lines
}

func (m *Model) renderRecents(w int) []string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(colorSubtle).Bold(true).Render("Recent searches"))
	for i, q := range m.recentSearches.list() {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(colorText)
		if i == m.search.cursor {
			prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
			style = style.Foreground(colorAccent).Bold(true)
		}
		lines = append(lines, prefix+style.Render(truncate(q, w-6)))
	}

	if m.recentInstalls.len() > 0 {
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().Foreground(colorSubtle).Bold(true).Render("Recent installs"))
		for _, r := range m.recentInstalls.list() {
			lines = append(lines, "  "+
				lipgloss.NewStyle().Foreground(colorText).Render(truncate(r.ID, w-20))+" "+
				lipgloss.NewStyle().Foreground(colorMuted).Render(r.Version))
		}
	}
	return lines
}

func (m *Model) renderInstalled(w int) string {
	var lines []string

	hStyle := lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)
	idW := max(20, w-34)
	lines = append(lines,
		"  "+padRight(hStyle.Render("Package"), idW+1)+
			padRight(hStyle.Render("Declared"), 15)+
			hStyle.Render("Resolved"))
	lines = append(lines, lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", max(1, w-4))))

	switch {
	case m.inst.loading:
		lines = append(lines, m.spin.View()+lipgloss.NewStyle().Foreground(colorSubtle).Render(" Reading project..."))
	case m.inst.err != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.inst.err, w-4)))
	case len(m.inst.packages) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("No package references"))
	default:
		for i, p := range m.inst.packages {
			selected := i == m.inst.cursor

			prefix := "  "
			idStyle := lipgloss.NewStyle().Foreground(colorText)
			if selected {
				prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
				idStyle = idStyle.Foreground(colorAccent).Bold(true)
			}

			id := truncate(p.ID, idW-6)
			if p.Implicit {
				id += lipgloss.NewStyle().Foreground(colorMuted).Render(" (sdk)")
			}

			declared := p.DeclaredVersion
			if declared == "" {
				declared = "-"
			}
			resolved := p.ResolvedVersion
			if resolved == "" {
				resolved = "-"
			}

			lines = append(lines, prefix+
				padRight(idStyle.Render(id), idW+1)+
				padRight(lipgloss.NewStyle().Foreground(colorSubtle).Render(truncate(declared, 13)), 15)+
				lipgloss.NewStyle().Foreground(colorGreen).Render(truncate(resolved, 13)))
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.renderTransitiveSection(w)...)

	return m.listFrame(w, strings.Join(lines, "\n"))
}

func (m *Model) renderTransitiveSection(w int) []string {
	marker := "▸"
	if m.inst.transitiveOpen {
		marker = "▾"
	}
	header := fmt.Sprintf("%s Transitive packages", marker)
	if m.inst.transitiveOpen && len(m.inst.transitive) > 0 {
		header = fmt.Sprintf("%s Transitive packages (%d)", marker, len(m.inst.transitive))
	}
	lines := []string{lipgloss.NewStyle().Foreground(colorSubtle).Bold(true).Render(header)}

	if !m.inst.transitiveOpen {
		return lines
	}

	switch {
	case m.inst.loadingTrans:
		lines = append(lines, m.spin.View()+lipgloss.NewStyle().Foreground(colorSubtle).Render(" Reading dependency graph..."))
	case m.inst.transitiveErr != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.inst.transitiveErr, w-4)))
	case len(m.inst.transitive) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("  none"))
	default:
		for i, tp := range m.inst.transitive {
			selected := len(m.inst.packages)+i == m.inst.cursor

			prefix := "  "
			idStyle := lipgloss.NewStyle().Foreground(colorText)
			if selected {
				prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
				idStyle = idStyle.Foreground(colorAccent).Bold(true)
			}

			via := ""
			if len(tp.RequiredBy) > 0 {
				via = lipgloss.NewStyle().Foreground(colorMuted).
					Render("  via " + truncate(strings.Join(tp.RequiredBy, ", "), w/2))
			}
			lines = append(lines, prefix+
				idStyle.Render(truncate(tp.ID, w/3))+" "+
				lipgloss.NewStyle().Foreground(colorSubtle).Render(tp.Version)+via)
		}
	}
	return lines
}

func (m *Model) renderUpdates(w int) string {
	var lines []string

	hStyle := lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)
	idW := max(20, w-34)
	lines = append(lines,
		"  "+padRight(hStyle.Render("Package"), idW+1)+
			padRight(hStyle.Render("Installed"), 15)+
			hStyle.Render("Latest"))
	lines = append(lines, lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", max(1, w-4))))

	switch {
	case m.updates.loading:
		lines = append(lines, m.spin.View()+lipgloss.NewStyle().Foreground(colorSubtle).Render(" Checking for updates..."))
	case m.updates.err != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.updates.err, w-4)))
	case len(m.updates.candidates) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(colorGreen).Render("Everything is up to date"))
	default:
		for i, c := range m.updates.candidates {
			selected := i == m.updates.cursor

			prefix := "  "
			idStyle := lipgloss.NewStyle().Foreground(colorText)
			if selected {
				prefix = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
				idStyle = idStyle.Foreground(colorAccent).Bold(true)
			}

			lines = append(lines, prefix+
				padRight(idStyle.Render(truncate(c.ID, idW-2)), idW+1)+
				padRight(lipgloss.NewStyle().Foreground(colorSubtle).Render(truncate(c.InstalledVersion, 13)), 15)+
				lipgloss.NewStyle().Foreground(colorPurple).Render(truncate(c.LatestVersion, 13)))
		}
	}

	return m.listFrame(w, strings.Join(lines, "\n"))
}

func (m *Model) renderDetailPanel(w int) string {
	var content string
	switch {
	case m.sel.transitive != nil:
		content = m.renderTransitiveDetail(w)
	case m.sel.pkg != nil:
		content = m.renderPackageDetail(w)
	default:
		content = lipgloss.NewStyle().Foreground(colorMuted).Render("Select a package to see details")
	}

	return lipgloss.NewStyle().
		Width(w).Height(m.bodyHeight()).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(content)
}

func (m *Model) renderTransitiveDetail(w int) string {
	tp := m.sel.transitive
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(tp.ID))
	s.WriteString(" " + lipgloss.NewStyle().Foreground(colorSubtle).Render(tp.Version) + "\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(colorMuted).Render("Brought in by") + "\n")
	if len(tp.RequiredBy) == 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(colorSubtle).Render("  (unknown)") + "\n")
	}
	for _, parent := range tp.RequiredBy {
		s.WriteString(lipgloss.NewStyle().Foreground(colorText).Render("  "+parent) + "\n")
	}

	if len(tp.Chain) > 0 {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(colorMuted).Render("Dependency path") + "\n")
		path := strings.Join(append(append([]string{}, tp.Chain...), tp.ID), " › ")
		s.WriteString(lipgloss.NewStyle().Foreground(colorSubtle).Render(wordWrap(path, w-6)) + "\n")
	}

	return s.String()
}

func (m *Model) renderPackageDetail(w int) string {
	pkg := m.sel.pkg
	var s strings.Builder

	name := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(pkg.ID)
	if pkg.Verified {
		name += " " + lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	}
	s.WriteString(name + "\n")

	s.WriteString(m.renderVersionLine() + "\n")

	tabs := []string{"Details", "Dependencies", "Readme"}
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		style := lipgloss.NewStyle().Foreground(colorMuted)
		if DetailTab(i) == m.sel.detailTab {
			style = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Underline(true)
		}
		rendered[i] = style.Render(t)
	}
	s.WriteString(strings.Join(rendered, "  ") + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", max(1, w-6))) + "\n")

	switch m.sel.detailTab {
	case DetailDetails:
		s.WriteString(m.renderDetailsTab(w))
	case DetailDependencies:
		s.WriteString(m.renderDependenciesTab(w))
	case DetailReadme:
		s.WriteString(m.renderReadmeTab())
	}

	return s.String()
}

// renderVersionLine is the version picker plus action button: the picked
// version against the installed one decides install, update or downgrade.
func (m *Model) renderVersionLine() string {
	pkg := m.sel.pkg

	picked := m.sel.selectedVersion
	if picked == "" {
		picked = "-"
	}
	line := lipgloss.NewStyle().Foreground(colorMuted).Render("Version ") +
		lipgloss.NewStyle().Foreground(colorText).Bold(true).Render(picked)

	if m.sel.loadingVersions {
		line += " " + m.spin.View()
	}

	if pkg.InstalledVersion != "" {
		line += lipgloss.NewStyle().Foreground(colorMuted).Render("  installed ") +
			lipgloss.NewStyle().Foreground(colorGreen).Render(pkg.InstalledVersion)
	}

	if m.sel.selectedVersion != "" {
		action := resolveAction(m.sel.selectedVersion, pkg.InstalledVersion, m.sel.versions)
		buttonColor := colorGreen
		if action == ActionDowngrade {
			buttonColor = colorYellow
		}
		line += "  " + lipgloss.NewStyle().Foreground(buttonColor).Bold(true).
			Render("[ "+action.String()+" ]")
	}

	return line
}

func (m *Model) renderDetailsTab(w int) string {
	var s strings.Builder
	wrap := max(10, w-6)

	label := func(text string) string {
		return lipgloss.NewStyle().Foreground(colorMuted).Render(text)
	}
	value := func(text string) string {
		return lipgloss.NewStyle().Foreground(colorText).Render(text)
	}

	if m.sel.versionsErr != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.sel.versionsErr, wrap)) + "\n")
	}

	if m.sel.loadingMetadata {
		s.WriteString(m.spin.View() + lipgloss.NewStyle().Foreground(colorSubtle).Render(" Loading metadata...") + "\n")
	}
	if m.sel.metadataErr != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(colorRed).Render(wordWrap(m.sel.metadataErr, wrap)) + "\n")
	}

	meta := m.sel.metadata
	description := m.sel.pkg.Description
	authors := strings.Join(m.sel.pkg.Authors, ", ")
	if meta != nil {
		if meta.Description != "" {
			description = meta.Description
		}
		if meta.Authors != "" {
			authors = meta.Authors
		}
	}

	if description != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(colorSubtle).Render(wordWrap(description, wrap)) + "\n\n")
	}
	if authors != "" {
		s.WriteString(label("Authors") + "\n" + value(authors) + "\n\n")
	}

	if meta != nil {
		license := meta.LicenseExpression
		if license == "" {
			license = meta.LicenseURL
		}
		if license != "" {
			s.WriteString(label("License") + "\n" + value(license) + "\n\n")
		}
		if meta.ProjectURL != "" {
			s.WriteString(label("Project") + "\n" +
				lipgloss.NewStyle().Foreground(colorAccent).Render(meta.ProjectURL) + "\n\n")
		}
		if meta.Published != "" {
			s.WriteString(label("Published") + "\n" + value(meta.Published) + "\n\n")
		}
		if meta.Tags != "" {
			s.WriteString(label("Tags") + "\n" +
				lipgloss.NewStyle().Foreground(colorSubtle).Render(wordWrap(meta.Tags, wrap)) + "\n\n")
		}
	}

	if len(m.sel.versions) > 0 {
		s.WriteString(label("Versions") + "\n")
		limit := 8
		for i, v := range m.sel.versions {
			if i >= limit {
				s.WriteString(lipgloss.NewStyle().Foreground(colorMuted).
					Render(fmt.Sprintf("  … and %d more", len(m.sel.versions)-limit)) + "\n")
				break
			}
			marker := "  "
			style := lipgloss.NewStyle().Foreground(colorSubtle)
			if strings.EqualFold(v, m.sel.selectedVersion) {
				marker = lipgloss.NewStyle().Foreground(colorAccent).Render("▶ ")
				style = style.Foreground(colorAccent)
			}
			extra := ""
			if strings.EqualFold(v, m.sel.pkg.InstalledVersion) {
				extra = lipgloss.NewStyle().Foreground(colorGreen).Render(" installed")
			}
			s.WriteString(marker + style.Render(v) + extra + "\n")
		}
	}

	return s.String()
}

func (m *Model) renderDependenciesTab(w int) string {
	meta := m.sel.metadata
	if m.sel.loadingMetadata {
		return m.spin.View() + lipgloss.NewStyle().Foreground(colorSubtle).Render(" Loading metadata...")
	}
	if meta == nil || len(meta.DependencyGroups) == 0 {
		return lipgloss.NewStyle().Foreground(colorMuted).Render("No dependencies")
	}

	var s strings.Builder
	for i, g := range meta.DependencyGroups {
		expanded := m.sel.expandedGroups[g.TargetFramework]
		marker := "▸"
		if expanded {
			marker = "▾"
		}

		fw := g.TargetFramework
		if fw == "" {
			fw = "any framework"
		}
		style := lipgloss.NewStyle().Foreground(colorText).Bold(true)
		if i == m.sel.depCursor {
			style = style.Foreground(colorAccent)
		}
		s.WriteString(style.Render(fmt.Sprintf("%s %s", marker, fw)) +
			lipgloss.NewStyle().Foreground(colorMuted).Render(fmt.Sprintf(" (%d)", len(g.Dependencies))) + "\n")

		if !expanded {
			continue
		}
		if len(g.Dependencies) == 0 {
			s.WriteString(lipgloss.NewStyle().Foreground(colorMuted).Render("    none") + "\n")
		}
		for _, d := range g.Dependencies {
			s.WriteString("    " +
				lipgloss.NewStyle().Foreground(colorSubtle).Render(truncate(d.ID, max(10, w/2))) + " " +
				lipgloss.NewStyle().Foreground(colorMuted).Render(d.Range) + "\n")
		}
	}
	s.WriteString("\n" + lipgloss.NewStyle().Foreground(colorMuted).Render("ctrl+p/n move · ctrl+e expand"))
	return s.String()
}

func (m *Model) renderReadmeTab() string {
	if m.sel.loadingMetadata {
		return m.spin.View() + lipgloss.NewStyle().Foreground(colorSubtle).Render(" Loading readme...")
	}
	if m.sel.metadata == nil || m.sel.metadata.Readme == "" {
		return lipgloss.NewStyle().Foreground(colorMuted).Render("No readme published")
	}
	return m.readmeView.View()
}

func (m *Model) renderFooter() string {
	type kv struct{ k, v string }
	var keys []kv
	switch m.tab {
	case TabBrowse:
		keys = []kv{
			{"↑↓/enter", "pick"},
			{"→", "versions"},
			{"alt+enter", "install"},
			{"ctrl+g", "apply"},
			{"ctrl+d", "detail tab"},
			{"tab", "view"},
			{"esc", "clear"},
		}
	case TabInstalled:
		keys = []kv{
			{"↑↓/enter", "pick"},
			{"t", "transitive"},
			{"g", "apply"},
			{"d", "remove"},
			{"r", "refresh"},
			{"p/s", "prerelease/source"},
			{"/", "search"},
			{"q", "quit"},
		}
	case TabUpdates:
		keys = []kv{
			{"↑↓/enter", "pick"},
			{"u", "update"},
			{"U", "update all"},
			{"g", "apply"},
			{"r", "refresh"},
			{"q", "quit"},
		}
	}

	var parts []string
	for _, pair := range keys {
		k := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(pair.k)
		v := lipgloss.NewStyle().Foreground(colorSubtle).Render(pair.v)
		parts = append(parts, k+" "+v)
	}

	if m.status != "" {
		c := colorGreen
		if m.statusErr {
			c = colorRed
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(c).Render(m.status))
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(colorSurface).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTopForeground(colorBorder).
		Padding(0, 1).
		Render(strings.Join(parts, "  ·  "))
}

func (m *Model) listFrame(w int, content string) string {
	return lipgloss.NewStyle().
		Width(w).Height(m.bodyHeight()).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(content)
}

// window returns the visible [start, end) slice bounds keeping cursor in
// view.
func window(cursor, total, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	if total <= visible {
		return 0, total
	}
	start := cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > total {
		start = total - visible
	}
	return start, start + visible
}

// padRight pads a styled string to the given visible width, measuring
// with lipgloss so ANSI escapes do not count.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, n int) string {
	if n < 2 {
		n = 2
	}
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func wordWrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+len(w)+1 > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}

func formatDownloads(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
