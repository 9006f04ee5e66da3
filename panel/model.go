// Package panel implements the interactive package-manager panel: three
// views (browse, installed, updates) over a host that performs registry
// and project-file I/O.
//
// The panel is a single bubbletea model. Host requests are fire-and-forget
// commands; responses come back as messages and are reconciled against
// whatever the UI currently shows. Responses may arrive out of order or
// for selections the user has abandoned, so the routing layer matches
// every response against current state and silently discards the rest.
// Two bounded LRU caches (version lists and metadata records) short-circuit
// repeat lookups.
package panel

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/host"
	"github.com/willibrandon/nupanel/observability"
)

// Tunables. Timer durations and cache capacities match the panel's
// interaction model: suggestions feel instant, full search waits for a
// typing pause, recent-search insertion waits for a sustained pause.
const (
	versionsCacheCap = 200
	metadataCacheCap = 100

	suggestDebounce   = 150 * time.Millisecond
	fullDebounce      = 300 * time.Millisecond
	recentSearchDelay = 2000 * time.Millisecond

	minQueryLen = 2

	searchTake        = 50
	suggestionTake    = 5
	versionsTake      = 100
	suggestionPreview = 5

	recentSearchLimit  = 10
	recentInstallLimit = 10
)

// Tab is one of the panel's three main views.
type Tab int

const (
	TabBrowse Tab = iota
	TabInstalled
	TabUpdates
)

// DetailTab is the active tab of the detail panel.
type DetailTab int

const (
	DetailDetails DetailTab = iota
	DetailDependencies
	DetailReadme
)

// SearchMode gates the debounced search pipeline.
type SearchMode int

const (
	// SearchModeOff disables automatic searching; enter searches.
	SearchModeOff SearchMode = iota
	// SearchModeFull runs the debounced full search without suggestions.
	SearchModeFull
	// SearchModeQuick runs suggestions and the full search.
	SearchModeQuick
)

// Host is the panel's view of the host process. Handle blocks until the
// host produces its single response, so the panel only calls it from
// commands, never from the update loop.
type Host interface {
	Handle(host.Request) host.Response
	Sources() []host.SourceRef
}

// Config holds panel construction parameters.
type Config struct {
	Host        Host
	ProjectPath string
	SearchMode  SearchMode
	Logger      observability.Logger // nil uses NullLogger
}

// SelectedPackage is the direct selection shown in the detail panel. At
// most one of the panel's direct and transitive selections is set; the
// selection paths enforce that centrally.
type SelectedPackage struct {
	ID string
	// InstalledVersion is the concrete installed version (resolved when a
	// restore ran), empty for plain search results.
	InstalledVersion string
	// DeclaredVersion is the project-file version string, possibly a range
	// or floating pattern. Empty for search results.
	DeclaredVersion string
	// Origin is the view the selection was made in; it decides the
	// version-reconciliation policy when a fresh list arrives.
	Origin Tab

	Description string
	Authors     []string
	IconURL     string
	Verified    bool
}

// pendingTarget is a single-slot marker for an in-flight quick action.
// Setting a new target abandons interest in the previous one.
type pendingTarget struct {
	packageID string
	sourceURL string
}

// RecentInstall is one entry of the recent quick-install list.
type RecentInstall struct {
	ID      string
	Version string
}

// suggestionExpansion is the version preview under one suggestion row.
type suggestionExpansion struct {
	packageID string
	versions  []string
}

type searchState struct {
	input textinput.Model
	// query is the last applied query text; search responses are matched
	// against it to drop slow responses to earlier keystrokes.
	query   string
	mode    SearchMode
	loading bool
	results []host.SearchResult
	cursor  int
	err     string

	suggestions      []host.AutocompleteGroup
	suggestionsOpen  bool
	suggestionCursor int
	expanded         *suggestionExpansion

	// Generation counters invalidate pending debounce timers: a tick
	// carrying a stale generation is ignored. Every keystroke bumps all
	// three; tab switches, query clears, and mode changes bump them too.
	suggestGen int
	fullGen    int
	recentGen  int

	// skipDebounce suppresses the next debounce evaluation, set before
	// programmatic query changes so they do not retrigger the loop.
	skipDebounce bool
}

type installedState struct {
	packages []host.InstalledPackage
	// cursor runs over the direct rows and, when the transitive section
	// is open, continues into the transitive rows.
	cursor  int
	loading bool
	err     string

	transitive      []host.TransitivePackage
	transitiveOpen  bool
	loadingTrans    bool
	transitiveErr   string
	transitiveFresh bool
}

// rowCount is the number of navigable rows in the installed view.
func (s *installedState) rowCount() int {
	n := len(s.packages)
	if s.transitiveOpen {
		n += len(s.transitive)
	}
	return n
}

type updatesState struct {
	candidates []host.UpdateCandidate
	cursor     int
	loading    bool
	err        string
}

type selectionState struct {
	pkg        *SelectedPackage
	transitive *host.TransitivePackage

	versions        []string
	selectedVersion string
	loadingVersions bool
	versionsErr     string

	metadata        *host.Metadata
	metadataVersion string
	loadingMetadata bool
	metadataErr     string

	detailTab DetailTab
	// depCursor and expandedGroups drive the dependencies detail tab:
	// the cursor walks the framework groups, expansion is per group.
	depCursor      int
	expandedGroups map[string]bool
}

type settingsState struct {
	// source is cache.AllSources or one configured source name.
	source            string
	includePrerelease bool
	sources           []host.SourceRef
}

// Model is the panel. All state lives here and is mutated only from the
// update loop; commands touch nothing, they just carry requests out and
// messages back in.
type Model struct {
	host        Host
	logger      observability.Logger
	projectPath string

	tab      Tab
	search   searchState
	inst     installedState
	updates  updatesState
	sel      selectionState
	settings settingsState

	versionsCache *cache.Bounded[[]string]
	metadataCache *cache.Bounded[*host.Metadata]

	// Single-slot pending markers for the two quick actions driven off
	// suggestion rows. The router checks expansion first, then install.
	quickExpand  *pendingTarget
	quickInstall *pendingTarget

	recentSearches *recency[string]
	recentInstalls *recency[RecentInstall]

	spin       spinner.Model
	readmeView viewport.Model
	width      int
	height     int
	status     string
	statusErr  bool
}

// New creates a panel over the given host.
func New(cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	input := textinput.New()
	input.Placeholder = "Search packages"
	input.Prompt = "/ "
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &Model{
		host:        cfg.Host,
		logger:      logger,
		projectPath: cfg.ProjectPath,
		tab:         TabBrowse,
		search: searchState{
			input: input,
			mode:  cfg.SearchMode,
		},
		sel: selectionState{
			expandedGroups: make(map[string]bool),
		},
		settings: settingsState{
			source:  cache.AllSources,
			sources: cfg.Host.Sources(),
		},
		versionsCache:  cache.NewBounded[[]string](versionsCacheCap),
		metadataCache:  cache.NewBounded[*host.Metadata](metadataCacheCap),
		recentSearches: newRecency[string](recentSearchLimit, func(q string) string { return strings.ToLower(q) }),
		recentInstalls: newRecency[RecentInstall](recentInstallLimit, func(r RecentInstall) string { return strings.ToLower(r.ID) }),
		spin:           spin,
		readmeView:     viewport.New(0, 0),
	}
}

// responseMsg carries one host response into the update loop.
type responseMsg struct {
	resp host.Response
}

// requestCmd dispatches a request to the host off the update loop.
func (m *Model) requestCmd(req host.Request) tea.Cmd {
	h := m.host
	return func() tea.Msg {
		return responseMsg{resp: h.Handle(req)}
	}
}

// Init starts the spinner and loads the installed set.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshInstalledCmd())
}

// Update is the single state-transition point for every message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case suggestTickMsg:
		return m, m.onSuggestTick(msg)

	case fullTickMsg:
		return m, m.onFullTick(msg)

	case recentTickMsg:
		m.onRecentTick(msg)
		return m, nil

	case responseMsg:
		return m, m.route(msg.resp)

	case tea.KeyMsg:
		return m, m.onKey(msg)
	}

	return m, nil
}

// requestSource is the host-facing source scope: empty means all sources.
func (m *Model) requestSource() string {
	if m.settings.source == cache.AllSources {
		return ""
	}
	return m.settings.source
}

// scopedSourceRefs returns the refs a search-like request is scoped to,
// nil when every source participates.
func (m *Model) scopedSourceRefs() []host.SourceRef {
	if m.settings.source == cache.AllSources {
		return nil
	}
	for _, ref := range m.settings.sources {
		if strings.EqualFold(ref.Name, m.settings.source) {
			return []host.SourceRef{ref}
		}
	}
	return nil
}

func (m *Model) refreshInstalledCmd() tea.Cmd {
	m.inst.loading = true
	m.inst.err = ""
	return m.requestCmd(host.InstalledRequest{ProjectPath: m.projectPath})
}

func (m *Model) refreshTransitiveCmd() tea.Cmd {
	m.inst.loadingTrans = true
	m.inst.transitiveErr = ""
	return m.requestCmd(host.TransitiveRequest{ProjectPath: m.projectPath})
}

func (m *Model) refreshUpdatesCmd() tea.Cmd {
	m.updates.loading = true
	m.updates.err = ""
	return m.requestCmd(host.UpdatesRequest{
		ProjectPath:       m.projectPath,
		IncludePrerelease: m.settings.includePrerelease,
	})
}

// switchTab changes the active view. Selection state never survives a
// tab switch, and pending debounce timers are invalidated.
func (m *Model) switchTab(tab Tab) tea.Cmd {
	if tab == m.tab {
		return nil
	}
	m.tab = tab
	m.ClearSelection()
	m.bumpSearchGenerations()
	m.search.suggestionsOpen = false
	m.search.expanded = nil
	m.status = ""

	switch tab {
	case TabInstalled:
		return m.refreshInstalledCmd()
	case TabUpdates:
		return m.refreshUpdatesCmd()
	}
	return nil
}

// togglePrerelease flips the prerelease setting and re-resolves the
// selected package's version list and metadata under the new cache keys.
func (m *Model) togglePrerelease() tea.Cmd {
	m.settings.includePrerelease = !m.settings.includePrerelease
	return m.refreshSelectionData()
}

// cycleSource advances the source selector (all, then each source) and
// re-resolves the selection under the new cache keys.
func (m *Model) cycleSource() tea.Cmd {
	names := []string{cache.AllSources}
	for _, ref := range m.settings.sources {
		names = append(names, ref.Name)
	}
	for i, name := range names {
		if name == m.settings.source {
			m.settings.source = names[(i+1)%len(names)]
			return m.refreshSelectionData()
		}
	}
	m.settings.source = cache.AllSources
	return m.refreshSelectionData()
}

func (m *Model) relayout() {
	detailWidth := m.width/2 - 4
	if detailWidth < 20 {
		detailWidth = 20
	}
	detailHeight := m.height - 12
	if detailHeight < 5 {
		detailHeight = 5
	}
	m.readmeView.Width = detailWidth
	m.readmeView.Height = detailHeight
	m.search.input.Width = m.width/2 - 8
}
