package panel

import (
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/host"
	"github.com/willibrandon/nupanel/observability"
)

// The debounce pipeline never cancels a scheduled tea.Tick; it makes the
// tick inert instead. Every timer carries the generation it was scheduled
// under, and a tick whose generation is no longer current is dropped.
// Keystrokes, tab switches, query clears, and mode changes all bump the
// generations, which is what "cancelling" a pending timer means here.

type suggestTickMsg struct {
	gen   int
	query string
}

type fullTickMsg struct {
	gen   int
	query string
}

type recentTickMsg struct {
	gen   int
	query string
}

func (m *Model) bumpSearchGenerations() {
	m.search.suggestGen++
	m.search.fullGen++
	m.search.recentGen++
}

// onQueryChanged runs after each edit of the search input. It schedules
// the suggestion and full-search timers for the new text, subject to the
// mode and length gates. A pending skipDebounce flag (set by programmatic
// query changes) suppresses exactly one evaluation.
func (m *Model) onQueryChanged(query string) tea.Cmd {
	m.search.query = query
	m.bumpSearchGenerations()

	if m.search.skipDebounce {
		m.search.skipDebounce = false
		return nil
	}

	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLen {
		m.search.suggestionsOpen = false
		m.search.suggestions = nil
		m.search.expanded = nil
		// A search in flight for the longer query will be discarded as
		// stale, so the spinner must not wait for it.
		m.search.loading = false
		return nil
	}

	var cmds []tea.Cmd
	if m.search.mode == SearchModeQuick && m.search.input.Focused() {
		gen := m.search.suggestGen
		cmds = append(cmds, tea.Tick(suggestDebounce, func(time.Time) tea.Msg {
			return suggestTickMsg{gen: gen, query: query}
		}))
	}
	if m.search.mode != SearchModeOff {
		gen := m.search.fullGen
		cmds = append(cmds, tea.Tick(fullDebounce, func(time.Time) tea.Msg {
			return fullTickMsg{gen: gen, query: query}
		}))
		// The recent-search insertion timer is anchored to the keystroke,
		// not to the search response, so a settled query is recorded a
		// fixed pause after typing stops.
		cmds = append(cmds, m.scheduleRecentSearch(strings.TrimSpace(query)))
	}
	return tea.Batch(cmds...)
}

// setQueryProgrammatic fills the search input without retriggering the
// suggestion loop, for suggestion and recent-search clicks. The skip flag
// is set just before the change and consumed by the debounce evaluation,
// which still bumps the generations so earlier pending timers die.
func (m *Model) setQueryProgrammatic(query string) {
	m.search.skipDebounce = true
	m.search.input.SetValue(query)
	m.search.input.CursorEnd()
	_ = m.onQueryChanged(query)
	m.search.suggestionsOpen = false
	m.search.expanded = nil
}

// onSuggestTick fires the autocomplete request if the timer is still
// current, suggestions are still in play, and the input holds focus.
func (m *Model) onSuggestTick(msg suggestTickMsg) tea.Cmd {
	if msg.gen != m.search.suggestGen || m.search.mode != SearchModeQuick || !m.search.input.Focused() {
		return nil
	}
	observability.DebounceFiresTotal.WithLabelValues("suggestion").Inc()
	return m.requestCmd(host.AutocompleteRequest{
		Query:             msg.query,
		Sources:           m.scopedSourceRefs(),
		IncludePrerelease: m.settings.includePrerelease,
		Take:              suggestionTake,
	})
}

// onFullTick fires the full search request if the timer is still current.
func (m *Model) onFullTick(msg fullTickMsg) tea.Cmd {
	if msg.gen != m.search.fullGen {
		return nil
	}
	observability.DebounceFiresTotal.WithLabelValues("full").Inc()
	return m.searchNowCmd(msg.query)
}

// searchNowCmd issues a full search immediately, outside any debounce.
func (m *Model) searchNowCmd(query string) tea.Cmd {
	m.search.loading = true
	m.search.err = ""
	return m.requestCmd(host.SearchRequest{
		Query:             query,
		Sources:           m.scopedSourceRefs(),
		IncludePrerelease: m.settings.includePrerelease,
		Take:              searchTake,
	})
}

// scheduleRecentSearch arms the recent-search insertion timer under the
// current generation; any further keystroke bumps the generation and so
// cancels it.
func (m *Model) scheduleRecentSearch(query string) tea.Cmd {
	gen := m.search.recentGen
	return tea.Tick(recentSearchDelay, func(time.Time) tea.Msg {
		return recentTickMsg{gen: gen, query: query}
	})
}

// onRecentTick records the query once typing has settled.
func (m *Model) onRecentTick(msg recentTickMsg) {
	if msg.gen != m.search.recentGen {
		return
	}
	observability.DebounceFiresTotal.WithLabelValues("recent").Inc()
	m.recentSearches.add(msg.query)
}

// clearQuery empties the input and cancels every pending timer.
func (m *Model) clearQuery() {
	m.search.input.SetValue("")
	m.search.query = ""
	m.bumpSearchGenerations()
	m.search.suggestionsOpen = false
	m.search.suggestions = nil
	m.search.expanded = nil
	m.search.results = nil
	m.search.err = ""
	m.search.loading = false
	m.search.cursor = 0
}
