package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickVersion_InstalledPrefersResolved(t *testing.T) {
	// Declared "10.*" resolved to 10.2.0; the list's newest entry must not
	// steal the selection from the version that is actually installed.
	got := pickVersion(TabInstalled, "10.2.0", "10.*",
		nil, "", []string{"10.3.0", "10.2.0", "10.1.0"})
	assert.Equal(t, "10.2.0", got)
}

func TestPickVersion_InstalledFallsBackToDeclared(t *testing.T) {
	got := pickVersion(TabInstalled, "", "10.1.0",
		nil, "", []string{"10.3.0", "10.2.0", "10.1.0"})
	assert.Equal(t, "10.1.0", got)
}

func TestPickVersion_InstalledFallsBackToNewest(t *testing.T) {
	// Installed prerelease hidden because prerelease is unchecked.
	got := pickVersion(TabInstalled, "11.0.0-beta.1", "11.0.0-beta.1",
		nil, "", []string{"10.3.0", "10.2.0"})
	assert.Equal(t, "10.3.0", got)
}

func TestPickVersion_InstalledMatchIsCaseInsensitive(t *testing.T) {
	// The differently cased list entry still counts as present, so the
	// selection keeps the installed version instead of jumping to newest.
	got := pickVersion(TabInstalled, "1.0.0-BETA", "",
		nil, "", []string{"1.1.0", "1.0.0-beta"})
	assert.Equal(t, "1.0.0-BETA", got)
}

func TestPickVersion_BrowseTracksLatest(t *testing.T) {
	// No deviation: previous selection was the previous list's head, so
	// the selection auto-advances to the new head.
	got := pickVersion(TabBrowse, "", "",
		[]string{"2.0.0", "1.9.0"}, "2.0.0", []string{"2.1.0", "2.0.0", "1.9.0"})
	assert.Equal(t, "2.1.0", got)
}

func TestPickVersion_BrowseFirstListTracksLatest(t *testing.T) {
	got := pickVersion(TabBrowse, "", "",
		nil, "", []string{"2.1.0", "2.0.0"})
	assert.Equal(t, "2.1.0", got)
}

func TestPickVersion_BrowseDeviationPreserved(t *testing.T) {
	// The user had picked 1.9.0 over the then-latest 2.0.0; the refreshed
	// list still contains it, so the choice survives.
	got := pickVersion(TabBrowse, "", "",
		[]string{"2.0.0", "1.9.0"}, "1.9.0", []string{"2.1.0", "2.0.0", "1.9.0"})
	assert.Equal(t, "1.9.0", got)
}

func TestPickVersion_BrowseDeviationLostOnPruning(t *testing.T) {
	got := pickVersion(TabBrowse, "", "",
		[]string{"2.0.0", "1.9.0"}, "1.9.0", []string{"2.1.0", "2.0.0"})
	assert.Equal(t, "2.1.0", got)
}

func TestPickVersion_UpdatesViewUsesDeviationRule(t *testing.T) {
	got := pickVersion(TabUpdates, "1.0.0", "",
		[]string{"2.0.0", "1.5.0"}, "1.5.0", []string{"2.1.0", "2.0.0", "1.5.0"})
	assert.Equal(t, "1.5.0", got)
}

func TestPickVersion_EmptyList(t *testing.T) {
	got := pickVersion(TabBrowse, "", "",
		[]string{"2.0.0"}, "2.0.0", nil)
	assert.Equal(t, "", got)
}

func TestResolveAction(t *testing.T) {
	list := []string{"3.0.0", "2.0.0", "1.0.0"}

	tests := []struct {
		name      string
		selected  string
		installed string
		want      Action
	}{
		{"not installed", "2.0.0", "", ActionInstall},
		{"newer by position", "3.0.0", "2.0.0", ActionUpdate},
		{"older by position", "1.0.0", "2.0.0", ActionDowngrade},
		{"same version", "2.0.0", "2.0.0", ActionUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAction(tt.selected, tt.installed, list))
		})
	}
}

func TestResolveAction_FallsBackToNumericComparison(t *testing.T) {
	// Installed prerelease is filtered out of the list, so position is
	// meaningless and the structural comparison decides.
	list := []string{"3.0.0", "2.0.0"}

	assert.Equal(t, ActionUpdate, resolveAction("3.0.0", "2.5.0-beta.2", list))
	assert.Equal(t, ActionDowngrade, resolveAction("2.0.0", "2.5.0-beta.2", list))
	// Equal numeric base never labels as a downgrade.
	assert.Equal(t, ActionUpdate, resolveAction("2.0.0", "2.0.0-rc.1", list))
}

func TestCompareNumeric(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.10", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.2", "1.2.0", 0},
		{"2.0.0-beta.1", "2.0.0", 0},
		{"2.0.0-alpha", "1.9.9", 1},
		{"1", "1.0.0.1", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareNumeric(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "Install", ActionInstall.String())
	assert.Equal(t, "Update", ActionUpdate.String())
	assert.Equal(t, "Downgrade", ActionDowngrade.String())
}
