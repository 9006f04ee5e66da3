package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/host"
)

func TestSelectPackage_FetchesVersionsAndMetadata(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)

	performed, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
		MetadataVersion: "3.1.1",
		InitialVersions: []string{"3.1.1"},
	}, true)
	drain(cmd)

	require.True(t, performed)
	require.Len(t, fh.requests, 2)

	vr, ok := fh.requests[0].(host.VersionsRequest)
	require.True(t, ok)
	assert.Equal(t, "Serilog", vr.PackageID)
	assert.Equal(t, "", vr.Source)
	assert.False(t, vr.IncludePrerelease)
	assert.Equal(t, versionsTake, vr.Take)

	mr, ok := fh.requests[1].(host.MetadataRequest)
	require.True(t, ok)
	assert.Equal(t, "3.1.1", mr.Version)

	// The seeded list keeps the dropdown populated while loading.
	assert.Equal(t, []string{"3.1.1"}, m.sel.versions)
	assert.True(t, m.sel.loadingVersions)
	assert.True(t, m.sel.loadingMetadata)
}

func TestSelectPackage_ReselectIsIdempotent(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)

	performed, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
		InitialVersions: []string{"3.1.1"},
	}, true)
	drain(cmd)
	require.True(t, performed)
	issued := len(fh.requests)

	// Re-click with different case and different options: no state change,
	// no fetch restart.
	performed, cmd = m.SelectPackage(SelectedPackage{ID: "serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "2.0.0",
		InitialVersions: []string{"2.0.0"},
	}, true)
	drain(cmd)

	assert.False(t, performed)
	assert.Len(t, fh.requests, issued)
	assert.Equal(t, "Serilog", m.sel.pkg.ID)
	assert.Equal(t, "3.1.1", m.sel.selectedVersion)
}

func TestSelectPackage_WithoutSkipReapplies(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
	}, true)
	drain(cmd)
	issued := len(fh.requests)

	performed, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "2.0.0",
	}, false)
	drain(cmd)

	assert.True(t, performed)
	assert.Equal(t, "2.0.0", m.sel.selectedVersion)
	assert.Greater(t, len(fh.requests), issued)
}

func TestSelection_MutualExclusivity(t *testing.T) {
	m, _ := newTestModel(SearchModeQuick)

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{}, true)
	drain(cmd)
	assert.NotNil(t, m.sel.pkg)
	assert.Nil(t, m.sel.transitive)

	m.SelectTransitive(host.TransitivePackage{ID: "Serilog.Sinks.File", Version: "5.0.0"})
	assert.Nil(t, m.sel.pkg)
	require.NotNil(t, m.sel.transitive)
	assert.Equal(t, "Serilog.Sinks.File", m.sel.transitive.ID)

	_, cmd = m.SelectPackage(SelectedPackage{ID: "NodaTime", Origin: TabBrowse}, VersionOptions{}, true)
	drain(cmd)
	assert.NotNil(t, m.sel.pkg)
	assert.Nil(t, m.sel.transitive)

	m.ClearSelection()
	assert.Nil(t, m.sel.pkg)
	assert.Nil(t, m.sel.transitive)
}

func TestSelectPackage_VersionsCacheHitSkipsFetch(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)
	m.versionsCache.Set(cache.VersionsKey("Serilog", cache.AllSources, false), []string{"3.1.1", "3.1.0"})

	_, cmd := m.SelectPackage(SelectedPackage{ID: "serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
	}, true)
	drain(cmd)

	assert.Empty(t, fh.versionsRequests())
	assert.Equal(t, []string{"3.1.1", "3.1.0"}, m.sel.versions)
	assert.False(t, m.sel.loadingVersions)
}

func TestSelectPackage_MetadataCacheHitSkipsFetch(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)
	meta := &host.Metadata{ID: "Serilog", Version: "3.1.1", Description: "Structured logging"}
	m.metadataCache.Set(cache.MetadataKey("Serilog", "3.1.1", cache.AllSources), meta)

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
		MetadataVersion: "3.1.1",
	}, true)
	drain(cmd)

	for _, req := range fh.requests {
		_, isMeta := req.(host.MetadataRequest)
		assert.False(t, isMeta, "metadata request issued despite cache hit")
	}
	assert.Same(t, meta, m.sel.metadata)
	assert.False(t, m.sel.loadingMetadata)
}

func TestSelectPackage_EmptyMetadataVersionSkipsMetadata(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{}, true)
	drain(cmd)

	for _, req := range fh.requests {
		_, isMeta := req.(host.MetadataRequest)
		assert.False(t, isMeta)
	}
	assert.False(t, m.sel.loadingMetadata)
}

func TestSelectPackage_ResetsDetailState(t *testing.T) {
	m, _ := newTestModel(SearchModeQuick)

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{}, true)
	drain(cmd)
	m.sel.detailTab = DetailReadme
	m.sel.expandedGroups["net8.0"] = true
	m.sel.depCursor = 2

	_, cmd = m.SelectPackage(SelectedPackage{ID: "NodaTime", Origin: TabBrowse}, VersionOptions{}, true)
	drain(cmd)

	assert.Equal(t, DetailDetails, m.sel.detailTab)
	assert.Empty(t, m.sel.expandedGroups)
	assert.Zero(t, m.sel.depCursor)
}

func TestSelectInstalled_MetadataKeyedByResolvedVersion(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)

	// Floating declaration: metadata must be looked up by what restore
	// actually resolved, not by the pattern.
	_, cmd := m.selectInstalled(host.InstalledPackage{
		ID:              "Dapper",
		DeclaredVersion: "2.*",
		ResolvedVersion: "2.1.35",
	})
	drain(cmd)

	var mr host.MetadataRequest
	found := false
	for _, req := range fh.requests {
		if r, ok := req.(host.MetadataRequest); ok {
			mr = r
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, "2.1.35", mr.Version)
	assert.Equal(t, "2.1.35", m.sel.selectedVersion)
	assert.Equal(t, TabInstalled, m.sel.pkg.Origin)
}

func TestSelectUpdate_SeedsBothVersions(t *testing.T) {
	m, _ := newTestModel(SearchModeQuick)

	_, cmd := m.selectUpdate(host.UpdateCandidate{
		ID:               "Serilog",
		InstalledVersion: "3.0.0",
		LatestVersion:    "3.1.1",
	})
	drain(cmd)

	assert.Equal(t, []string{"3.1.1", "3.0.0"}, m.sel.versions)
	assert.Equal(t, "3.1.1", m.sel.selectedVersion)
	assert.Equal(t, "3.0.0", m.sel.pkg.InstalledVersion)
}

func TestRefreshSelectionData_RefetchesUnderNewKeys(t *testing.T) {
	m, fh := newTestModel(SearchModeQuick)
	m.versionsCache.Set(cache.VersionsKey("Serilog", cache.AllSources, false), []string{"3.1.1"})

	_, cmd := m.SelectPackage(SelectedPackage{ID: "Serilog", Origin: TabBrowse}, VersionOptions{
		SelectedVersion: "3.1.1",
	}, true)
	drain(cmd)
	require.Empty(t, fh.versionsRequests())

	// Toggling prerelease re-keys the cache; the stable-only entry no
	// longer matches, so a fetch goes out.
	drain(m.togglePrerelease())

	reqs := fh.versionsRequests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IncludePrerelease)
	assert.True(t, m.sel.loadingVersions)
}

func TestCycleSource_WrapsThroughAll(t *testing.T) {
	m, _ := newTestModel(SearchModeQuick)

	assert.Equal(t, cache.AllSources, m.settings.source)
	drain(m.cycleSource())
	assert.Equal(t, "nuget.org", m.settings.source)
	drain(m.cycleSource())
	assert.Equal(t, "internal", m.settings.source)
	drain(m.cycleSource())
	assert.Equal(t, cache.AllSources, m.settings.source)
}

func TestRequestSource_AllCollapsesToEmpty(t *testing.T) {
	m, _ := newTestModel(SearchModeQuick)

	assert.Equal(t, "", m.requestSource())
	m.settings.source = "internal"
	assert.Equal(t, "internal", m.requestSource())
}
