package packaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNuspec_Fields(t *testing.T) {
	nuspec, err := ParseNuspec(strings.NewReader(testNuspec))
	require.NoError(t, err)

	assert.Equal(t, "Shared.Lib", nuspec.Metadata.ID)
	assert.Equal(t, "2.1.0", nuspec.Metadata.Version)
	assert.Equal(t, "Internal shared helpers.", nuspec.Metadata.Description)
	assert.Equal(t, "Example Team, Another Author", nuspec.Metadata.Authors)
	assert.Equal(t, "internal helpers", nuspec.Metadata.Tags)
	assert.Equal(t, `docs\README.md`, nuspec.Metadata.Readme)

	groups := nuspec.DependencyGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, "net8.0", groups[0].TargetFramework)
	require.Len(t, groups[0].Dependencies, 1)
	assert.Equal(t, "Serilog", groups[0].Dependencies[0].ID)
	assert.Equal(t, "[3.1.1, )", groups[0].Dependencies[0].Version)
}

func TestParseNuspec_Invalid(t *testing.T) {
	_, err := ParseNuspec(strings.NewReader("<package><metadata>"))
	assert.Error(t, err)
}

func TestNuspec_Identity_Errors(t *testing.T) {
	noID := `<package><metadata><version>1.0.0</version></metadata></package>`
	nuspec, err := ParseNuspec(strings.NewReader(noID))
	require.NoError(t, err)
	_, err = nuspec.Identity()
	assert.ErrorContains(t, err, "missing package id")

	badVersion := `<package><metadata><id>A</id><version>not.a.version</version></metadata></package>`
	nuspec, err = ParseNuspec(strings.NewReader(badVersion))
	require.NoError(t, err)
	_, err = nuspec.Identity()
	assert.Error(t, err)
}

func TestNuspec_DependencyGroups_LegacyFlat(t *testing.T) {
	legacy := `<package>
  <metadata>
    <id>Old.Pkg</id>
    <version>1.0.0</version>
    <dependencies>
      <dependency id="Newtonsoft.Json" version="6.0.4" />
      <dependency id="Serilog" version="1.5.14" />
    </dependencies>
  </metadata>
</package>`
	nuspec, err := ParseNuspec(strings.NewReader(legacy))
	require.NoError(t, err)

	groups := nuspec.DependencyGroups()
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].TargetFramework)
	assert.Len(t, groups[0].Dependencies, 2)
}

func TestNuspec_DependencyGroups_None(t *testing.T) {
	bare := `<package><metadata><id>A</id><version>1.0.0</version></metadata></package>`
	nuspec, err := ParseNuspec(strings.NewReader(bare))
	require.NoError(t, err)
	assert.Nil(t, nuspec.DependencyGroups())
}

func TestLicenseMetadata_Expression(t *testing.T) {
	fileLicense := `<package>
  <metadata>
    <id>A</id>
    <version>1.0.0</version>
    <license type="file">LICENSE.txt</license>
  </metadata>
</package>`
	nuspec, err := ParseNuspec(strings.NewReader(fileLicense))
	require.NoError(t, err)
	assert.Empty(t, nuspec.Metadata.License.Expression())

	var none *LicenseMetadata
	assert.Empty(t, none.Expression())
}
