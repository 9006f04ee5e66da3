package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetsJSON = `{
  "version": 3,
  "targets": {
    "net8.0": {
      "Microsoft.Extensions.Logging/8.0.0": {
        "type": "package",
        "dependencies": {
          "Microsoft.Extensions.DependencyInjection": "8.0.0",
          "Microsoft.Extensions.Logging.Abstractions": "8.0.0"
        }
      },
      "Microsoft.Extensions.DependencyInjection/8.0.0": {
        "type": "package",
        "dependencies": {
          "Microsoft.Extensions.DependencyInjection.Abstractions": "8.0.0"
        }
      },
      "Microsoft.Extensions.DependencyInjection.Abstractions/8.0.0": {
        "type": "package"
      },
      "Microsoft.Extensions.Logging.Abstractions/8.0.0": {
        "type": "package",
        "dependencies": {
          "Microsoft.Extensions.DependencyInjection.Abstractions": "8.0.0"
        }
      },
      "Newtonsoft.Json/13.0.3": {
        "type": "package"
      }
    }
  },
  "libraries": {
    "Newtonsoft.Json/13.0.3": {
      "type": "package",
      "path": "newtonsoft.json/13.0.3"
    }
  },
  "projectFileDependencyGroups": {
    "net8.0": [
      "Microsoft.Extensions.Logging >= 8.0.0",
      "Newtonsoft.Json >= 13.0.3"
    ]
  },
  "project": {
    "version": "1.0.0",
    "restore": {
      "projectName": "TestApp"
    }
  }
}`

func writeAssetsFile(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "project.assets.json")
	require.NoError(t, os.WriteFile(path, []byte(assetsJSON), 0644))
	return path
}

func TestLoadAssetsFile(t *testing.T) {
	path := writeAssetsFile(t)

	af, err := LoadAssetsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, af.Version)
	assert.Equal(t, "TestApp", af.Project.Restore.ProjectName)
	assert.Len(t, af.Targets["net8.0"], 5)
}

func TestLoadAssetsFile_NotFound(t *testing.T) {
	_, err := LoadAssetsFile("/nonexistent/project.assets.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read assets file")
}

func TestLoadAssetsFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "project.assets.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := LoadAssetsFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse assets file")
}

func TestAssetsPath(t *testing.T) {
	got := AssetsPath(filepath.Join("src", "App", "App.csproj"))
	assert.Equal(t, filepath.Join("src", "App", "obj", "project.assets.json"), got)
}

func TestAssetsFile_Framework(t *testing.T) {
	af := &AssetsFile{
		Targets: map[string]map[string]TargetLibrary{
			"net8.0":         {},
			"net8.0/win-x64": {},
			"netstandard2.0": {},
		},
	}

	assert.Equal(t, "net8.0", af.Framework("net8.0"))
	assert.Equal(t, "netstandard2.0", af.Framework("NETSTANDARD2.0"))

	// Unknown preference falls back to first sorted target
	assert.Equal(t, "net8.0", af.Framework("net6.0"))

	// Older SDKs key targets by the full framework name.
	legacy := &AssetsFile{
		Targets: map[string]map[string]TargetLibrary{
			".NETCoreApp,Version=v8.0": {},
		},
	}
	assert.Equal(t, ".NETCoreApp,Version=v8.0", legacy.Framework("net8.0"))

	single := &AssetsFile{
		Targets: map[string]map[string]TargetLibrary{"net7.0": {}},
	}
	assert.Equal(t, "net7.0", single.Framework(""))

	empty := &AssetsFile{}
	assert.Equal(t, "", empty.Framework("net8.0"))
}

func TestAssetsFile_ResolvedVersion(t *testing.T) {
	path := writeAssetsFile(t)
	af, err := LoadAssetsFile(path)
	require.NoError(t, err)

	version, ok := af.ResolvedVersion("net8.0", "newtonsoft.json")
	assert.True(t, ok)
	assert.Equal(t, "13.0.3", version)

	_, ok = af.ResolvedVersion("net8.0", "Missing.Package")
	assert.False(t, ok)

	_, ok = af.ResolvedVersion("net48", "Newtonsoft.Json")
	assert.False(t, ok)
}

func TestAssetsFile_ResolvedVersions(t *testing.T) {
	path := writeAssetsFile(t)
	af, err := LoadAssetsFile(path)
	require.NoError(t, err)

	resolved := af.ResolvedVersions("net8.0")
	assert.Len(t, resolved, 5)
	assert.Equal(t, "13.0.3", resolved["newtonsoft.json"])
	assert.Equal(t, "8.0.0", resolved["microsoft.extensions.logging"])
}

func TestAssetsFile_TransitivePackages(t *testing.T) {
	path := writeAssetsFile(t)
	af, err := LoadAssetsFile(path)
	require.NoError(t, err)

	transitive := af.TransitivePackages("net8.0", []string{"Microsoft.Extensions.Logging", "Newtonsoft.Json"})
	require.Len(t, transitive, 3)

	di := transitive[0]
	assert.Equal(t, "Microsoft.Extensions.DependencyInjection", di.ID)
	assert.Equal(t, "8.0.0", di.Version)
	assert.Equal(t, []string{"Microsoft.Extensions.Logging"}, di.RequiredBy)
	assert.Equal(t, []string{"Microsoft.Extensions.Logging", "Microsoft.Extensions.DependencyInjection"}, di.Chain)

	dia := transitive[1]
	assert.Equal(t, "Microsoft.Extensions.DependencyInjection.Abstractions", dia.ID)
	assert.Equal(t, []string{"Microsoft.Extensions.Logging"}, dia.RequiredBy)
	// BFS discovers the shortest chain through DependencyInjection first
	assert.Equal(t, []string{
		"Microsoft.Extensions.Logging",
		"Microsoft.Extensions.DependencyInjection",
		"Microsoft.Extensions.DependencyInjection.Abstractions",
	}, dia.Chain)

	la := transitive[2]
	assert.Equal(t, "Microsoft.Extensions.Logging.Abstractions", la.ID)
	assert.Equal(t, []string{"Microsoft.Extensions.Logging"}, la.RequiredBy)
}

func TestAssetsFile_TransitivePackages_CaseInsensitiveDirect(t *testing.T) {
	path := writeAssetsFile(t)
	af, err := LoadAssetsFile(path)
	require.NoError(t, err)

	transitive := af.TransitivePackages("net8.0", []string{"MICROSOFT.EXTENSIONS.LOGGING", "newtonsoft.json"})
	assert.Len(t, transitive, 3)
}

func TestAssetsFile_TransitivePackages_NoDirect(t *testing.T) {
	path := writeAssetsFile(t)
	af, err := LoadAssetsFile(path)
	require.NoError(t, err)

	assert.Empty(t, af.TransitivePackages("net8.0", nil))
	assert.Empty(t, af.TransitivePackages("net48", []string{"Newtonsoft.Json"}))
}

func TestAssetsFile_TransitivePackages_DanglingDependencyEdge(t *testing.T) {
	// Restore prunes framework references out of targets, so a dependency
	// edge can name a package with no node. The walk must skip it instead
	// of surfacing a phantom row.
	af := &AssetsFile{
		Targets: map[string]map[string]TargetLibrary{
			"net8.0": {
				"Root.Pkg/1.0.0": {
					Type: "package",
					Dependencies: map[string]string{
						"Real.Child":                 "2.0.0",
						"Microsoft.NETCore.Platforms": "8.0.0",
					},
				},
				"Real.Child/2.0.0": {Type: "package"},
			},
		},
	}

	transitive := af.TransitivePackages("net8.0", []string{"Root.Pkg"})
	require.Len(t, transitive, 1)
	assert.Equal(t, "Real.Child", transitive[0].ID)
	assert.Equal(t, []string{"Root.Pkg"}, transitive[0].RequiredBy)
}
