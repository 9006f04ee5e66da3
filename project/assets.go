package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/willibrandon/nupanel/frameworks"
)

// AssetsFile represents the project.assets.json the restore step writes.
// The panel reads it for resolved versions and the transitive dependency
// graph; it never writes one.
type AssetsFile struct {
	Version                     int                                 `json:"version"`
	Targets                     map[string]map[string]TargetLibrary `json:"targets"`
	Libraries                   map[string]AssetsLibrary            `json:"libraries"`
	ProjectFileDependencyGroups map[string][]string                 `json:"projectFileDependencyGroups"`
	Project                     AssetsProject                       `json:"project"`
}

// TargetLibrary is one "Id/Version" entry in a target's dependency graph.
type TargetLibrary struct {
	Type         string            `json:"type"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// AssetsLibrary is a package entry in the libraries section.
type AssetsLibrary struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// AssetsProject holds the project metadata block.
type AssetsProject struct {
	Version string        `json:"version"`
	Restore AssetsRestore `json:"restore"`
}

// AssetsRestore holds restore metadata.
type AssetsRestore struct {
	ProjectName string `json:"projectName"`
	ProjectPath string `json:"projectPath"`
	OutputPath  string `json:"outputPath"`
}

// TransitivePackage is a package pulled in by a direct reference rather than
// declared in the project file.
type TransitivePackage struct {
	ID      string
	Version string
	// RequiredBy lists the direct packages whose dependency closure includes
	// this package, sorted.
	RequiredBy []string
	// Chain is one concrete dependency path from a direct package down to
	// this package, including both endpoints.
	Chain []string
}

// AssetsPath returns the conventional location of project.assets.json for a
// project file.
func AssetsPath(projectPath string) string {
	return filepath.Join(filepath.Dir(projectPath), "obj", "project.assets.json")
}

// LoadAssetsFile loads and parses a project.assets.json file.
func LoadAssetsFile(path string) (*AssetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets file: %w", err)
	}

	var af AssetsFile
	if err := json.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("failed to parse assets file: %w", err)
	}

	return &af, nil
}

// Framework resolves the target key to read the graph from. An exact match
// on preferred wins; otherwise a RID-less prefix match ("net8.0" matching
// "net8.0/win-x64"); otherwise a structural match, since older SDKs key
// targets by the full framework name (".NETCoreApp,Version=v8.0" for
// net8.0); otherwise the sole target; otherwise the first sorted.
func (af *AssetsFile) Framework(preferred string) string {
	if len(af.Targets) == 0 {
		return ""
	}

	if preferred != "" {
		if _, ok := af.Targets[preferred]; ok {
			return preferred
		}
		for key := range af.Targets {
			base, _, _ := strings.Cut(key, "/")
			if strings.EqualFold(base, preferred) {
				return key
			}
		}
		if want, err := frameworks.ParseFramework(preferred); err == nil {
			for key := range af.Targets {
				base, _, _ := strings.Cut(key, "/")
				got, err := frameworks.ParseFramework(frameworks.NormalizeFrameworkName(base))
				if err == nil && got.Equals(want) {
					return key
				}
			}
		}
	}

	keys := make([]string, 0, len(af.Targets))
	for key := range af.Targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0]
}

// ResolvedVersion returns the version the restore picked for a package, if
// the package appears in the target's graph.
func (af *AssetsFile) ResolvedVersion(framework, id string) (string, bool) {
	target, ok := af.Targets[framework]
	if !ok {
		return "", false
	}

	for key := range target {
		entryID, version, ok := splitLibraryKey(key)
		if ok && strings.EqualFold(entryID, id) {
			return version, true
		}
	}
	return "", false
}

// ResolvedVersions returns a lowercase-id to version map for every package
// in the target's graph.
func (af *AssetsFile) ResolvedVersions(framework string) map[string]string {
	resolved := make(map[string]string)
	for key, lib := range af.Targets[framework] {
		if lib.Type != "package" {
			continue
		}
		if id, version, ok := splitLibraryKey(key); ok {
			resolved[strings.ToLower(id)] = version
		}
	}
	return resolved
}

// TransitivePackages walks the target's dependency graph from the direct
// packages and returns everything else they pull in. Each result carries the
// direct packages that require it and one concrete dependency chain.
func (af *AssetsFile) TransitivePackages(framework string, direct []string) []TransitivePackage {
	target := af.Targets[framework]
	if len(target) == 0 {
		return nil
	}

	// Index graph nodes by lowercase id.
	type node struct {
		id      string
		version string
		typ     string
		deps    []string // lowercase ids
	}
	nodes := make(map[string]*node, len(target))
	for key, lib := range target {
		id, version, ok := splitLibraryKey(key)
		if !ok {
			continue
		}
		n := &node{id: id, version: version, typ: lib.Type}
		for dep := range lib.Dependencies {
			n.deps = append(n.deps, strings.ToLower(dep))
		}
		sort.Strings(n.deps)
		nodes[strings.ToLower(id)] = n
	}

	directSet := make(map[string]bool, len(direct))
	roots := make([]string, 0, len(direct))
	for _, id := range direct {
		lower := strings.ToLower(id)
		directSet[lower] = true
		if _, ok := nodes[lower]; ok {
			roots = append(roots, lower)
		}
	}
	sort.Strings(roots)

	requiredBy := make(map[string]map[string]bool) // lowercase id -> root display ids
	chains := make(map[string][]string)            // lowercase id -> first discovered path

	for _, root := range roots {
		rootNode := nodes[root]
		visited := map[string]bool{root: true}
		queue := [][]string{{root}}

		for len(queue) > 0 {
			path := queue[0]
			queue = queue[1:]
			current := nodes[path[len(path)-1]]

			for _, dep := range current.deps {
				if _, ok := nodes[dep]; !ok || visited[dep] {
					continue
				}
				visited[dep] = true

				next := append(append([]string(nil), path...), dep)
				queue = append(queue, next)

				if directSet[dep] {
					continue
				}
				if requiredBy[dep] == nil {
					requiredBy[dep] = make(map[string]bool)
				}
				requiredBy[dep][rootNode.id] = true
				if _, ok := chains[dep]; !ok {
					chain := make([]string, len(next))
					for i, lower := range next {
						chain[i] = nodes[lower].id
					}
					chains[dep] = chain
				}
			}
		}
	}

	result := make([]TransitivePackage, 0, len(requiredBy))
	for lower, rootSet := range requiredBy {
		n := nodes[lower]
		if n.typ != "package" {
			continue
		}

		required := make([]string, 0, len(rootSet))
		for id := range rootSet {
			required = append(required, id)
		}
		sort.Strings(required)

		result = append(result, TransitivePackage{
			ID:         n.id,
			Version:    n.version,
			RequiredBy: required,
			Chain:      chains[lower],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].ID) < strings.ToLower(result[j].ID)
	})
	return result
}

// splitLibraryKey splits an "Id/Version" graph key.
func splitLibraryKey(key string) (id, version string, ok bool) {
	id, version, ok = strings.Cut(key, "/")
	if !ok || id == "" || version == "" {
		return "", "", false
	}
	return id, version, true
}
