package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/willibrandon/nupanel/project"
	"github.com/willibrandon/nupanel/version"
)

// projectState is everything the project-facing operations read off disk:
// the project file, the central version props when enabled, and the assets
// file from the last restore when one exists.
type projectState struct {
	proj      *project.Project
	props     *project.DirectoryPackagesProps
	assets    *project.AssetsFile
	framework string
}

func (h *Host) loadProjectState(projectPath string) (*projectState, error) {
	if projectPath == "" {
		projectPath = h.projectPath
	}

	proj, err := project.LoadProject(projectPath)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	st := &projectState{proj: proj}

	if proj.IsCentralPackageManagementEnabled() {
		props, err := project.LoadDirectoryPackagesProps(proj.GetDirectoryPackagesPropsPath())
		if err != nil {
			return nil, fmt.Errorf("central package management enabled but Directory.Packages.props unreadable: %w", err)
		}
		st.props = props
	}

	// The assets file only exists after a restore. Operations that need it
	// check for nil; the rest degrade to declared versions.
	if assets, err := project.LoadAssetsFile(project.AssetsPath(proj.Path)); err == nil {
		st.assets = assets
		st.framework = assets.Framework(proj.TargetFramework)
	}

	return st, nil
}

// declaredVersion returns the version a reference declares, consulting the
// central props file for versionless references under central management.
func (st *projectState) declaredVersion(ref project.PackageReference) string {
	if ref.Version != "" {
		return ref.Version
	}
	if st.props != nil {
		return st.props.GetPackageVersion(ref.Include)
	}
	return ""
}

func (h *Host) installed(r InstalledRequest) Response {
	st, err := h.loadProjectState(r.ProjectPath)
	if err != nil {
		return InstalledResponse{Err: err.Error()}
	}

	var resolved map[string]string
	if st.assets != nil {
		resolved = st.assets.ResolvedVersions(st.framework)
	}

	refs := st.proj.GetPackageReferences()
	packages := make([]InstalledPackage, 0, len(refs))
	for _, ref := range refs {
		declared := st.declaredVersion(ref)
		kind, alwaysLatest := version.Classify(declared)
		packages = append(packages, InstalledPackage{
			ID:              ref.Include,
			DeclaredVersion: declared,
			ResolvedVersion: resolved[strings.ToLower(ref.Include)],
			Kind:            kind,
			AlwaysLatest:    alwaysLatest,
			Implicit:        declared == "",
		})
	}

	sort.Slice(packages, func(i, j int) bool {
		return strings.ToLower(packages[i].ID) < strings.ToLower(packages[j].ID)
	})
	return InstalledResponse{Packages: packages}
}

func (h *Host) transitive(r TransitiveRequest) Response {
	st, err := h.loadProjectState(r.ProjectPath)
	if err != nil {
		return TransitiveResponse{Err: err.Error()}
	}
	if st.assets == nil {
		return TransitiveResponse{Err: "no project.assets.json; run a restore first"}
	}

	refs := st.proj.GetPackageReferences()
	direct := make([]string, 0, len(refs))
	for _, ref := range refs {
		direct = append(direct, ref.Include)
	}

	graph := st.assets.TransitivePackages(st.framework, direct)
	packages := make([]TransitivePackage, 0, len(graph))
	for _, tp := range graph {
		packages = append(packages, TransitivePackage{
			ID:         tp.ID,
			Version:    tp.Version,
			RequiredBy: tp.RequiredBy,
			Chain:      tp.Chain,
		})
	}
	return TransitiveResponse{Packages: packages}
}

func (h *Host) updates(ctx context.Context, r UpdatesRequest) Response {
	installed, ok := h.installed(InstalledRequest{ProjectPath: r.ProjectPath}).(InstalledResponse)
	if !ok || installed.Err != "" {
		return UpdatesResponse{Err: installed.Err}
	}

	type lookup struct {
		pkg     InstalledPackage
		current string
	}
	var lookups []lookup
	for _, pkg := range installed.Packages {
		current := pkg.ResolvedVersion
		if current == "" {
			current = pkg.DeclaredVersion
		}
		if current == "" || pkg.AlwaysLatest {
			continue
		}
		lookups = append(lookups, lookup{pkg: pkg, current: current})
	}

	candidates := make([]*UpdateCandidate, len(lookups))
	var wg sync.WaitGroup
	for i, l := range lookups {
		wg.Add(1)
		go func(i int, l lookup) {
			defer wg.Done()
			latest, err := h.mergedVersions(ctx, l.pkg.ID, "", r.IncludePrerelease, 1)
			if err != nil || len(latest) == 0 {
				return
			}
			if newer(latest[0], l.current) {
				candidates[i] = &UpdateCandidate{
					ID:               l.pkg.ID,
					InstalledVersion: l.current,
					LatestVersion:    latest[0],
				}
			}
		}(i, l)
	}
	wg.Wait()

	resp := UpdatesResponse{}
	for _, c := range candidates {
		if c != nil {
			resp.Candidates = append(resp.Candidates, *c)
		}
	}
	return resp
}

// newer reports whether candidate is strictly newer than current. Declared
// versions can be ranges or floats; those never register as updatable here.
func newer(candidate, current string) bool {
	cv, err := version.Parse(candidate)
	if err != nil {
		return false
	}
	cur, err := version.Parse(current)
	if err != nil {
		return false
	}
	return cv.Compare(cur) > 0
}
