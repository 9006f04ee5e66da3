package host

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/willibrandon/nupanel/observability"
	"github.com/willibrandon/nupanel/packaging"
	"github.com/willibrandon/nupanel/version"
)

// localFeed answers feed operations for a folder source by reading the
// .nupkg files under its directory. Both local layouts work: a flat
// folder of packages and the hierarchical id/version tree.
type localFeed struct {
	dir    string
	logger observability.Logger

	mu      sync.Mutex
	entries map[string]*localEntry // keyed by package file path
}

// localEntry caches one parsed package, invalidated by size or mtime.
type localEntry struct {
	size    int64
	modTime time.Time

	path   string
	nuspec *packaging.Nuspec
	ver    *version.NuGetVersion
	signed bool
}

func newLocalFeed(dir string, logger observability.Logger) *localFeed {
	return &localFeed{dir: dir, logger: logger, entries: make(map[string]*localEntry)}
}

// scan walks the feed directory, reparsing only packages that changed
// since the last scan and forgetting ones that were removed.
func (lf *localFeed) scan(ctx context.Context) ([]*localEntry, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	seen := make(map[string]bool)
	var out []*localEntry
	walkErr := filepath.WalkDir(lf.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".nupkg") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		seen[path] = true
		if cached, ok := lf.entries[path]; ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
			out = append(out, cached)
			return nil
		}
		entry, err := readLocalPackage(path, info)
		if err != nil {
			// A malformed package hides itself, not the whole feed.
			lf.logger.DebugContext(ctx, "Skipping unreadable package {Path}: {Error}", path, err)
			delete(lf.entries, path)
			return nil
		}
		lf.entries[path] = entry
		out = append(out, entry)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan local feed %s: %w", lf.dir, walkErr)
	}
	for path := range lf.entries {
		if !seen[path] {
			delete(lf.entries, path)
		}
	}
	return out, nil
}

func readLocalPackage(path string, info fs.FileInfo) (*localEntry, error) {
	r, err := packaging.OpenPackage(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	nuspec, err := r.Nuspec()
	if err != nil {
		return nil, err
	}
	identity, err := nuspec.Identity()
	if err != nil {
		return nil, err
	}
	return &localEntry{
		size:    info.Size(),
		modTime: info.ModTime(),
		path:    path,
		nuspec:  nuspec,
		ver:     identity.Version,
		signed:  r.IsSigned(),
	}, nil
}

func (lf *localFeed) search(ctx context.Context, r SearchRequest, sourceName string) ([]SearchResult, error) {
	entries, err := lf.scan(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(r.Query))
	best := make(map[string]*localEntry)
	for _, e := range entries {
		id := e.nuspec.Metadata.ID
		if query != "" && !strings.Contains(strings.ToLower(id), query) {
			continue
		}
		if !r.IncludePrerelease && e.ver.IsPrerelease() {
			continue
		}
		key := strings.ToLower(id)
		if cur, ok := best[key]; !ok || e.ver.GreaterThan(cur.ver) {
			best[key] = e
		}
	}

	out := make([]SearchResult, 0, len(best))
	for _, e := range best {
		meta := e.nuspec.Metadata
		out = append(out, SearchResult{
			ID:          meta.ID,
			Version:     e.ver.String(),
			Description: meta.Description,
			Authors:     splitAuthors(meta.Authors),
			IconURL:     meta.IconURL,
			// Signed packages surface as verified in the results list.
			Verified:   e.signed,
			SourceName: sourceName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].ID) < strings.ToLower(out[j].ID)
	})
	if r.Take > 0 && len(out) > r.Take {
		out = out[:r.Take]
	}
	return out, nil
}

func (lf *localFeed) autocomplete(ctx context.Context, r AutocompleteRequest) ([]string, error) {
	entries, err := lf.scan(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(r.Query))
	distinct := make(map[string]string)
	for _, e := range entries {
		if !r.IncludePrerelease && e.ver.IsPrerelease() {
			continue
		}
		id := e.nuspec.Metadata.ID
		if query != "" && !strings.HasPrefix(strings.ToLower(id), query) {
			continue
		}
		distinct[strings.ToLower(id)] = id
	}

	ids := make([]string, 0, len(distinct))
	for _, id := range distinct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return strings.ToLower(ids[i]) < strings.ToLower(ids[j])
	})
	if r.Take > 0 && len(ids) > r.Take {
		ids = ids[:r.Take]
	}
	return ids, nil
}

func (lf *localFeed) versions(ctx context.Context, packageID string) ([]string, error) {
	entries, err := lf.scan(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if strings.EqualFold(e.nuspec.Metadata.ID, packageID) {
			out = append(out, e.ver.String())
		}
	}
	return out, nil
}

func (lf *localFeed) metadata(ctx context.Context, packageID, rawVersion string) (*Metadata, error) {
	want, err := version.Parse(rawVersion)
	if err != nil {
		return nil, fmt.Errorf("version %q: %w", rawVersion, err)
	}
	entries, err := lf.scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if !strings.EqualFold(e.nuspec.Metadata.ID, packageID) || e.ver.Compare(want) != 0 {
			continue
		}
		meta := e.nuspec.Metadata
		m := &Metadata{
			ID:                meta.ID,
			Version:           e.ver.String(),
			Description:       meta.Description,
			Authors:           meta.Authors,
			IconURL:           meta.IconURL,
			LicenseURL:        meta.LicenseURL,
			LicenseExpression: meta.License.Expression(),
			ProjectURL:        meta.ProjectURL,
			Tags:              meta.Tags,
			Published:         e.modTime.UTC().Format(time.RFC3339),
		}
		for _, g := range e.nuspec.DependencyGroups() {
			group := DependencyGroup{TargetFramework: g.TargetFramework}
			for _, d := range g.Dependencies {
				group.Dependencies = append(group.Dependencies, Dependency{ID: d.ID, Range: d.Version})
			}
			m.DependencyGroups = append(m.DependencyGroups, group)
		}
		if meta.Readme != "" {
			if readme, err := readPackageFile(e.path, meta.Readme); err == nil {
				m.Readme = readme
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("package %s %s not found in %s", packageID, rawVersion, lf.dir)
}

// readPackageFile reopens the archive to pull one referenced file, such as
// the embedded readme. Cached entries keep only the parsed manifest.
func readPackageFile(pkgPath, name string) (string, error) {
	r, err := packaging.OpenPackage(pkgPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	content, err := r.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
