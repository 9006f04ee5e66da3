package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/willibrandon/nupanel/cache"
	"github.com/willibrandon/nupanel/config"
	"github.com/willibrandon/nupanel/frameworks"
	nugethttp "github.com/willibrandon/nupanel/http"
	"github.com/willibrandon/nupanel/observability"
	"github.com/willibrandon/nupanel/project"
	v2 "github.com/willibrandon/nupanel/protocol/v2"
	v3 "github.com/willibrandon/nupanel/protocol/v3"
	"github.com/willibrandon/nupanel/version"
)

// requestTimeout bounds every host operation. The panel never times out on
// its side; a hang here becomes an error response instead.
const requestTimeout = 30 * time.Second

// Config holds host construction parameters.
type Config struct {
	ProjectPath string
	Sources     []config.Source
	Logger      observability.Logger // nil uses NullLogger
	HTTPClient  *nugethttp.Client    // nil uses the shared global client
	HTTPCache   *cache.DiskCache     // optional registration metadata cache
}

// Host answers panel requests over the configured package sources and the
// project on disk. One Host serves one panel instance. Every request gets
// exactly one response; failures travel as response fields, never as Go
// errors across the message boundary.
type Host struct {
	projectPath string
	sources     []*sourceClients
	logger      observability.Logger
	// cacheCtx scopes protocol-layer caching to this run; one session id
	// for the host's lifetime.
	cacheCtx *cache.SourceCacheContext

	// projectFw is the parsed target framework, loaded on first use to
	// order metadata dependency groups.
	projectFw     *frameworks.NuGetFramework
	projectFwOnce sync.Once
}

// sourceClients bundles the protocol clients for one feed. Only the set
// matching the source's kind is populated: a local folder feed, a v3
// JSON feed, or a legacy v2 OData feed.
type sourceClients struct {
	src config.Source

	local *localFeed

	v3Search   *v3.SearchClient
	v3Auto     *v3.AutocompleteClient
	v3Meta     *v3.MetadataClient
	v3Versions *v3.VersionsClient
	v3Readme   *v3.ReadmeClient

	v2Search *v2.SearchClient
	v2Meta   *v2.MetadataClient
}

// New creates a host for the given project and sources. Sources carrying
// credentials get a dedicated HTTP client so the authenticator never leaks
// onto other feeds; the rest share one client for connection reuse.
func New(cfg Config) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	shared := cfg.HTTPClient
	if shared == nil {
		shared = nugethttp.GetGlobalClient()
	}

	h := &Host{
		projectPath: cfg.ProjectPath,
		logger:      logger,
		cacheCtx:    cache.NewSourceCacheContext(),
	}

	for _, src := range cfg.Sources {
		client := shared
		if authenticator := src.Authenticator(); authenticator != nil {
			httpCfg := nugethttp.DefaultConfig()
			httpCfg.Logger = logger
			httpCfg.Authenticator = authenticator
			client = nugethttp.NewClient(httpCfg)
		}

		sc := &sourceClients{src: src}
		if src.IsLocal() {
			sc.local = newLocalFeed(src.LocalPath(), logger)
		} else if src.IsV3() {
			serviceIndex := v3.NewServiceIndexClient(client)
			sc.v3Search = v3.NewSearchClient(client, serviceIndex)
			sc.v3Auto = v3.NewAutocompleteClient(client, serviceIndex)
			sc.v3Meta = v3.NewMetadataClient(client, serviceIndex)
			sc.v3Versions = v3.NewVersionsClient(client, serviceIndex)
			sc.v3Readme = v3.NewReadmeClient(client, serviceIndex)
			if cfg.HTTPCache != nil {
				sc.v3Meta.SetHTTPCache(cfg.HTTPCache)
			}
		} else {
			sc.v2Search = v2.NewSearchClient(client)
			sc.v2Meta = v2.NewMetadataClient(client)
		}
		h.sources = append(h.sources, sc)
	}

	return h
}

// Sources returns the configured sources for the panel's source selector.
func (h *Host) Sources() []SourceRef {
	refs := make([]SourceRef, len(h.sources))
	for i, sc := range h.sources {
		refs[i] = SourceRef{Name: sc.src.Name, URL: sc.src.URL}
	}
	return refs
}

// Handle answers a request with exactly one response. Intended to run inside
// a tea.Cmd goroutine; the caller delivers the response to the event loop.
func (h *Host) Handle(req Request) Response {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	ctx = cache.WithCacheContext(ctx, h.cacheCtx)

	observability.HostRequestsTotal.WithLabelValues(requestKind(req)).Inc()

	switch r := req.(type) {
	case SearchRequest:
		return h.search(ctx, r)
	case AutocompleteRequest:
		return h.autocomplete(ctx, r)
	case VersionsRequest:
		return h.versions(ctx, r)
	case MetadataRequest:
		return h.metadata(ctx, r)
	case InstalledRequest:
		return h.installed(r)
	case TransitiveRequest:
		return h.transitive(r)
	case UpdatesRequest:
		return h.updates(ctx, r)
	case InstallRequest:
		return h.install(ctx, r)
	case UpdateRequest:
		return h.update(ctx, r)
	case RemoveRequest:
		return h.remove(ctx, r)
	}

	// Unreachable: Request is a closed set.
	h.logger.Error("Unhandled request type {Type}", fmt.Sprintf("%T", req))
	return nil
}

func requestKind(req Request) string {
	switch req.(type) {
	case SearchRequest:
		return "search"
	case AutocompleteRequest:
		return "autocomplete"
	case VersionsRequest:
		return "versions"
	case MetadataRequest:
		return "metadata"
	case InstalledRequest:
		return "installed"
	case TransitiveRequest:
		return "transitive"
	case UpdatesRequest:
		return "updates"
	case InstallRequest:
		return "install"
	case UpdateRequest:
		return "update"
	case RemoveRequest:
		return "remove"
	default:
		return "unknown"
	}
}

// selected returns the sources a request is scoped to: every configured
// source when refs is empty, otherwise the configured sources whose names
// appear in refs.
func (h *Host) selected(refs []SourceRef) []*sourceClients {
	if len(refs) == 0 {
		return h.sources
	}

	var out []*sourceClients
	for _, ref := range refs {
		for _, sc := range h.sources {
			if strings.EqualFold(sc.src.Name, ref.Name) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

// byName resolves one source by name, nil when unknown.
func (h *Host) byName(name string) *sourceClients {
	for _, sc := range h.sources {
		if strings.EqualFold(sc.src.Name, name) {
			return sc
		}
	}
	return nil
}

func (h *Host) search(ctx context.Context, r SearchRequest) Response {
	sources := h.selected(r.Sources)
	ctx, span := observability.StartSearchSpan(ctx, r.Query, len(sources))
	defer span.End()

	type sourceResult struct {
		order   int
		name    string
		results []SearchResult
		err     error
	}

	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, sc := range sources {
		wg.Add(1)
		go func(i int, sc *sourceClients) {
			defer wg.Done()
			rs, err := sc.searchOne(ctx, r)
			results[i] = sourceResult{order: i, name: sc.src.Name, results: rs, err: err}
		}(i, sc)
	}
	wg.Wait()

	var merged []SearchResult
	seen := make(map[string]bool)
	failures := 0
	var lastErr error
	for _, sr := range results {
		if sr.err != nil {
			failures++
			lastErr = sr.err
			h.logger.WarnContext(ctx, "Search on {Source} failed: {Error}", sr.name, sr.err)
			continue
		}
		for _, result := range sr.results {
			key := strings.ToLower(result.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, result)
		}
	}

	resp := SearchResponse{Query: r.Query, Results: merged}
	if failures == len(sources) && failures > 0 {
		resp.Err = fmt.Sprintf("search failed: %v", lastErr)
		observability.EndSpanWithError(span, lastErr)
	}
	return resp
}

func (sc *sourceClients) searchOne(ctx context.Context, r SearchRequest) ([]SearchResult, error) {
	if sc.local != nil {
		return sc.local.search(ctx, r, sc.src.Name)
	}
	if sc.v3Search != nil {
		resp, err := sc.v3Search.Search(ctx, sc.src.URL, v3.SearchOptions{
			Query:       r.Query,
			Take:        r.Take,
			Prerelease:  r.IncludePrerelease,
			SemVerLevel: "2.0.0",
		})
		if err != nil {
			return nil, err
		}
		out := make([]SearchResult, 0, len(resp.Data))
		for _, d := range resp.Data {
			out = append(out, SearchResult{
				ID:             d.PackageID,
				Version:        d.Version,
				Description:    d.Description,
				Authors:        d.Authors,
				TotalDownloads: d.TotalDownloads,
				IconURL:        d.IconURL,
				Verified:       d.Verified,
				SourceName:     sc.src.Name,
			})
		}
		return out, nil
	}

	results, err := sc.v2Search.Search(ctx, sc.src.URL, v2.SearchOptions{
		Query:             r.Query,
		Top:               r.Take,
		IncludePrerelease: r.IncludePrerelease,
	})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(results))
	for _, d := range results {
		out = append(out, SearchResult{
			ID:             d.ID,
			Version:        d.Version,
			Description:    d.Description,
			Authors:        splitAuthors(d.Authors),
			TotalDownloads: d.DownloadCount,
			IconURL:        d.IconURL,
			SourceName:     sc.src.Name,
		})
	}
	return out, nil
}

func (h *Host) autocomplete(ctx context.Context, r AutocompleteRequest) Response {
	sources := h.selected(r.Sources)

	groups := make([]AutocompleteGroup, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup
	for i, sc := range sources {
		wg.Add(1)
		go func(i int, sc *sourceClients) {
			defer wg.Done()
			ids, err := sc.autocompleteOne(ctx, r)
			groups[i] = AutocompleteGroup{
				SourceName: sc.src.Name,
				SourceURL:  sc.src.URL,
				PackageIDs: ids,
			}
			errs[i] = err
		}(i, sc)
	}
	wg.Wait()

	resp := AutocompleteResponse{Query: r.Query}
	failures := 0
	var lastErr error
	for i, g := range groups {
		if errs[i] != nil {
			failures++
			lastErr = errs[i]
			h.logger.WarnContext(ctx, "Autocomplete on {Source} failed: {Error}", g.SourceName, errs[i])
			continue
		}
		resp.Groups = append(resp.Groups, g)
	}
	if failures == len(sources) && failures > 0 {
		resp.Err = fmt.Sprintf("autocomplete failed: %v", lastErr)
	}
	return resp
}

func (sc *sourceClients) autocompleteOne(ctx context.Context, r AutocompleteRequest) ([]string, error) {
	if sc.local != nil {
		return sc.local.autocomplete(ctx, r)
	}
	if sc.v3Auto != nil {
		resp, err := sc.v3Auto.AutocompletePackageIDs(ctx, sc.src.URL, r.Query, 0, r.Take, r.IncludePrerelease)
		if err != nil {
			return nil, err
		}
		return resp.Data, nil
	}

	// v2 has no autocomplete endpoint; a narrow search stands in.
	results, err := sc.v2Search.Search(ctx, sc.src.URL, v2.SearchOptions{
		Query:             r.Query,
		Top:               r.Take,
		IncludePrerelease: r.IncludePrerelease,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.ID)
	}
	return ids, nil
}

func (h *Host) versions(ctx context.Context, r VersionsRequest) Response {
	ctx, span := observability.StartVersionListSpan(ctx, r.PackageID)
	defer span.End()

	versions, err := h.mergedVersions(ctx, r.PackageID, r.Source, r.IncludePrerelease, r.Take)
	resp := VersionsResponse{PackageID: r.PackageID, Versions: versions}
	if err != nil {
		resp.Err = err.Error()
		observability.EndSpanWithError(span, err)
	}
	return resp
}

// mergedVersions fans a version-list lookup out to the scoped sources and
// merges the results newest first. An empty source scopes to all sources.
func (h *Host) mergedVersions(ctx context.Context, packageID, source string, includePrerelease bool, take int) ([]string, error) {
	sources := h.sources
	if source != "" {
		sc := h.byName(source)
		if sc == nil {
			return nil, fmt.Errorf("unknown source %q", source)
		}
		sources = []*sourceClients{sc}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no package sources configured")
	}

	lists := make([][]string, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup
	for i, sc := range sources {
		wg.Add(1)
		go func(i int, sc *sourceClients) {
			defer wg.Done()
			lists[i], errs[i] = sc.versionsOne(ctx, packageID)
		}(i, sc)
	}
	wg.Wait()

	var all []string
	failures := 0
	var lastErr error
	for i := range sources {
		if errs[i] != nil {
			failures++
			lastErr = errs[i]
			h.logger.WarnContext(ctx, "Version list for {PackageID} on {Source} failed: {Error}",
				packageID, sources[i].src.Name, errs[i])
			continue
		}
		all = append(all, lists[i]...)
	}
	if failures == len(sources) {
		return nil, lastErr
	}

	return newestFirst(all, includePrerelease, take), nil
}

func (sc *sourceClients) versionsOne(ctx context.Context, packageID string) ([]string, error) {
	if sc.local != nil {
		return sc.local.versions(ctx, packageID)
	}
	if sc.v3Versions != nil {
		return sc.v3Versions.GetPackageVersions(ctx, sc.src.URL, packageID)
	}
	return sc.v2Meta.ListVersions(ctx, sc.src.URL, packageID)
}

// newestFirst filters, de-duplicates, and orders a merged version list
// newest first. Unparseable strings are dropped; take caps the result when
// positive.
func newestFirst(versions []string, includePrerelease bool, take int) []string {
	type entry struct {
		raw    string
		parsed *version.NuGetVersion
	}

	seen := make(map[string]bool)
	entries := make([]entry, 0, len(versions))
	for _, raw := range versions {
		v, err := version.Parse(raw)
		if err != nil {
			continue
		}
		if !includePrerelease && v.IsPrerelease() {
			continue
		}
		key := strings.ToLower(v.ToNormalizedString())
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, entry{raw: raw, parsed: v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].parsed.Compare(entries[j].parsed) > 0
	})

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if take > 0 && len(out) >= take {
			break
		}
		out = append(out, e.raw)
	}
	return out
}

func (h *Host) metadata(ctx context.Context, r MetadataRequest) Response {
	ctx, span := observability.StartMetadataSpan(ctx, r.PackageID, r.Version)
	defer span.End()

	sources := h.sources
	if r.Source != "" {
		sc := h.byName(r.Source)
		if sc == nil {
			return MetadataResponse{PackageID: r.PackageID, Version: r.Version,
				Err: fmt.Sprintf("unknown source %q", r.Source)}
		}
		sources = []*sourceClients{sc}
	}

	var lastErr error
	for _, sc := range sources {
		metadata, err := sc.metadataOne(ctx, r.PackageID, r.Version)
		if err != nil {
			lastErr = err
			h.logger.DebugContext(ctx, "Metadata for {PackageID}@{Version} on {Source} failed: {Error}",
				r.PackageID, r.Version, sc.src.Name, err)
			continue
		}
		h.normalizeDependencyGroups(metadata)
		return MetadataResponse{PackageID: r.PackageID, Version: r.Version, Metadata: metadata}
	}

	resp := MetadataResponse{PackageID: r.PackageID, Version: r.Version}
	if lastErr != nil {
		resp.Err = fmt.Sprintf("metadata fetch failed: %v", lastErr)
		observability.EndSpanWithError(span, lastErr)
	} else {
		resp.Err = "no package sources configured"
	}
	return resp
}

func (sc *sourceClients) metadataOne(ctx context.Context, packageID, ver string) (*Metadata, error) {
	if sc.local != nil {
		return sc.local.metadata(ctx, packageID, ver)
	}
	if sc.v3Meta != nil {
		catalog, err := sc.v3Meta.GetVersionMetadata(ctx, sc.src.URL, packageID, ver)
		if err != nil {
			return nil, err
		}
		m := &Metadata{
			ID:                catalog.PackageID,
			Version:           catalog.Version,
			Description:       catalog.Description,
			Authors:           catalog.Authors,
			IconURL:           catalog.IconURL,
			LicenseURL:        catalog.LicenseURL,
			LicenseExpression: catalog.LicenseExpression,
			ProjectURL:        catalog.ProjectURL,
			Tags:              catalog.Tags,
			Published:         catalog.Published,
		}
		for _, g := range catalog.DependencyGroups {
			group := DependencyGroup{TargetFramework: g.TargetFramework}
			for _, d := range g.Dependencies {
				group.Dependencies = append(group.Dependencies, Dependency{ID: d.ID, Range: d.Range})
			}
			m.DependencyGroups = append(m.DependencyGroups, group)
		}
		// Readme is decorative; feeds without the endpoint just leave it empty.
		if readme, err := sc.v3Readme.GetReadme(ctx, sc.src.URL, packageID, ver); err == nil {
			m.Readme = readme
		}
		return m, nil
	}

	v2Meta, err := sc.v2Meta.GetPackageMetadata(ctx, sc.src.URL, packageID, ver)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		ID:               v2Meta.ID,
		Version:          v2Meta.Version,
		Description:      v2Meta.Description,
		Authors:          v2Meta.Authors,
		IconURL:          v2Meta.IconURL,
		LicenseURL:       v2Meta.LicenseURL,
		ProjectURL:       v2Meta.ProjectURL,
		Tags:             strings.Join(v2Meta.Tags, " "),
		Published:        v2Meta.Published,
		DependencyGroups: parseV2Dependencies(v2Meta.Dependencies),
	}, nil
}

// parseV2Dependencies parses the v2 flat dependency string
// ("Id:Range:TargetFramework|...") into dependency groups.
func parseV2Dependencies(deps string) []DependencyGroup {
	if deps == "" {
		return nil
	}

	groups := make(map[string][]Dependency)
	for len(deps) > 0 {
		var part string
		part, deps, _ = strings.Cut(deps, "|")
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, rest, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		versionRange, targetFramework, _ := strings.Cut(rest, ":")

		groups[strings.TrimSpace(targetFramework)] = append(groups[strings.TrimSpace(targetFramework)], Dependency{
			ID:    strings.TrimSpace(id),
			Range: strings.TrimSpace(versionRange),
		})
	}

	names := make([]string, 0, len(groups))
	for framework := range groups {
		names = append(names, framework)
	}
	sort.Strings(names)

	result := make([]DependencyGroup, 0, len(names))
	for _, framework := range names {
		result = append(result, DependencyGroup{
			TargetFramework: framework,
			Dependencies:    groups[framework],
		})
	}
	return result
}

// projectFramework parses the project's target framework once. Multi-TFM
// projects use their first target; a missing or unparseable project just
// disables nearest-first group ordering.
func (h *Host) projectFramework() *frameworks.NuGetFramework {
	h.projectFwOnce.Do(func() {
		proj, err := project.LoadProject(h.projectPath)
		if err != nil {
			return
		}
		tfm := proj.TargetFramework
		if tfm == "" && len(proj.TargetFrameworks) > 0 {
			tfm = proj.TargetFrameworks[0]
		}
		if fw, err := frameworks.ParseFramework(tfm); err == nil {
			h.projectFw = fw
		}
	})
	return h.projectFw
}

// normalizeDependencyGroups rewrites registration-page framework names
// (".NETStandard2.0", ".NETCoreApp,Version=v2.2") to short TFMs and moves
// the group nearest the project's framework to the front, where the
// dependency cursor starts.
func (h *Host) normalizeDependencyGroups(m *Metadata) {
	for i := range m.DependencyGroups {
		m.DependencyGroups[i].TargetFramework = frameworks.NormalizeFrameworkName(m.DependencyGroups[i].TargetFramework)
	}
	target := h.projectFramework()
	if target == nil || len(m.DependencyGroups) < 2 {
		return
	}

	parsed := make([]*frameworks.NuGetFramework, len(m.DependencyGroups))
	available := make([]*frameworks.NuGetFramework, 0, len(m.DependencyGroups))
	for i, g := range m.DependencyGroups {
		if fw, err := frameworks.ParseFramework(g.TargetFramework); err == nil {
			parsed[i] = fw
			available = append(available, fw)
		}
	}
	nearest := frameworks.GetNearest(target, available)
	if nearest == nil {
		return
	}
	for i, fw := range parsed {
		if fw != nil && fw.Equals(nearest) {
			group := m.DependencyGroups[i]
			copy(m.DependencyGroups[1:i+1], m.DependencyGroups[:i])
			m.DependencyGroups[0] = group
			return
		}
	}
}

func splitAuthors(authors string) []string {
	if authors == "" {
		return nil
	}
	parts := strings.Split(authors, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
