// Package project loads and edits .NET project files (.csproj, .fsproj,
// .vbproj) and reads the project.assets.json the last restore produced.
package project

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Project represents a .NET project file.
type Project struct {
	Path             string
	Root             *RootElement
	modified         bool
	TargetFramework  string   // Single target framework (e.g., "net8.0")
	TargetFrameworks []string // Multiple target frameworks (e.g., ["net6.0", "net7.0", "net8.0"])
}

// LoadProject loads and parses a project file from the given path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var root RootElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse project XML: %w", err)
	}

	proj := &Project{
		Path:     path,
		Root:     &root,
		modified: false,
	}

	// Extract target framework(s)
	for _, pg := range root.PropertyGroup {
		if pg.TargetFramework != "" {
			proj.TargetFramework = pg.TargetFramework
		}
		if pg.TargetFrameworks != "" {
			proj.TargetFrameworks = strings.Split(pg.TargetFrameworks, ";")
		}
	}

	return proj, nil
}

// Save saves the project file with a UTF-8 BOM, as .NET tooling expects.
// A no-op when nothing changed since load.
func (p *Project) Save() error {
	if !p.modified {
		return nil
	}

	output, err := xml.MarshalIndent(p.Root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	file, err := os.Create(p.Path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	// UTF-8 BOM (required for .NET compatibility)
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	if _, err := file.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"); err != nil {
		return err
	}

	if _, err := file.Write(output); err != nil {
		return err
	}

	p.modified = false
	return nil
}

// AddOrUpdatePackageReference adds a new PackageReference or updates an
// existing one. Only unconditional ItemGroups are touched; references inside
// Condition'd groups are left alone.
// Returns true if an existing reference was updated, false if a new one was added.
func (p *Project) AddOrUpdatePackageReference(id, version string) (bool, error) {
	var targetItemGroup *ItemGroup
	var existingRef *PackageReference

	for i := range p.Root.ItemGroups {
		ig := &p.Root.ItemGroups[i]
		if ig.Condition != "" {
			continue
		}

		for j := range ig.PackageReferences {
			ref := &ig.PackageReferences[j]
			if strings.EqualFold(ref.Include, id) {
				existingRef = ref
				targetItemGroup = ig
				break
			}
		}
		if existingRef != nil {
			break
		}

		// Remember first unconditional ItemGroup for adding new references
		if targetItemGroup == nil {
			targetItemGroup = ig
		}
	}

	if existingRef != nil {
		existingRef.Version = version
		p.modified = true
		return true, nil
	}

	newRef := PackageReference{
		Include: id,
		Version: version,
	}

	if targetItemGroup != nil {
		targetItemGroup.PackageReferences = append(targetItemGroup.PackageReferences, newRef)
	} else {
		p.Root.ItemGroups = append(p.Root.ItemGroups, ItemGroup{
			PackageReferences: []PackageReference{newRef},
		})
	}

	p.modified = true
	return false, nil
}

// RemovePackageReference removes a PackageReference by package ID.
// Returns true if a reference was removed, false if not found.
func (p *Project) RemovePackageReference(id string) bool {
	for i := range p.Root.ItemGroups {
		ig := &p.Root.ItemGroups[i]
		for j := range ig.PackageReferences {
			if strings.EqualFold(ig.PackageReferences[j].Include, id) {
				ig.PackageReferences = append(ig.PackageReferences[:j], ig.PackageReferences[j+1:]...)
				p.modified = true
				return true
			}
		}
	}
	return false
}

// GetPackageReferences returns all PackageReference elements in the project.
func (p *Project) GetPackageReferences() []PackageReference {
	var refs []PackageReference
	for _, ig := range p.Root.ItemGroups {
		refs = append(refs, ig.PackageReferences...)
	}
	return refs
}

// GetPackageReference returns the PackageReference for a package ID, or nil
// if the project does not reference it.
func (p *Project) GetPackageReference(id string) *PackageReference {
	for i := range p.Root.ItemGroups {
		ig := &p.Root.ItemGroups[i]
		for j := range ig.PackageReferences {
			if strings.EqualFold(ig.PackageReferences[j].Include, id) {
				return &ig.PackageReferences[j]
			}
		}
	}
	return nil
}

// IsCentralPackageManagementEnabled checks if Central Package Management is
// enabled via the ManagePackageVersionsCentrally property.
func (p *Project) IsCentralPackageManagementEnabled() bool {
	for _, pg := range p.Root.PropertyGroup {
		if pg.ManagePackageVersionsCentrally != "" {
			return strings.EqualFold(pg.ManagePackageVersionsCentrally, "true")
		}
	}
	return false
}

// GetDirectoryPackagesPropsPath resolves the Directory.Packages.props path
// for this project. A DirectoryPackagesPropsPath property wins; otherwise
// the directory tree is walked upward, defaulting to the project directory
// when no props file exists yet.
func (p *Project) GetDirectoryPackagesPropsPath() string {
	projectDir := filepath.Dir(p.Path)

	for _, pg := range p.Root.PropertyGroup {
		if pg.DirectoryPackagesPropsPath != "" {
			custom := filepath.FromSlash(pg.DirectoryPackagesPropsPath)
			if filepath.IsAbs(custom) {
				return custom
			}
			return filepath.Join(projectDir, custom)
		}
	}

	dir := projectDir
	for {
		propsPath := filepath.Join(dir, "Directory.Packages.props")
		if _, err := os.Stat(propsPath); err == nil {
			return propsPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return filepath.Join(projectDir, "Directory.Packages.props")
}

// IsSDKStyle returns true if this is an SDK-style project.
func (p *Project) IsSDKStyle() bool {
	return p.Root.Sdk != ""
}

// FindProjectFile finds a single .csproj, .fsproj, or .vbproj file in the directory.
// Returns error if 0 or >1 project files are found.
func FindProjectFile(dir string) (string, error) {
	allMatches, err := filepath.Glob(filepath.Join(dir, "*.csproj"))
	if err != nil {
		return "", err
	}

	fsprojMatches, err := filepath.Glob(filepath.Join(dir, "*.fsproj"))
	if err != nil {
		return "", err
	}

	vbprojMatches, err := filepath.Glob(filepath.Join(dir, "*.vbproj"))
	if err != nil {
		return "", err
	}

	allMatches = append(allMatches, fsprojMatches...)
	allMatches = append(allMatches, vbprojMatches...)

	if len(allMatches) == 0 {
		return "", fmt.Errorf("no project file found in directory: %s", dir)
	}

	if len(allMatches) > 1 {
		return "", fmt.Errorf("multiple project files found in directory: %s. Specify which project to use", dir)
	}

	return allMatches[0], nil
}
