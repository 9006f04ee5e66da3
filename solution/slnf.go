package solution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A .slnf solution filter is a JSON document naming a parent solution and
// the subset of its projects to load.
type slnfDocument struct {
	Solution struct {
		Path     string   `json:"path"`
		Projects []string `json:"projects"`
	} `json:"solution"`
}

// parseSlnf reads a solution filter, parses its parent solution, and
// keeps only the projects the filter names. Paths in the filter are
// relative to the parent solution's directory, as written by Visual
// Studio.
func parseSlnf(path string) (*Solution, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer func() { _ = file.Close() }()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	var doc slnfDocument
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	if doc.Solution.Path == "" {
		return nil, &ParseError{FilePath: absPath, Message: "missing solution path in filter file"}
	}

	parentPath := resolvePath(filepath.Dir(absPath), doc.Solution.Path)
	if _, err := os.Stat(parentPath); err != nil {
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("parent solution not found: %s", parentPath)}
	}

	var parent *Solution
	switch strings.ToLower(filepath.Ext(parentPath)) {
	case ".sln":
		parent, err = parseSln(parentPath)
	case ".slnx":
		parent, err = parseSlnx(parentPath)
	default:
		// A filter referencing another filter would recurse.
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("parent solution must be .sln or .slnx, got %s", filepath.Ext(parentPath))}
	}
	if err != nil {
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("failed to parse parent solution: %v", err)}
	}

	wanted := make(map[string]bool, len(doc.Solution.Projects))
	for _, p := range doc.Solution.Projects {
		wanted[strings.ToLower(normalizePath(p))] = true
	}

	sol := &Solution{
		FilePath: absPath,
		Dir:      parent.Dir,
	}
	for _, project := range parent.Projects {
		if wanted[strings.ToLower(project.Path)] {
			sol.Projects = append(sol.Projects, project)
		}
	}
	return sol, nil
}
