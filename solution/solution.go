// Package solution reads Visual Studio solution files so the panel can
// locate the project it should manage. All three on-disk formats are
// handled: the classic .sln text format, the XML .slnx format introduced
// with .NET 9, and .slnf solution filters.
package solution

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Project is a single project entry in a solution. Path is absolute
// after Load.
type Project struct {
	Name string
	Path string
}

// Solution is the parsed view of a solution file, reduced to what the
// panel needs: the projects it contains. For a .slnf filter, FilePath is
// the filter file and Dir is the parent solution's directory, since
// project paths in a filter are relative to the parent.
type Solution struct {
	FilePath string
	Dir      string
	Projects []Project
}

// ParseError reports a malformed solution file. Line is zero when the
// failure is not tied to a specific line.
type ParseError struct {
	FilePath string
	Line     int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// IsSolutionFile reports whether path has a solution file extension.
func IsSolutionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln", ".slnx", ".slnf":
		return true
	}
	return false
}

// Load parses the solution file at path, picking the parser from the
// extension. Project paths in the result are absolute.
func Load(path string) (*Solution, error) {
	var (
		sol *Solution
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln":
		sol, err = parseSln(path)
	case ".slnx":
		sol, err = parseSlnx(path)
	case ".slnf":
		sol, err = parseSlnf(path)
	default:
		return nil, fmt.Errorf("unsupported solution format %q (supported: .sln, .slnx, .slnf)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	for i := range sol.Projects {
		sol.Projects[i].Path = resolvePath(sol.Dir, sol.Projects[i].Path)
	}
	return sol, nil
}

// Find locates the solution file in dir without recursing, mirroring how
// the dotnet CLI resolves a bare directory argument. Exactly one solution
// file must be present. Filters (.slnf) ship alongside their parent
// solution and are only honored when named explicitly, so they are not
// part of the search.
func Find(dir string) (string, error) {
	var found []string
	for _, pattern := range []string{"*.sln", "*.slnx"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("searching %s: %w", dir, err)
		}
		found = append(found, matches...)
	}
	sort.Strings(found)
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no solution file found in %s", dir)
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = filepath.Base(f)
		}
		return "", fmt.Errorf("multiple solution files found in %s: %s", dir, strings.Join(names, ", "))
	}
}
