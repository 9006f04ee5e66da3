package solution

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Project type GUID that marks a solution folder rather than a buildable
// project. Folder entries share the Project(...) line syntax and must be
// filtered out.
const solutionFolderTypeGUID = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

var (
	slnHeaderRe = regexp.MustCompile(`^Microsoft Visual Studio Solution File, Format Version \S+`)

	// Project("{TYPE-GUID}") = "Name", "relative\path.csproj", "{PROJECT-GUID}"
	slnProjectRe = regexp.MustCompile(`(?i)^Project\("\{([A-F0-9-]+)\}"\)\s*=\s*"([^"]+)",\s*"([^"]+)",\s*"\{[A-F0-9-]+\}"`)
)

// parseSln reads the classic text-based solution format. Only project
// entries matter here; global sections, nesting metadata, and solution
// items are skipped.
func parseSln(path string) (*Solution, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer func() { _ = file.Close() }()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	sol := &Solution{
		FilePath: absPath,
		Dir:      filepath.Dir(absPath),
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	headerSeen := false
	var pending *Project
	pendingFolder := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			// Visual Studio writes .sln files with a UTF-8 BOM.
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if slnHeaderRe.MatchString(line) {
			headerSeen = true
			continue
		}

		if m := slnProjectRe.FindStringSubmatch(line); m != nil {
			if pending != nil || pendingFolder {
				return nil, &ParseError{FilePath: absPath, Line: lineNum, Message: "Project without matching EndProject"}
			}
			if strings.EqualFold(m[1], solutionFolderTypeGUID) {
				pendingFolder = true
			} else {
				pending = &Project{Name: m[2], Path: normalizePath(m[3])}
			}
			continue
		}

		if trimmed == "EndProject" {
			if pending != nil {
				sol.Projects = append(sol.Projects, *pending)
				pending = nil
			}
			pendingFolder = false
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("error reading file: %v", err)}
	}
	if pending != nil || pendingFolder {
		return nil, &ParseError{FilePath: absPath, Line: lineNum, Message: "unexpected end of file: missing EndProject"}
	}
	if !headerSeen {
		return nil, &ParseError{FilePath: absPath, Message: "missing solution file header"}
	}
	return sol, nil
}
