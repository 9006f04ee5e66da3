package solution

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// .slnx documents list projects either directly under <Solution> or
// grouped into arbitrarily nested <Folder> elements.
type slnxDocument struct {
	XMLName  xml.Name      `xml:"Solution"`
	Projects []slnxProject `xml:"Project"`
	Folders  []slnxFolder  `xml:"Folder"`
}

type slnxFolder struct {
	Name     string        `xml:"Name,attr"`
	Projects []slnxProject `xml:"Project"`
	Folders  []slnxFolder  `xml:"Folder"`
}

type slnxProject struct {
	Path string `xml:"Path,attr"`
	Name string `xml:"Name,attr"`
}

// parseSlnx reads the XML-based solution format introduced with .NET 9.
func parseSlnx(path string) (*Solution, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer func() { _ = file.Close() }()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	var doc slnxDocument
	if err := xml.NewDecoder(file).Decode(&doc); err != nil {
		if syntaxErr, ok := err.(*xml.SyntaxError); ok {
			return nil, &ParseError{FilePath: absPath, Line: syntaxErr.Line, Message: fmt.Sprintf("XML syntax error: %v", syntaxErr.Msg)}
		}
		return nil, &ParseError{FilePath: absPath, Message: fmt.Sprintf("failed to parse XML: %v", err)}
	}

	sol := &Solution{
		FilePath: absPath,
		Dir:      filepath.Dir(absPath),
	}
	collectSlnxProjects(doc.Projects, sol)
	for _, folder := range doc.Folders {
		collectSlnxFolder(folder, sol)
	}
	return sol, nil
}

func collectSlnxFolder(folder slnxFolder, sol *Solution) {
	collectSlnxProjects(folder.Projects, sol)
	for _, nested := range folder.Folders {
		collectSlnxFolder(nested, sol)
	}
}

func collectSlnxProjects(projects []slnxProject, sol *Solution) {
	for _, p := range projects {
		path := normalizePath(p.Path)
		if path == "" {
			continue
		}
		name := p.Name
		if name == "" {
			base := filepath.Base(path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		sol.Projects = append(sol.Projects, Project{Name: name, Path: path})
	}
}
