package solution

import (
	"path/filepath"
	"strings"
)

// normalizePath converts Windows-style separators to forward slashes and
// collapses duplicate slashes, preserving the leading double slash of UNC
// paths. Solution files written on Windows use backslashes regardless of
// where they are read.
func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	isUNC := strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
	normalized := strings.ReplaceAll(path, `\`, "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	if isUNC {
		normalized = "/" + normalized
	}
	return normalized
}

// resolvePath makes a solution-relative project path absolute. Absolute
// inputs are cleaned and returned as-is.
func resolvePath(dir, path string) string {
	normalized := normalizePath(path)
	if normalized == "" {
		return ""
	}
	if filepath.IsAbs(normalized) {
		return filepath.Clean(normalized)
	}
	return filepath.Clean(filepath.Join(dir, normalized))
}
