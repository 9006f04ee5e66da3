package cache

import (
	"strconv"
	"strings"
)

// AllSources is the sentinel source value meaning "aggregate across all
// enabled sources".
const AllSources = "all"

// VersionsKey derives the cache key for a package's version list.
//
// Package identifiers are case-insensitive, so the id is lowercased.
// The AllSources sentinel collapses to the empty string: a list fetched
// under "all" is reusable when the user narrows to a single source that
// the aggregate already covered.
func VersionsKey(packageID, source string, includePrerelease bool) string {
	return strings.ToLower(packageID) + "|" + neutralSource(source) + "|" + strconv.FormatBool(includePrerelease)
}

// MetadataKey derives the cache key for a package metadata record.
// Identifiers and versions are case-insensitive.
func MetadataKey(packageID, packageVersion, source string) string {
	return strings.ToLower(packageID) + "@" + strings.ToLower(packageVersion) + "|" + neutralSource(source)
}

func neutralSource(source string) string {
	if source == AllSources {
		return ""
	}
	return source
}
