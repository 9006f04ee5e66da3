// Package v2 speaks the legacy NuGet v2 OData protocol. Responses are
// Atom XML, and search is an OData filter over the Packages()
// collection rather than a dedicated endpoint.
package v2

import "strings"

// Feed is an Atom feed of package entries.
type Feed struct {
	Entries []Entry `xml:"entry"`
}

// Entry is one package version in a feed. Single-version responses
// use it as the document root.
type Entry struct {
	Properties Properties `xml:"properties"`
}

// Properties carries the OData metadata for one package version.
type Properties struct {
	ID            string `xml:"Id"`
	Version       string `xml:"Version"`
	Description   string `xml:"Description"`
	Authors       string `xml:"Authors"`
	IconURL       string `xml:"IconUrl"`
	LicenseURL    string `xml:"LicenseUrl"`
	ProjectURL    string `xml:"ProjectUrl"`
	Tags          string `xml:"Tags"`
	Dependencies  string `xml:"Dependencies"`
	DownloadCount int64  `xml:"DownloadCount"`
	Published     string `xml:"Published"`
}

// normalizeBase ensures the feed URL ends with a slash so OData
// endpoint names append cleanly.
func normalizeBase(feedURL string) string {
	if strings.HasSuffix(feedURL, "/") {
		return feedURL
	}
	return feedURL + "/"
}
