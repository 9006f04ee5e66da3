package panel

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/willibrandon/nupanel/host"
)

// fakeHost records every request the panel dispatches. Handle answers
// through respond when set, otherwise with a nil response the router
// ignores; tests that need a reply usually construct it directly and
// feed it through Update instead.
type fakeHost struct {
	requests []host.Request
	sources  []host.SourceRef
	respond  func(host.Request) host.Response
}

func (f *fakeHost) Handle(req host.Request) host.Response {
	f.requests = append(f.requests, req)
	if f.respond != nil {
		return f.respond(req)
	}
	return nil
}

func (f *fakeHost) Sources() []host.SourceRef { return f.sources }

func (f *fakeHost) versionsRequests() []host.VersionsRequest {
	var out []host.VersionsRequest
	for _, req := range f.requests {
		if r, ok := req.(host.VersionsRequest); ok {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeHost) autocompleteRequests() []host.AutocompleteRequest {
	var out []host.AutocompleteRequest
	for _, req := range f.requests {
		if r, ok := req.(host.AutocompleteRequest); ok {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeHost) searchRequests() []host.SearchRequest {
	var out []host.SearchRequest
	for _, req := range f.requests {
		if r, ok := req.(host.SearchRequest); ok {
			out = append(out, r)
		}
	}
	return out
}

func newTestModel(mode SearchMode) (*Model, *fakeHost) {
	fh := &fakeHost{
		sources: []host.SourceRef{
			{Name: "nuget.org", URL: "https://api.nuget.org/v3/index.json"},
			{Name: "internal", URL: "https://feed.example.com/v3/index.json"},
		},
	}
	m := New(Config{
		Host:        fh,
		ProjectPath: "testdata/App.csproj",
		SearchMode:  mode,
	})
	return m, fh
}

// drain executes a command tree synchronously, flattening batches, and
// returns every produced message. Request commands hit the fake host as
// a side effect; nothing is fed back into the model. Never drain a
// command that wraps tea.Tick, it would block until the timer fires.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
