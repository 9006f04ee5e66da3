// Package auth applies per-source credentials to outbound feed
// requests.
package auth

import "net/http"

// Authenticator mutates a request to carry a source's credentials.
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// BasicAuthenticator sends HTTP basic credentials, the scheme private
// feeds like Azure Artifacts and GitHub Packages use, usually with a
// personal access token as the password.
type BasicAuthenticator struct {
	username string
	password string
}

// NewBasicAuthenticator builds an authenticator for one source's
// credential pair.
func NewBasicAuthenticator(username, password string) *BasicAuthenticator {
	return &BasicAuthenticator{username: username, password: password}
}

// Authenticate sets the Authorization header. A fully empty credential
// pair leaves the request anonymous.
func (a *BasicAuthenticator) Authenticate(req *http.Request) error {
	if a.username == "" && a.password == "" {
		return nil
	}
	req.SetBasicAuth(a.username, a.password)
	return nil
}
