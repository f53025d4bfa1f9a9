package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// tokenAuth returns HTTP basic auth for a personal access token, or nil for anonymous access.
func tokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	// GitHub and GitLab accept any username with a token password.
	return &http.BasicAuth{Username: "token", Password: token}
}
