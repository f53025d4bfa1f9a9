package git

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// RepoRef identifies what to clone and which part of it to read.
type RepoRef struct {
	URL    string // clone URL
	Branch string // empty means the remote default branch
	Subdir string // optional path inside the repository, slash separated
	Name   string // repository name, used for the project name
}

// ParseRepoURL accepts clone URLs, GitHub tree URLs and the owner/repo shorthand.
//
//	https://github.com/owner/repo
//	https://github.com/owner/repo.git
//	https://github.com/owner/repo/tree/main/pkg/core
//	owner/repo
//	git@github.com:owner/repo.git
func ParseRepoURL(raw string) (RepoRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepoRef{}, fmt.Errorf("empty repository reference")
	}

	if strings.HasPrefix(raw, "git@") || strings.HasPrefix(raw, "ssh://") {
		return RepoRef{URL: raw, Name: repoName(raw)}, nil
	}

	if !strings.Contains(raw, "://") {
		parts := strings.Split(strings.Trim(raw, "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return RepoRef{}, fmt.Errorf("invalid repository reference %q: expected URL or owner/repo", raw)
		}
		raw = "https://github.com/" + parts[0] + "/" + parts[1]
	}

	u, err := url.Parse(raw)
	if err != nil {
		return RepoRef{}, fmt.Errorf("invalid repository URL %q: %w", raw, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "file" {
		return RepoRef{}, &UnsupportedProtocolError{Op: "parse", URL: raw, Err: fmt.Errorf("scheme %q", u.Scheme)}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	ref := RepoRef{}
	// owner/repo/tree/<branch>/<subdir...>
	if len(segments) >= 4 && segments[2] == "tree" {
		ref.Branch = segments[3]
		if len(segments) > 4 {
			ref.Subdir = path.Join(segments[4:]...)
		}
		u.Path = "/" + segments[0] + "/" + segments[1]
	}
	u.RawQuery = ""
	u.Fragment = ""
	ref.URL = u.String()
	ref.Name = repoName(ref.URL)
	return ref, nil
}

func repoName(u string) string {
	u = strings.TrimSuffix(strings.TrimRight(u, "/"), ".git")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		return u[i+1:]
	}
	return u
}
