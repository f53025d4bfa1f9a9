package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codetutor/internal/config"
	"git.home.luguber.info/inful/codetutor/internal/retry"
)

// initRepo creates a local repository with the given files committed on its default branch.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "origin")
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return dir
}

func TestCloneRepositoryLocal(t *testing.T) {
	origin := initRepo(t, map[string]string{
		"main.go":          "package main\n",
		"pkg/core/core.go": "package core\n",
	})
	ws := t.TempDir()
	c := NewClient(ws).WithDepth(0)

	path, err := c.CloneRepository(context.Background(), RepoRef{URL: origin, Name: "origin"}, "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(ws, "origin"), path)
	require.FileExists(t, filepath.Join(path, "main.go"))

	sub, err := c.CloneRepository(context.Background(), RepoRef{URL: origin, Name: "origin", Subdir: "pkg/core"}, "")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(sub, "core.go"))
}

func TestCloneRepositoryMissingSubdir(t *testing.T) {
	origin := initRepo(t, map[string]string{"main.go": "package main\n"})
	c := NewClient(t.TempDir()).WithDepth(0)

	_, err := c.CloneRepository(context.Background(), RepoRef{URL: origin, Name: "origin", Subdir: "nope"}, "")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCloneRepositoryMissingRemoteIsNotRetried(t *testing.T) {
	sleeps := 0
	c := NewClient(t.TempDir()).
		WithDepth(0).
		WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)).
		WithSleep(func(context.Context, time.Duration) error { sleeps++; return nil })

	_, err := c.CloneRepository(context.Background(), RepoRef{URL: filepath.Join(t.TempDir(), "missing"), Name: "missing"}, "")
	require.Error(t, err)
	require.Zero(t, sleeps, "permanent failures must not be retried")
}

func TestClassifyCloneError(t *testing.T) {
	cases := []struct {
		msg    string
		target any
	}{
		{"authentication required", new(*AuthError)},
		{"repository not found", new(*NotFoundError)},
		{"unsupported protocol scheme", new(*UnsupportedProtocolError)},
		{"429 Too Many Requests", new(*RateLimitError)},
		{"dial tcp: i/o timeout", new(*NetworkTimeoutError)},
	}
	for _, tc := range cases {
		err := classifyCloneError("https://example.com/r.git", errors.New(tc.msg))
		if !errors.As(err, tc.target) {
			t.Fatalf("%q: expected %T, got %T (%v)", tc.msg, tc.target, err, err)
		}
	}
	plain := classifyCloneError("https://example.com/r.git", errors.New("something odd"))
	require.Contains(t, plain.Error(), "failed to clone repository")
}

func TestTransientClassification(t *testing.T) {
	if !isTransientGitError(&RateLimitError{Op: "clone", Err: errors.New("slow down")}) {
		t.Fatalf("rate limit should be transient")
	}
	if !isTransientGitError(&NetworkTimeoutError{Op: "clone", Err: errors.New("i/o timeout")}) {
		t.Fatalf("timeout should be transient")
	}
	if isTransientGitError(&AuthError{Op: "clone", Err: errors.New("denied")}) {
		t.Fatalf("auth failure should be permanent")
	}
	if isTransientGitError(errors.New("unknown")) {
		t.Fatalf("unknown errors should not be retried")
	}
}

func TestTokenAuth(t *testing.T) {
	require.Nil(t, tokenAuth(""))
	require.NotNil(t, tokenAuth("abc"))
}
