package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/retry"
)

// DefaultDepth keeps clones shallow; only the checked-out tree is read.
const DefaultDepth = 1

// Client clones repositories into a workspace directory.
type Client struct {
	workspaceDir string
	depth        int
	policy       retry.Policy
	sleep        func(ctx context.Context, d time.Duration) error
	recorder     metrics.Recorder
}

// NewClient creates a client that clones below workspaceDir.
func NewClient(workspaceDir string) *Client {
	return &Client{
		workspaceDir: workspaceDir,
		depth:        DefaultDepth,
		policy:       retry.DefaultPolicy(),
		recorder:     metrics.NoopRecorder{},
	}
}

// WithRetryPolicy replaces the clone retry policy.
func (c *Client) WithRetryPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

// WithRecorder reports clone durations to r.
func (c *Client) WithRecorder(r metrics.Recorder) *Client {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithDepth sets the clone depth; 0 fetches full history.
func (c *Client) WithDepth(depth int) *Client {
	if depth >= 0 {
		c.depth = depth
	}
	return c
}

// WithSleep overrides the wait between retries (used by tests).
func (c *Client) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Client {
	c.sleep = fn
	return c
}

// CloneRepository clones ref into the workspace and returns the local path of the
// requested subdirectory (or the repository root). Transient failures are retried.
func (c *Client) CloneRepository(ctx context.Context, ref RepoRef, token string) (string, error) {
	name := ref.Name
	if name == "" {
		name = repoName(ref.URL)
	}
	repoPath := filepath.Join(c.workspaceDir, name)

	start := time.Now()
	attempts, err := retry.Do(ctx, retry.Options{
		Policy:    c.policy,
		Retryable: isTransientGitError,
		Sleep:     c.sleep,
		OnRetry: func(n int, delay time.Duration, err error) {
			slog.Warn("Transient clone failure, retrying",
				logfields.Repository(ref.URL), logfields.Attempt(n), slog.Duration("delay", delay), logfields.Error(err))
		},
	}, func(ctx context.Context, _ int) error {
		return c.cloneOnce(ctx, ref, repoPath, token)
	})
	c.recorder.ObserveCloneDuration(time.Since(start), err == nil)
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return "", exhausted.Err
		}
		return "", err
	}
	slog.Info("Repository cloned", logfields.Repository(ref.URL), logfields.Path(repoPath), logfields.Attempt(attempts))

	if ref.Subdir == "" {
		return repoPath, nil
	}
	sub := filepath.Join(repoPath, filepath.FromSlash(ref.Subdir))
	if rel, relErr := filepath.Rel(repoPath, sub); relErr != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("subdirectory %q escapes repository", ref.Subdir)
	}
	info, err := os.Stat(sub)
	if err != nil || !info.IsDir() {
		return "", &NotFoundError{Op: "subdir", URL: ref.URL, Err: fmt.Errorf("%s is not a directory in the repository", ref.Subdir)}
	}
	return sub, nil
}

func (c *Client) cloneOnce(ctx context.Context, ref RepoRef, repoPath, token string) error {
	// A failed partial clone leaves a directory PlainClone refuses to reuse.
	if err := os.RemoveAll(repoPath); err != nil {
		return fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:  ref.URL,
		Auth: tokenAuth(token),
	}
	if c.depth > 0 {
		opts.Depth = c.depth
	}
	if ref.Branch != "" {
		opts.SingleBranch = true
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + ref.Branch)
	}

	slog.Debug("Cloning repository", logfields.Repository(ref.URL), slog.String("branch", ref.Branch), slog.Int("depth", c.depth))
	if _, err := git.PlainCloneContext(ctx, repoPath, false, opts); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		classified := classifyCloneError(ref.URL, err)
		if errors.As(classified, new(*RateLimitError)) {
			return ferrors.GitError("remote rate limited the clone").WithCause(classified).RateLimit().Build()
		}
		return classified
	}
	return nil
}

func classifyCloneError(url string, err error) error {
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return &NotFoundError{Op: "clone", URL: url, Err: err}
	}
	l := strings.ToLower(err.Error())
	if strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password") {
		return &AuthError{Op: "clone", URL: url, Err: err}
	}
	if strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist") || strings.Contains(l, "couldn't find remote ref") {
		return &NotFoundError{Op: "clone", URL: url, Err: err}
	}
	if strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported") {
		return &UnsupportedProtocolError{Op: "clone", URL: url, Err: err}
	}
	if strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests") {
		return &RateLimitError{Op: "clone", URL: url, Err: err}
	}
	if strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout") {
		return &NetworkTimeoutError{Op: "clone", URL: url, Err: err}
	}
	return fmt.Errorf("failed to clone repository %s: %w", url, err)
}
