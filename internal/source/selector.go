package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/git"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
)

// Cloner fetches a repository and returns the local directory to select from.
type Cloner interface {
	CloneRepository(ctx context.Context, ref git.RepoRef, token string) (string, error)
}

// Selector produces the ordered file list for a Handle.
type Selector struct {
	cloner Cloner
}

// NewSelector returns a selector; cloner may be nil when repository handles are not used.
func NewSelector(cloner Cloner) *Selector {
	return &Selector{cloner: cloner}
}

// Select resolves the handle and applies the options.
// Errors are classified: source_unavailable, no_files_selected or validation.
func (s *Selector) Select(ctx context.Context, h Handle, opts Options) (*Selection, error) {
	if err := h.Validate(); err != nil {
		return nil, ferrors.ValidationError(err.Error()).Build()
	}

	switch h.Kind {
	case KindFile:
		return selectFile(h.File)
	case KindDir:
		sel, err := selectDir(ctx, h.Dir, opts)
		if err != nil {
			return nil, err
		}
		abs, absErr := filepath.Abs(h.Dir)
		if absErr != nil {
			abs = h.Dir
		}
		sel.ProjectHint = filepath.Base(abs)
		return sel, nil
	default:
		return s.selectRepo(ctx, h, opts)
	}
}

func (s *Selector) selectRepo(ctx context.Context, h Handle, opts Options) (*Selection, error) {
	if s.cloner == nil {
		return nil, ferrors.InternalError("repository source requested without a cloner").Build()
	}
	ref, err := git.ParseRepoURL(h.RepoURL)
	if err != nil {
		return nil, unavailable("invalid repository reference", h.RepoURL, err)
	}
	dir, err := s.cloner.CloneRepository(ctx, ref, h.Token)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ferrors.CanceledError("repository clone canceled").WithCause(ctx.Err()).Build()
		}
		return nil, unavailable("failed to clone repository", h.RepoURL, err)
	}
	sel, err := selectDir(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	sel.ProjectHint = ref.Name
	return sel, nil
}

// selectFile bypasses patterns and the size ceiling: a single file always yields one entry.
func selectFile(path string) (*Selection, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user supplied input file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable("input file does not exist", path, fmt.Errorf("%w: %s", ErrSourceNotFound, path))
		}
		return nil, unavailable("failed to read input file", path, fmt.Errorf("%w: %w", ErrFileReadFailed, err))
	}
	name := filepath.Base(path)
	return &Selection{
		Root:        filepath.Dir(path),
		ProjectHint: strings.TrimSuffix(name, filepath.Ext(name)),
		Files:       []File{{Path: name, Content: toText(data)}},
		Stats:       Stats{Visited: 1, Selected: 1},
	}, nil
}

func selectDir(ctx context.Context, root string, opts Options) (*Selection, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", root)
		}
		return nil, unavailable("source directory does not exist", root, fmt.Errorf("%w: %w", ErrSourceNotFound, err))
	}

	matcher, err := NewMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, ferrors.ConfigError("invalid selection pattern").WithCause(err).Build()
	}

	sel := &Selection{Root: root}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if matcher.DirExcluded(rel) {
				sel.Stats.SkippedExcluded++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		sel.Stats.Visited++
		if !matcher.Included(rel) {
			sel.Stats.SkippedPattern++
			return nil
		}
		if matcher.Excluded(rel) {
			sel.Stats.SkippedExcluded++
			return nil
		}
		if opts.MaxFileSize > 0 {
			fi, statErr := d.Info()
			if statErr != nil {
				return statErr
			}
			if fi.Size() > opts.MaxFileSize {
				sel.Stats.SkippedSize++
				slog.Debug("Skipping file above size limit", logfields.File(rel), slog.Int64("size", fi.Size()), slog.Int64("max", opts.MaxFileSize))
				return nil
			}
		}

		data, readErr := os.ReadFile(p) // #nosec G304 -- path comes from walking the source root
		if readErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrFileReadFailed, rel, readErr)
		}
		sel.Files = append(sel.Files, File{Path: rel, Content: toText(data)})
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, ferrors.CanceledError("source selection canceled").WithCause(ctx.Err()).Build()
		}
		if !errors.Is(walkErr, ErrFileReadFailed) {
			walkErr = fmt.Errorf("%w: %w", ErrWalkFailed, walkErr)
		}
		return nil, unavailable("failed to read source directory", root, walkErr)
	}

	sort.Slice(sel.Files, func(i, j int) bool { return sel.Files[i].Path < sel.Files[j].Path })
	sel.Stats.Selected = len(sel.Files)
	if len(sel.Files) == 0 {
		return nil, ferrors.NoFilesSelected("no files matched the include patterns after filtering").
			WithCause(ErrNoFiles).
			WithContext("source", root).
			WithContext("visited", sel.Stats.Visited).
			Build()
	}

	slog.Info("Selected source files",
		logfields.Path(root),
		logfields.Count(len(sel.Files)),
		slog.Int("skipped_pattern", sel.Stats.SkippedPattern),
		slog.Int("skipped_excluded", sel.Stats.SkippedExcluded),
		slog.Int("skipped_size", sel.Stats.SkippedSize))
	return sel, nil
}

func toText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
