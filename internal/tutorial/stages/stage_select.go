package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/source"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// SelectSources fills files and the project name.
func (s *Stages) SelectSources(ctx context.Context, st *models.RunState) error {
	if st.Source.RepoURL != "" && st.Source.Token == "" {
		msg := "no repository token provided; private repositories will fail and rate limits are lower"
		st.Report.AddIssue(models.IssueMissingToken, models.StageSelectSources, models.SeverityWarning, msg, false, nil)
		slog.Warn("No repository token; set --token or GITHUB_TOKEN", logfields.Repository(st.Source.RepoURL))
	}

	h := handleFor(st.Source)
	sel, err := s.deps.Selector.Select(ctx, h, source.Options{
		Include:     st.Selection.Include,
		Exclude:     st.Selection.Exclude,
		MaxFileSize: st.Selection.MaxFileSize,
	})
	if err != nil {
		return err
	}

	files := make([]models.File, len(sel.Files))
	for i, f := range sel.Files {
		files[i] = models.File{Path: f.Path, Content: f.Content}
	}
	if err := st.SetFiles(files); err != nil {
		return err
	}

	name := st.Source.Name
	if name == "" {
		name = sel.ProjectHint
	}
	if err := st.SetProjectName(name); err != nil {
		return err
	}

	st.Report.Files = len(files)
	s.deps.Recorder.SetFilesSelected(len(files))
	slog.Info("Source files selected",
		logfields.RunID(st.RunID),
		logfields.Name(st.ProjectName()),
		logfields.Count(len(files)),
		slog.Int("skipped_excluded", sel.Stats.SkippedExcluded),
		slog.Int("skipped_size", sel.Stats.SkippedSize))
	return nil
}

func handleFor(info models.SourceInfo) source.Handle {
	switch {
	case info.RepoURL != "":
		return source.Handle{Kind: source.KindRepo, RepoURL: info.RepoURL, Token: info.Token}
	case info.LocalDir != "":
		return source.Handle{Kind: source.KindDir, Dir: info.LocalDir}
	default:
		return source.Handle{Kind: source.KindFile, File: info.File}
	}
}
