package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/parse"
)

// IdentifyAbstractions asks the model for the core abstractions of the project.
func (s *Stages) IdentifyAbstractions(ctx context.Context, st *models.RunState) error {
	files := st.Files()
	fitted, truncated := prompt.FitBudget(promptFiles(files, allIndices(len(files))), s.deps.PromptBudget)
	if truncated > 0 {
		msg := fmt.Sprintf("%d of %d files truncated to fit the %d byte prompt budget", truncated, len(files), s.deps.PromptBudget)
		st.Report.TruncatedFiles = truncated
		st.Report.AddIssue(models.IssueFilesTruncated, models.StageIdentifyAbstractions, models.SeverityWarning, msg, false,
			models.NewWarnStageError(models.StageIdentifyAbstractions, errors.New(msg)))
		slog.Warn("Prompt budget exceeded; largest files truncated", logfields.RunID(st.RunID), logfields.Count(truncated))
	}

	text, err := s.deps.Prompts.Render(prompt.Identify, prompt.IdentifyData{
		Project:         st.ProjectName(),
		Language:        st.Language,
		FileContext:     prompt.FileContext(fitted),
		FileListing:     prompt.FileListing(fitted),
		MaxAbstractions: s.deps.MaxAbstractions,
	})
	if err != nil {
		return renderError(prompt.Identify, err)
	}

	abs, err := Execute(ctx, s.deps, st, Step[[]models.Abstraction]{
		Stage:  models.StageIdentifyAbstractions,
		Name:   parse.StepIdentify,
		Prompt: text,
		Parse: func(text string) ([]models.Abstraction, error) {
			return parse.Abstractions(text, len(files), s.deps.MaxAbstractions)
		},
	})
	if err != nil {
		return err
	}
	if err := st.SetAbstractions(abs); err != nil {
		return err
	}
	st.Report.Abstractions = len(abs)
	slog.Info("Abstractions identified", logfields.RunID(st.RunID), logfields.Count(len(abs)))
	return nil
}

func renderError(name string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryInternal, "render "+name+" prompt").Build()
}
