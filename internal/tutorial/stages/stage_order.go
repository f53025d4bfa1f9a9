package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/parse"
)

// OrderChapters asks the model for the teaching order of the abstractions.
func (s *Stages) OrderChapters(ctx context.Context, st *models.RunState) error {
	abs := st.Abstractions()
	rel := st.Relationships()
	text, err := s.deps.Prompts.Render(prompt.Order, prompt.OrderData{
		Project:       st.ProjectName(),
		Language:      st.Language,
		Abstractions:  abstractionListing(abs),
		Summary:       rel.Summary,
		Relationships: relationshipListing(abs, rel.Edges),
	})
	if err != nil {
		return renderError(prompt.Order, err)
	}

	order, err := Execute(ctx, s.deps, st, Step[[]int]{
		Stage:  models.StageOrderChapters,
		Name:   parse.StepOrder,
		Prompt: text,
		Parse: func(text string) ([]int, error) {
			return parse.Order(text, len(abs))
		},
	})
	if err != nil {
		return err
	}
	if err := st.SetChapterOrder(order); err != nil {
		return err
	}
	slog.Info("Chapter order determined", logfields.RunID(st.RunID), slog.Any("order", order))
	return nil
}
