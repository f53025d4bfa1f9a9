package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/parse"
)

// MapRelationships asks the model for a project summary and the edges between abstractions.
func (s *Stages) MapRelationships(ctx context.Context, st *models.RunState) error {
	abs := st.Abstractions()
	text, err := s.deps.Prompts.Render(prompt.Relationships, prompt.RelationshipsData{
		Project:      st.ProjectName(),
		Language:     st.Language,
		Abstractions: abstractionListing(abs),
		Context:      abstractionContext(st.Files(), abs, s.deps.PromptBudget),
		MaxIndex:     len(abs) - 1,
	})
	if err != nil {
		return renderError(prompt.Relationships, err)
	}

	rel, err := Execute(ctx, s.deps, st, Step[models.Relationships]{
		Stage:  models.StageMapRelationships,
		Name:   parse.StepRelationships,
		Prompt: text,
		Parse: func(text string) (models.Relationships, error) {
			return parse.Relationships(text, len(abs))
		},
	})
	if err != nil {
		return err
	}
	if err := st.SetRelationships(rel); err != nil {
		return err
	}
	slog.Info("Relationships mapped", logfields.RunID(st.RunID), logfields.Count(len(rel.Edges)))
	return nil
}
