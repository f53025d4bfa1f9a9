package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/codetutor/internal/assemble"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/parse"
)

// WriteChapters writes one chapter per position in the chapter order,
// strictly in sequence. Each chapter is a fold step over the synopsis of the
// chapters before it; a failing chapter is retried alone and the chapters
// already written are kept.
func (s *Stages) WriteChapters(ctx context.Context, st *models.RunState) error {
	abs := st.Abstractions()
	order := st.ChapterOrder()
	files := st.Files()

	filenames := make([]string, len(order))
	var listing strings.Builder
	for k, idx := range order {
		filenames[k] = assemble.ChapterFilename(k+1, abs[idx].Name)
		fmt.Fprintf(&listing, "%d. [%s](%s)\n", k+1, abs[idx].Name, filenames[k])
	}

	synopsis := Synopsis{}
	for k := range order {
		if k > 0 {
			if err := st.AdvanceChapter(k); err != nil {
				return err
			}
		}
		a := abs[order[k]]
		number := k + 1

		data := prompt.ChapterData{
			Project:      st.ProjectName(),
			Language:     st.Language,
			Number:       number,
			Name:         a.Name,
			Description:  a.Description,
			Chapters:     listing.String(),
			Synopsis:     synopsis.String(),
			RelatedFiles: chapterFiles(files, a.FileIndices, s.deps.PromptBudget),
		}
		if k > 0 {
			data.Previous = fmt.Sprintf("[%s](%s)", abs[order[k-1]].Name, filenames[k-1])
		}
		if k < len(order)-1 {
			data.Next = fmt.Sprintf("[%s](%s)", abs[order[k+1]].Name, filenames[k+1])
		}
		text, err := s.deps.Prompts.Render(prompt.Chapter, data)
		if err != nil {
			return renderError(prompt.Chapter, err)
		}

		chapter, err := Execute(ctx, s.deps, st, Step[string]{
			Stage:   models.StageWriteChapters,
			Name:    parse.StepChapter,
			Chapter: number,
			Prompt:  text,
			Parse: func(text string) (string, error) {
				return parse.Chapter(text, number, a.Name)
			},
		})
		if err != nil {
			return err
		}
		if err := st.AppendChapter(chapter); err != nil {
			return err
		}
		synopsis = synopsis.With(number, a.Name, chapter)
		st.Report.Chapters = len(st.Chapters())
		slog.Info("Chapter written", logfields.RunID(st.RunID), logfields.Chapter(number), logfields.Name(a.Name))
	}
	return nil
}

func chapterFiles(files []models.File, indices []int, budget int) string {
	if len(indices) == 0 {
		return ""
	}
	fitted, _ := prompt.FitBudget(promptFiles(files, indices), budget)
	return prompt.FileContext(fitted)
}
