package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/llm"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/retry"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/parse"
)

// Step is one model-backed call: a prompt and the parser that validates the answer.
type Step[T any] struct {
	Stage   models.StageName
	Name    string // metrics label
	Chapter int    // 1-based chapter number, 0 outside write_chapters
	Prompt  string
	Parse   func(text string) (T, error)
}

// Execute runs step under the retry policy. Transient service failures are
// retried with backoff; a rejected answer is retried at once with a
// corrective prompt naming the reason. Each attempt counts as one model call.
func Execute[T any](ctx context.Context, d Deps, st *models.RunState, step Step[T]) (T, error) {
	var result T
	current := step.Prompt
	attrs := []any{logfields.RunID(st.RunID), logfields.Stage(step.Name)}
	if step.Chapter > 0 {
		attrs = append(attrs, logfields.Chapter(step.Chapter))
	}

	_, err := retry.Do(ctx, retry.Options{
		Policy: d.Policy,
		Sleep:  d.Sleep,
		OnRetry: func(n int, delay time.Duration, err error) {
			st.Report.Retries++
			slog.Warn("Retrying model call", append(attrs, logfields.Attempt(n), logfields.Duration(delay), logfields.Error(err))...)
			d.Observer.OnRetry(step.Stage, step.Name, n, delay, err)
		},
	}, func(ctx context.Context, _ int) error {
		st.Report.LLMCalls++
		text, err := d.Generator.Generate(llm.WithStep(ctx, step.Name), current)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return llm.Classify(err)
		}
		v, err := step.Parse(text)
		if err != nil {
			if ferrors.GetRetryStrategy(err) == ferrors.RetryReprompt {
				current = prompt.Corrective(step.Prompt, parse.Reason(err))
			}
			return err
		}
		result = v
		return nil
	})
	if err == nil {
		return result, nil
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		st.Report.RetriesExhausted = true
		d.Recorder.IncRetryExhausted(step.Name)
		slog.Error("Model call retries exhausted", append(attrs, logfields.Attempt(exhausted.Attempts), logfields.Error(exhausted.Err))...)
	}
	if step.Chapter > 0 {
		return result, fmt.Errorf("%s chapter %d: %w", step.Name, step.Chapter, err)
	}
	return result, fmt.Errorf("%s: %w", step.Name, err)
}
