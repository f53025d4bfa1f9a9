package llm

import (
	"context"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
)

type stepKey struct{}

// WithStep tags ctx with the pipeline step issuing the call, used as a metrics label.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey{}, step)
}

// StepFrom returns the step set by WithStep or "unknown".
func StepFrom(ctx context.Context) string {
	if s, ok := ctx.Value(stepKey{}).(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Metered wraps a Generator with a per-call timeout, debug logging and call metrics.
type Metered struct {
	next     Generator
	timeout  time.Duration
	recorder metrics.Recorder
	model    string
}

// NewMetered wraps next. A zero timeout leaves deadlines to the caller.
func NewMetered(next Generator, model string, timeout time.Duration, recorder metrics.Recorder) *Metered {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Metered{next: next, timeout: timeout, recorder: recorder, model: model}
}

func (m *Metered) Generate(ctx context.Context, prompt string) (string, error) {
	step := StepFrom(ctx)
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Debug("Calling language model", logfields.Model(m.model), logfields.Stage(step), slog.Int("prompt_bytes", len(prompt)))
	out, err := m.next.Generate(callCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		// the caller's own cancellation is not a timeout of this call
		if ctx.Err() != nil {
			err = ferrors.CanceledError("model call canceled").WithCause(ctx.Err()).Build()
		} else {
			err = Classify(err)
		}
		m.recorder.ObserveLLMCall(step, elapsed, outcomeFor(err))
		slog.Debug("Language model call failed", logfields.Model(m.model), logfields.Stage(step), logfields.Duration(elapsed), logfields.Error(err))
		return "", err
	}
	m.recorder.ObserveLLMCall(step, elapsed, metrics.CallSuccess)
	slog.Debug("Language model call complete", logfields.Model(m.model), logfields.Stage(step),
		logfields.Duration(elapsed), slog.Int("response_bytes", len(out)))
	return out, nil
}

func outcomeFor(err error) string {
	switch ferrors.GetCategory(err) {
	case ferrors.CategoryServiceTransient:
		return metrics.CallTransient
	case ferrors.CategoryMalformedOutput:
		return metrics.CallMalformed
	case ferrors.CategoryCanceled:
		return metrics.CallCanceled
	default:
		return metrics.CallFatal
	}
}
