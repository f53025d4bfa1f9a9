package tutorial

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/stages"
)

// Request describes one run.
type Request struct {
	Source     models.SourceInfo
	Selection  models.SelectionParams
	Language   string
	OutputRoot string
}

// Orchestrator wires the stages and runs them.
type Orchestrator struct {
	deps      stages.Deps
	observers []models.RunObserver
	newRunID  func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds an observer notified of run, stage and retry events.
func WithObserver(o models.RunObserver) Option {
	return func(orc *Orchestrator) {
		if o != nil {
			orc.observers = append(orc.observers, o)
		}
	}
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) Option {
	return func(orc *Orchestrator) { orc.newRunID = fn }
}

// NewOrchestrator creates an Orchestrator. deps.Observer is replaced by the
// combination of the metrics recorder and the configured observers.
func NewOrchestrator(deps stages.Deps, opts ...Option) *Orchestrator {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	o := &Orchestrator{
		deps:     deps,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline once. The state and report are returned even on
// failure; the error is a *RunError.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*models.RunState, *models.RunReport, error) {
	st := models.NewRunState(o.newRunID())
	st.Source = req.Source
	st.Selection = req.Selection
	st.Language = req.Language
	st.OutputRoot = req.OutputRoot
	st.Report.Source = req.Source.Location()

	observer := make(models.MultiObserver, 0, len(o.observers)+1)
	observer = append(observer, models.RecorderObserver{Recorder: o.deps.Recorder})
	observer = append(observer, o.observers...)

	deps := o.deps
	deps.Observer = observer
	pipeline := stages.New(deps).Pipeline()

	observer.OnRunStart(st)
	slog.Info("Run started", logfields.RunID(st.RunID), logfields.Repository(st.Source.Location()))

	err := stages.RunStages(ctx, st, pipeline, observer, deps.Recorder)

	st.Report.Finish()
	st.Report.DeriveOutcome()
	var runErr *RunError
	if err != nil {
		runErr = newRunError(st, err)
		st.Report.ErrorKind = string(runErr.Kind)
	}
	observer.OnRunComplete(st, st.Report)

	if runErr != nil {
		slog.Error("Run failed", logfields.RunID(st.RunID), logfields.Phase(runErr.Phase), slog.String("kind", string(runErr.Kind)), logfields.Error(err))
		return st, st.Report, runErr
	}
	slog.Info("Run complete", logfields.RunID(st.RunID), logfields.Path(st.FinalOutputDir()), slog.String("summary", st.Report.Summary()))
	return st, st.Report, nil
}
