package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// RunStages executes stages in order, recording timing and stopping on the first fatal error.
// The run phase advances to each stage's phase before it starts; on abort the
// state moves to FAILED and the report records where.
func RunStages(ctx context.Context, st *models.RunState, defs []models.StageDef, observer models.RunObserver, recorder metrics.Recorder) error {
	if observer == nil {
		observer = models.NoopObserver{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	for _, def := range defs {
		select {
		case <-ctx.Done():
			se := models.NewCanceledStageError(def.Name, ctx.Err())
			st.Report.StageErrorKinds[def.Name] = se.Kind
			st.Report.AddIssue(models.IssueCanceled, def.Name, models.SeverityError, se.Error(), false, se)
			st.Report.RecordStageResult(def.Name, models.StageResultCanceled, recorder)
			observer.OnStageComplete(def.Name, 0, models.StageResultCanceled)
			fail(st)
			return se
		default:
		}

		if p := models.PhaseFor(def.Name); p != "" && st.Phase() != p {
			if err := st.Advance(p); err != nil {
				fail(st)
				return models.NewFatalStageError(def.Name, err)
			}
		}
		st.BeginStage(def.Name)
		observer.OnStageStart(def.Name)
		slog.Debug("Stage started", logfields.RunID(st.RunID), logfields.Stage(string(def.Name)), logfields.Phase(st.PhaseString()))

		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)

		st.Report.StageDurations[string(def.Name)] = dur

		out := ClassifyStageResult(def.Name, err)
		if out.Error != nil {
			st.Report.StageErrorKinds[def.Name] = out.Error.Kind
			st.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Transient, out.Error)
		}
		st.Report.RecordStageResult(def.Name, out.Result, recorder)
		observer.OnStageComplete(def.Name, dur, out.Result)

		if out.Abort {
			fail(st)
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", def.Name)
		}
		slog.Debug("Stage complete", logfields.RunID(st.RunID), logfields.Stage(string(def.Name)), logfields.Duration(dur))
	}

	if st.Phase() != models.PhaseAssembling {
		return nil
	}
	return st.Advance(models.PhaseDone)
}

func fail(st *models.RunState) {
	if err := st.Fail(); err != nil {
		return
	}
	st.Report.FailedPhase = st.FailedAt()
}
