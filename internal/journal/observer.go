package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

const appendTimeout = 5 * time.Second

// Observer journals run lifecycle callbacks. A journal failure is logged and
// never fails the run.
type Observer struct {
	store Store
	runID string
}

var _ models.RunObserver = (*Observer)(nil)

// NewObserver returns an Observer writing to store.
func NewObserver(store Store) *Observer {
	return &Observer{store: store}
}

func (o *Observer) OnRunStart(st *models.RunState) {
	o.runID = st.RunID
	o.append(TypeRunStarted, RunStarted{
		Source:   st.Source.Location(),
		Project:  st.Source.Name,
		Language: st.Language,
	})
}

func (o *Observer) OnStageStart(stage models.StageName) {
	o.append(TypeStageStarted, StageStarted{Stage: string(stage)})
}

func (o *Observer) OnStageComplete(stage models.StageName, d time.Duration, res models.StageResult) {
	o.append(TypeStageCompleted, StageCompleted{
		Stage:      string(stage),
		DurationMS: d.Milliseconds(),
		Result:     string(res),
	})
}

func (o *Observer) OnRetry(stage models.StageName, step string, attempt int, delay time.Duration, err error) {
	ev := RetryScheduled{
		Stage:   string(stage),
		Step:    step,
		Attempt: attempt,
		DelayMS: delay.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	o.append(TypeRetryScheduled, ev)
}

func (o *Observer) OnRunComplete(st *models.RunState, report *models.RunReport) {
	ev := RunCompleted{Project: st.ProjectName()}
	if report != nil {
		ev.Outcome = string(report.Outcome)
		ev.Files = report.Files
		ev.Chapters = report.Chapters
		ev.LLMCalls = report.LLMCalls
		ev.Retries = report.Retries
		ev.OutputDir = report.OutputDir
		ev.FailedPhase = report.FailedPhase
		ev.ErrorKind = report.ErrorKind
		ev.DurationMS = report.End.Sub(report.Start).Milliseconds()
	}
	o.append(TypeRunCompleted, ev)
}

func (o *Observer) append(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Journal payload marshal failed", slog.String("event", eventType), logfields.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	if err := o.store.Append(ctx, o.runID, eventType, data, nil); err != nil {
		slog.Warn("Journal append failed",
			logfields.RunID(o.runID),
			slog.String("event", eventType),
			logfields.Error(err))
	}
}
