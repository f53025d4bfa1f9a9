package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// Event kinds.
const (
	KindRunStarted     = "run.started"
	KindStageStarted   = "stage.started"
	KindStageCompleted = "stage.completed"
	KindRetry          = "retry"
	KindRunCompleted   = "run.completed"
)

// Message is the JSON envelope published for every event.
type Message struct {
	Kind       string    `json:"kind"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Stage      string    `json:"stage,omitempty"`
	Step       string    `json:"step,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Result     string    `json:"result,omitempty"`
	Source     string    `json:"source,omitempty"`
	Project    string    `json:"project,omitempty"`
	OutputDir  string    `json:"output_dir,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Observer publishes run callbacks as Messages. Publish failures are logged
// and never fail the run.
type Observer struct {
	pub     Publisher
	subject string
	runID   string
	now     func() time.Time
}

var _ models.RunObserver = (*Observer)(nil)

// NewObserver returns an Observer publishing on subject (DefaultSubject when empty).
func NewObserver(pub Publisher, subject string) *Observer {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Observer{pub: pub, subject: subject, now: time.Now}
}

func (o *Observer) OnRunStart(st *models.RunState) {
	o.runID = st.RunID
	o.publish(Message{Kind: KindRunStarted, Source: st.Source.Location(), Project: st.Source.Name})
}

func (o *Observer) OnStageStart(stage models.StageName) {
	o.publish(Message{Kind: KindStageStarted, Stage: string(stage)})
}

func (o *Observer) OnStageComplete(stage models.StageName, d time.Duration, res models.StageResult) {
	o.publish(Message{
		Kind:       KindStageCompleted,
		Stage:      string(stage),
		DurationMS: d.Milliseconds(),
		Result:     string(res),
	})
}

func (o *Observer) OnRetry(stage models.StageName, step string, attempt int, _ time.Duration, err error) {
	m := Message{Kind: KindRetry, Stage: string(stage), Step: step, Attempt: attempt}
	if err != nil {
		m.Error = err.Error()
	}
	o.publish(m)
}

func (o *Observer) OnRunComplete(st *models.RunState, report *models.RunReport) {
	m := Message{Kind: KindRunCompleted, Project: st.ProjectName(), OutputDir: st.FinalOutputDir()}
	if report != nil {
		m.Result = string(report.Outcome)
		m.Phase = report.FailedPhase
		m.DurationMS = report.End.Sub(report.Start).Milliseconds()
	}
	o.publish(m)
}

func (o *Observer) publish(m Message) {
	m.RunID = o.runID
	m.Timestamp = o.now().UTC()
	data, err := json.Marshal(m)
	if err != nil {
		slog.Warn("Event marshal failed", slog.String("kind", m.Kind), logfields.Error(err))
		return
	}
	if err := o.pub.Publish(o.subject, data); err != nil {
		slog.Warn("Event publish failed",
			logfields.RunID(o.runID),
			slog.String("kind", m.Kind),
			logfields.Error(err))
		return
	}
	slog.Debug("Published event", slog.String("kind", m.Kind), slog.String("subject", o.subject))
}
