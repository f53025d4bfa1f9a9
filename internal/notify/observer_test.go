package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

type published struct {
	subject string
	msg     Message
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.sent = append(f.sent, published{subject: subject, msg: m})
	return nil
}

func TestObserverPublishesLifecycle(t *testing.T) {
	pub := &fakePublisher{}
	obs := NewObserver(pub, "")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	obs.now = func() time.Time { return fixed }

	st := models.NewRunState("run-7")
	st.Source = models.SourceInfo{RepoURL: "https://github.com/o/r"}

	obs.OnRunStart(st)
	obs.OnStageStart(models.StageIdentifyAbstractions)
	obs.OnRetry(models.StageIdentifyAbstractions, "identify", 1, time.Second, errors.New("boom"))
	obs.OnStageComplete(models.StageIdentifyAbstractions, 1500*time.Millisecond, models.StageResultSuccess)
	st.Report.Outcome = models.OutcomeFailed
	st.Report.FailedPhase = "MAPPING"
	obs.OnRunComplete(st, st.Report)

	require.Len(t, pub.sent, 5)
	kinds := make([]string, 0, len(pub.sent))
	for _, p := range pub.sent {
		require.Equal(t, DefaultSubject, p.subject)
		require.Equal(t, "run-7", p.msg.RunID)
		require.True(t, p.msg.Timestamp.Equal(fixed))
		kinds = append(kinds, p.msg.Kind)
	}
	require.Equal(t, []string{KindRunStarted, KindStageStarted, KindRetry, KindStageCompleted, KindRunCompleted}, kinds)

	require.Equal(t, "https://github.com/o/r", pub.sent[0].msg.Source)
	require.Equal(t, "boom", pub.sent[2].msg.Error)
	require.Equal(t, int64(1500), pub.sent[3].msg.DurationMS)
	require.Equal(t, "failed", pub.sent[4].msg.Result)
	require.Equal(t, "MAPPING", pub.sent[4].msg.Phase)
}

func TestObserverIgnoresPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no responders")}
	obs := NewObserver(pub, "custom.subject")
	st := models.NewRunState("r")
	require.NotPanics(t, func() {
		obs.OnRunStart(st)
		obs.OnRunComplete(st, nil)
	})
	require.Empty(t, pub.sent)
}
