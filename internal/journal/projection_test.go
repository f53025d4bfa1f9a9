package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func event(t *testing.T, runID, typ string, at time.Time, payload any) Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Event{RunID: runID, Type: typ, Timestamp: at, Payload: data}
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	events := []Event{
		event(t, "a", TypeRunStarted, t0, RunStarted{Source: "https://github.com/o/a"}),
		event(t, "a", TypeRetryScheduled, t0.Add(time.Second), RetryScheduled{Step: "identify"}),
		event(t, "b", TypeRunStarted, t0.Add(time.Minute), RunStarted{Source: "./b", Project: "b"}),
		event(t, "a", TypeRunCompleted, t0.Add(2*time.Minute), RunCompleted{
			Outcome: "failed", Project: "a", FailedPhase: "WRITING(2)", Chapters: 1, Retries: 3,
		}),
	}

	got := Summarize(events)
	require.Len(t, got, 2)

	// newest first; b has not completed
	require.Equal(t, "b", got[0].RunID)
	require.Empty(t, got[0].Outcome)
	require.Equal(t, "b", got[0].Project)

	a := got[1]
	require.Equal(t, "https://github.com/o/a", a.Source)
	require.Equal(t, "a", a.Project)
	require.Equal(t, "failed", a.Outcome)
	require.Equal(t, "WRITING(2)", a.FailedPhase)
	require.Equal(t, 3, a.Retries)
	require.True(t, a.CompletedAt.Equal(t0.Add(2*time.Minute)))
}

func TestRunsReadsStore(t *testing.T) {
	store := openMemory(t)
	ctx := t.Context()

	data, err := json.Marshal(RunStarted{Source: "./x"})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "x", TypeRunStarted, data, nil))

	runs, err := Runs(ctx, store, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "./x", runs[0].Source)
}
