package models

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codetutor/internal/metrics"
)

type stageResultRecorder struct {
	metrics.NoopRecorder
	results []string
}

func (r *stageResultRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.results = append(r.results, stage+"="+string(res))
}

func TestRunReportDeriveOutcome(t *testing.T) {
	r := NewRunReport("run-1")
	r.DeriveOutcome()
	require.Equal(t, OutcomeSuccess, r.Outcome)

	r.AddIssue(IssueFilesTruncated, StageIdentifyAbstractions, SeverityWarning, "2 files truncated", false, errors.New("truncated"))
	r.DeriveOutcome()
	require.Equal(t, OutcomeWarning, r.Outcome)

	r.AddIssue(IssueServiceFatal, StageOrderChapters, SeverityError, "boom", false, NewFatalStageError(StageOrderChapters, errors.New("boom")))
	r.DeriveOutcome()
	require.Equal(t, OutcomeFailed, r.Outcome)

	c := NewRunReport("run-2")
	c.AddIssue(IssueCanceled, StageWriteChapters, SeverityError, "canceled", false, NewCanceledStageError(StageWriteChapters, errors.New("ctx")))
	c.DeriveOutcome()
	require.Equal(t, OutcomeCanceled, c.Outcome)
}

func TestRunReportRecordStageResult(t *testing.T) {
	r := NewRunReport("run-1")
	rec := &stageResultRecorder{}
	r.RecordStageResult(StageSelectSources, StageResultSuccess, rec)
	r.RecordStageResult(StageWriteChapters, StageResultFatal, rec)
	r.RecordStageResult(StageAssembleTutorial, StageResultSkipped, rec)

	require.Equal(t, 1, r.StageCounts[StageSelectSources].Success)
	require.Equal(t, 1, r.StageCounts[StageWriteChapters].Fatal)
	require.Equal(t, []string{"select_sources=success", "write_chapters=fatal"}, rec.results)
}

func TestRunReportPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")

	r := NewRunReport("run-1")
	r.Files = 3
	r.LLMCalls = 7
	r.Retries = 2
	r.AddIssue(IssueMalformedOutput, StageOrderChapters, SeverityError, "bad yaml", false, errors.New("bad yaml"))
	require.NoError(t, r.Persist(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "run-1", got["run_id"])
	require.Equal(t, "failed", got["outcome"])
	require.EqualValues(t, 7, got["llm_calls"])
	require.Equal(t, []any{"bad yaml"}, got["errors"])

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestStageErrorTransient(t *testing.T) {
	se := NewWarnStageError(StageSelectSources, errors.New("plain"))
	require.False(t, se.Transient())
	require.Contains(t, se.Error(), "warning stage select_sources")

	var nilErr *StageError
	require.False(t, nilErr.Transient())
}

func TestPipelineBuilder(t *testing.T) {
	defs := NewPipeline().
		Add(StageSelectSources, nil).
		AddIf(false, StageIdentifyAbstractions, nil).
		Add(StageAssembleTutorial, nil).
		Build()
	require.Len(t, defs, 2)
	require.Equal(t, StageAssembleTutorial, defs[1].Name)
}
