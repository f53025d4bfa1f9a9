package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/version"
)

// RunOutcome is the typed enumeration of final run result states.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeWarning  RunOutcome = "warning"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// RunReport captures high-level metrics about a tutorial generation run.
type RunReport struct {
	SchemaVersion    int
	RunID            string
	Version          string
	Start            time.Time
	End              time.Time
	Source           string
	Files            int
	TruncatedFiles   int
	Abstractions     int
	Chapters         int
	OutputDir        string
	Errors           []error // fatal errors causing run abortion (at most one)
	Warnings         []error // non-fatal issues
	StageDurations   map[string]time.Duration
	StageErrorKinds  map[StageName]StageErrorKind
	StageCounts      map[StageName]StageCount
	LLMCalls         int  // model invocations, including failed attempts
	Retries          int  // total retry attempts across all steps
	RetriesExhausted bool // true if any step exhausted its retry budget
	FailedPhase      string
	ErrorKind        string
	Outcome          RunOutcome
	Issues           []ReportIssue
}

// NewRunReport constructs a new RunReport.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		SchemaVersion:   1,
		RunID:           runID,
		Version:         version.Version,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are stable contract and should only be appended (no reuse on removal).
type ReportIssueCode string

const (
	IssueSourceUnavailable ReportIssueCode = "SOURCE_UNAVAILABLE"
	IssueNoFilesSelected   ReportIssueCode = "NO_FILES_SELECTED"
	IssueServiceTransient  ReportIssueCode = "SERVICE_TRANSIENT"
	IssueMalformedOutput   ReportIssueCode = "MALFORMED_MODEL_OUTPUT"
	IssueServiceFatal      ReportIssueCode = "SERVICE_FATAL"
	IssueCanceled          ReportIssueCode = "RUN_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
	IssueFilesTruncated    ReportIssueCode = "FILES_TRUNCATED"
	IssueMissingToken      ReportIssueCode = "MISSING_TOKEN"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem encountered.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings slices.
func (r *RunReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, transient bool, err error) {
	issue := ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Transient: transient}
	r.Issues = append(r.Issues, issue)
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// Finish sets the end time of the report.
func (r *RunReport) Finish() { r.End = time.Now() }

// RecordStageResult updates counters and emits metrics (if recorder non-nil).
func (r *RunReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	label := metrics.ResultLabel("")
	switch res {
	case StageResultSuccess:
		sc.Success++
		label = metrics.ResultSuccess
	case StageResultWarning:
		sc.Warning++
		label = metrics.ResultWarning
	case StageResultFatal:
		sc.Fatal++
		label = metrics.ResultFatal
	case StageResultCanceled:
		sc.Canceled++
		label = metrics.ResultCanceled
	case StageResultSkipped:
		// No counters for skipped yet
	}
	if recorder != nil && label != "" {
		recorder.IncStageResult(string(stage), label)
	}
	r.StageCounts[stage] = sc
}

// Summary returns a human-readable single-line summary.
func (r *RunReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("run=%s files=%d abstractions=%d chapters=%d llm_calls=%d retries=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.RunID, r.Files, r.Abstractions, r.Chapters, r.LLMCalls, r.Retries, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), string(r.Outcome))
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *RunReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report as JSON to path atomically.
func (r *RunReport) Persist(path string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure directory for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// RunReportSerializable is the JSON form of RunReport.
type RunReportSerializable struct {
	SchemaVersion    int                   `json:"schema_version"`
	RunID            string                `json:"run_id"`
	Version          string                `json:"version"`
	Start            time.Time             `json:"start"`
	End              time.Time             `json:"end"`
	Source           string                `json:"source"`
	Files            int                   `json:"files"`
	TruncatedFiles   int                   `json:"truncated_files"`
	Abstractions     int                   `json:"abstractions"`
	Chapters         int                   `json:"chapters"`
	OutputDir        string                `json:"output_dir,omitempty"`
	Errors           []string              `json:"errors"`
	Warnings         []string              `json:"warnings"`
	StageDurations   map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds  map[string]string     `json:"stage_error_kinds"`
	StageCounts      map[string]StageCount `json:"stage_counts"`
	LLMCalls         int                   `json:"llm_calls"`
	Retries          int                   `json:"retries"`
	RetriesExhausted bool                  `json:"retries_exhausted"`
	FailedPhase      string                `json:"failed_phase,omitempty"`
	ErrorKind        string                `json:"error_kind,omitempty"`
	Outcome          string                `json:"outcome"`
	Issues           []ReportIssue         `json:"issues"`
}

// SanitizedCopy returns a copy with error fields converted to strings for JSON friendliness.
func (r *RunReport) SanitizedCopy() *RunReportSerializable {
	durations := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[k] = v.Milliseconds()
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	counts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		counts[string(k)] = v
	}
	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}

	s := &RunReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		RunID:            r.RunID,
		Version:          r.Version,
		Start:            r.Start,
		End:              r.End,
		Source:           r.Source,
		Files:            r.Files,
		TruncatedFiles:   r.TruncatedFiles,
		Abstractions:     r.Abstractions,
		Chapters:         r.Chapters,
		OutputDir:        r.OutputDir,
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		StageDurations:   durations,
		StageErrorKinds:  sek,
		StageCounts:      counts,
		LLMCalls:         r.LLMCalls,
		Retries:          r.Retries,
		RetriesExhausted: r.RetriesExhausted,
		FailedPhase:      r.FailedPhase,
		ErrorKind:        r.ErrorKind,
		Outcome:          string(r.Outcome),
		Issues:           issues,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}
