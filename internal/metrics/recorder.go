package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// LLM call outcomes.
const (
	CallSuccess   = "success"
	CallTransient = "transient"
	CallMalformed = "malformed"
	CallFatal     = "fatal"
	CallCanceled  = "canceled"
)

// Recorder defines observability hooks for runs, stages and model calls.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|failed|canceled
	ObserveLLMCall(step string, d time.Duration, outcome string)
	IncRetry(step string)
	IncRetryExhausted(step string)
	ObserveCloneDuration(d time.Duration, success bool)
	SetFilesSelected(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveRunDuration(time.Duration)             {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) IncRunOutcome(string)                         {}
func (NoopRecorder) ObserveLLMCall(string, time.Duration, string) {}
func (NoopRecorder) IncRetry(string)                              {}
func (NoopRecorder) IncRetryExhausted(string)                     {}
func (NoopRecorder) ObserveCloneDuration(time.Duration, bool)     {}
func (NoopRecorder) SetFilesSelected(int)                         {}
