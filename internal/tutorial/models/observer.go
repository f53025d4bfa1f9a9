package models

import (
	"time"

	"git.home.luguber.info/inful/codetutor/internal/metrics"
)

// RunObserver receives callbacks around stage execution and the run lifecycle.
// The journal, notifier and metrics recorder all hook in through it.
type RunObserver interface {
	OnRunStart(st *RunState)
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnRetry(stage StageName, step string, attempt int, delay time.Duration, err error)
	OnRunComplete(st *RunState, report *RunReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(_ *RunState)                                         {}
func (NoopObserver) OnStageStart(_ StageName)                                       {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult)    {}
func (NoopObserver) OnRetry(_ StageName, _ string, _ int, _ time.Duration, _ error) {}
func (NoopObserver) OnRunComplete(_ *RunState, _ *RunReport)                        {}

// RecorderObserver adapts metrics.Recorder into a RunObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnRunStart(_ *RunState)   {}
func (r RecorderObserver) OnStageStart(_ StageName) {}
func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnRetry(_ StageName, step string, _ int, _ time.Duration, _ error) {
	if r.Recorder != nil {
		r.Recorder.IncRetry(step)
	}
}

func (r RecorderObserver) OnRunComplete(_ *RunState, report *RunReport) {
	if r.Recorder != nil && report != nil {
		r.Recorder.ObserveRunDuration(report.End.Sub(report.Start))
		r.Recorder.IncRunOutcome(string(report.Outcome))
	}
}

// MultiObserver fans callbacks out to every observer in order.
type MultiObserver []RunObserver

func (m MultiObserver) OnRunStart(st *RunState) {
	for _, o := range m {
		o.OnRunStart(st)
	}
}

func (m MultiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m MultiObserver) OnStageComplete(stage StageName, d time.Duration, res StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, res)
	}
}

func (m MultiObserver) OnRetry(stage StageName, step string, attempt int, delay time.Duration, err error) {
	for _, o := range m {
		o.OnRetry(stage, step, attempt, delay, err)
	}
}

func (m MultiObserver) OnRunComplete(st *RunState, report *RunReport) {
	for _, o := range m {
		o.OnRunComplete(st, report)
	}
}
