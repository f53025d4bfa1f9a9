package models

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

// Stage is a discrete unit of work in a run.
type Stage func(ctx context.Context, st *RunState) error

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names.
const (
	StageSelectSources        StageName = "select_sources"
	StageIdentifyAbstractions StageName = "identify_abstractions"
	StageMapRelationships     StageName = "map_relationships"
	StageOrderChapters        StageName = "order_chapters"
	StageWriteChapters        StageName = "write_chapters"
	StageAssembleTutorial     StageName = "assemble_tutorial"
)

// PhaseFor returns the phase a stage runs in.
func PhaseFor(stage StageName) Phase {
	switch stage {
	case StageSelectSources:
		return PhaseSelecting
	case StageIdentifyAbstractions:
		return PhaseIdentifying
	case StageMapRelationships:
		return PhaseMapping
	case StageOrderChapters:
		return PhaseOrdering
	case StageWriteChapters:
		return PhaseWriting
	case StageAssembleTutorial:
		return PhaseAssembling
	}
	return ""
}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying error condition is likely transient.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	return ferrors.IsTransient(e.Err)
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 6)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
