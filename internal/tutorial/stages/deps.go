package stages

import (
	"context"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/assemble"
	"git.home.luguber.info/inful/codetutor/internal/llm"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/retry"
	"git.home.luguber.info/inful/codetutor/internal/source"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// Selector picks the source files for a run.
type Selector interface {
	Select(ctx context.Context, h source.Handle, opts source.Options) (*source.Selection, error)
}

// Assembler writes the finished tutorial.
type Assembler interface {
	Write(dir string, in assemble.Input) error
}

// DefaultPromptBudget caps the bytes of file content embedded in one prompt.
const DefaultPromptBudget = 400_000

// DefaultMaxAbstractions is the identification upper bound when none is configured.
const DefaultMaxAbstractions = 10

// Deps carries the collaborators shared by every stage.
type Deps struct {
	Selector        Selector
	Generator       llm.Generator
	Prompts         *prompt.Loader
	Assembler       Assembler
	Policy          retry.Policy
	Sleep           func(ctx context.Context, d time.Duration) error
	Observer        models.RunObserver
	Recorder        metrics.Recorder
	PromptBudget    int
	MaxAbstractions int
}

// Stages binds the stage functions to their dependencies.
type Stages struct {
	deps Deps
}

// New fills defaults for unset dependencies and returns the stage set.
func New(deps Deps) *Stages {
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewLoader()
	}
	if deps.Assembler == nil {
		deps.Assembler = assemble.New()
	}
	if deps.Observer == nil {
		deps.Observer = models.NoopObserver{}
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.PromptBudget == 0 {
		deps.PromptBudget = DefaultPromptBudget
	}
	if deps.MaxAbstractions <= 0 {
		deps.MaxAbstractions = DefaultMaxAbstractions
	}
	return &Stages{deps: deps}
}

// Pipeline returns the ordered stage definitions of a full run.
func (s *Stages) Pipeline() []models.StageDef {
	return models.NewPipeline().
		Add(models.StageSelectSources, s.SelectSources).
		Add(models.StageIdentifyAbstractions, s.IdentifyAbstractions).
		Add(models.StageMapRelationships, s.MapRelationships).
		Add(models.StageOrderChapters, s.OrderChapters).
		Add(models.StageWriteChapters, s.WriteChapters).
		Add(models.StageAssembleTutorial, s.AssembleTutorial).
		Build()
}
