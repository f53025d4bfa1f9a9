package config

import (
	"fmt"
	"os"
	"strings"
)

// Defaults shared with the CLI help text.
const (
	DefaultModel           = "gpt-4o-mini"
	DefaultLLMTimeout      = "5m"
	DefaultLanguage        = "english"
	DefaultMaxFileSize     = 100000
	DefaultPromptBudget    = 400000
	DefaultMaxAbstractions = 10
	DefaultOutputDirectory = "output"
	DefaultNATSSubject     = "codetutor.runs"
)

// DefaultIncludePatterns covers common source and documentation files.
var DefaultIncludePatterns = []string{
	"*.py", "*.js", "*.jsx", "*.ts", "*.tsx", "*.go", "*.java", "*.pyi", "*.pyx",
	"*.c", "*.cc", "*.cpp", "*.h", "*.md", "*.rst", "Dockerfile", "Makefile",
	"*.yaml", "*.yml",
}

// DefaultExcludePatterns skips build output, tests, vendored and tooling directories.
var DefaultExcludePatterns = []string{
	"venv/*", ".venv/*", "*test*", "tests/*", "docs/*", "examples/*", "v1/*",
	"dist/*", "build/*", "experimental/*", "deprecated/*", "legacy/*",
	".git/*", ".github/*", ".next/*", ".vscode/*", "obj/*", "bin/*",
	"node_modules/*", "*.log",
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&LLMDefaultApplier{},
		&RetryDefaultApplier{},
		&SourceDefaultApplier{},
		&TutorialDefaultApplier{},
		&OutputDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

// LLMDefaultApplier handles model endpoint defaults.
type LLMDefaultApplier struct{}

func (l *LLMDefaultApplier) Domain() string { return "llm" }

func (l *LLMDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel
	}
	if cfg.LLM.Timeout == "" {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return nil
}

// RetryDefaultApplier handles retry policy defaults.
type RetryDefaultApplier struct{}

func (r *RetryDefaultApplier) Domain() string { return "retry" }

func (r *RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if mode := NormalizeRetryBackoff(string(cfg.Retry.Backoff)); mode != "" {
		cfg.Retry.Backoff = mode
	} else {
		cfg.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = "5s"
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = "60s"
	}
	if !cfg.Retry.maxRetriesSpecified && cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 4
	}
	return nil
}

// SourceDefaultApplier handles file selection defaults.
type SourceDefaultApplier struct{}

func (s *SourceDefaultApplier) Domain() string { return "source" }

func (s *SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Source.Include) == 0 {
		cfg.Source.Include = append([]string(nil), DefaultIncludePatterns...)
	}
	if cfg.Source.Exclude == nil {
		cfg.Source.Exclude = append([]string(nil), DefaultExcludePatterns...)
	}
	if cfg.Source.MaxFileSize <= 0 {
		cfg.Source.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Source.PromptBudget <= 0 {
		cfg.Source.PromptBudget = DefaultPromptBudget
	}
	return nil
}

// TutorialDefaultApplier handles generation defaults.
type TutorialDefaultApplier struct{}

func (t *TutorialDefaultApplier) Domain() string { return "tutorial" }

func (t *TutorialDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Tutorial.Language = strings.TrimSpace(cfg.Tutorial.Language)
	if cfg.Tutorial.Language == "" {
		cfg.Tutorial.Language = DefaultLanguage
	}
	if cfg.Tutorial.MaxAbstractions <= 0 {
		cfg.Tutorial.MaxAbstractions = DefaultMaxAbstractions
	}
	return nil
}

// OutputDefaultApplier handles output and observability defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if cfg.Observability.NATSURL != "" && cfg.Observability.NATSSubject == "" {
		cfg.Observability.NATSSubject = DefaultNATSSubject
	}
	return nil
}
