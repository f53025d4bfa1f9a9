package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "codetutor.yaml"

// Config represents the application configuration.
type Config struct {
	LLM           LLMConfig           `yaml:"llm"`
	Retry         RetryConfig         `yaml:"retry"`
	Source        SourceConfig        `yaml:"source"`
	Tutorial      TutorialConfig      `yaml:"tutorial"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LLMConfig describes the OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"` // per call, e.g. "5m"
}

// RetryConfig controls how LLM-backed steps and clones are retried.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`

	maxRetriesSpecified bool
}

// SourceConfig holds file selection parameters.
type SourceConfig struct {
	Include      []string `yaml:"include,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
	MaxFileSize  int64    `yaml:"max_file_size"`
	PromptBudget int      `yaml:"prompt_budget"`
}

// TutorialConfig holds generation parameters.
type TutorialConfig struct {
	Language        string `yaml:"language"`
	MaxAbstractions int    `yaml:"max_abstractions"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// ObservabilityConfig enables the optional run artifacts.
type ObservabilityConfig struct {
	ReportPath      string `yaml:"report_path,omitempty"`
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`
	JournalPath     string `yaml:"journal_path,omitempty"`
	NATSURL         string `yaml:"nats_url,omitempty"`
	NATSSubject     string `yaml:"nats_subject,omitempty"`
}

// UnmarshalYAML records whether max_retries was present so that an explicit 0 survives defaults.
func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RetryConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RetryConfig(p)
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "max_retries" {
			r.maxRetriesSpecified = true
		}
	}
	return nil
}

// InitialDelayDuration parses InitialDelay, returning 0 when unset or invalid.
func (r RetryConfig) InitialDelayDuration() time.Duration { return parseDuration(r.InitialDelay) }

// MaxDelayDuration parses MaxDelay, returning 0 when unset or invalid.
func (r RetryConfig) MaxDelayDuration() time.Duration { return parseDuration(r.MaxDelay) }

// TimeoutDuration parses Timeout, returning 0 when unset or invalid.
func (l LLMConfig) TimeoutDuration() time.Duration { return parseDuration(l.Timeout) }

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file.
//
// A missing file is only an error when required is true; otherwise defaults
// (plus environment fallbacks) are returned.
func Load(configPath string, required bool) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if required {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.LLM.APIKey = "${OPENAI_API_KEY}"
	example.Observability = ObservabilityConfig{
		ReportPath:  "output/run-report.json",
		JournalPath: "codetutor-runs.db",
		NATSSubject: DefaultNATSSubject,
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
