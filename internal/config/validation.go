package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	v := &configurationValidator{config: c}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateLLM(); err != nil {
		return err
	}
	if err := cv.validateRetry(); err != nil {
		return err
	}
	if err := cv.validateSource(); err != nil {
		return err
	}
	return cv.validateTutorial()
}

func (cv *configurationValidator) validateLLM() error {
	if cv.config.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if _, err := time.ParseDuration(cv.config.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm.timeout: %s", cv.config.LLM.Timeout)
	}
	if cv.config.LLM.Temperature < 0 || cv.config.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2], got %v", cv.config.LLM.Temperature)
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Retry
	if r.MaxRetries < 0 {
		return errors.New("retry.max_retries cannot be negative")
	}
	initial, err := time.ParseDuration(r.InitialDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.initial_delay: %s", r.InitialDelay)
	}
	maxDelay, err := time.ParseDuration(r.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.max_delay: %s", r.MaxDelay)
	}
	if initial > maxDelay {
		return errors.New("retry.initial_delay cannot exceed retry.max_delay")
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	for _, p := range cv.config.Source.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid include pattern: %q", p)
		}
	}
	for _, p := range cv.config.Source.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern: %q", p)
		}
	}
	return nil
}

func (cv *configurationValidator) validateTutorial() error {
	if cv.config.Tutorial.MaxAbstractions > 50 {
		return fmt.Errorf("tutorial.max_abstractions must be at most 50, got %d", cv.config.Tutorial.MaxAbstractions)
	}
	return nil
}
