package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "codetutor.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "codetutor.yaml" {
			t.Errorf("expected context file=codetutor.yaml, got %v", file)
		}
	})

	t.Run("Taxonomy retry semantics", func(t *testing.T) {
		cases := []struct {
			err       *ClassifiedError
			transient bool
		}{
			{SourceUnavailable("x").Build(), false},
			{NoFilesSelected("x").Build(), false},
			{ServiceTransient("x").Build(), true},
			{ServiceTransient("x").RateLimit().Build(), true},
			{MalformedOutput("x").Build(), true},
			{ServiceFatal("x").Build(), false},
		}
		for _, c := range cases {
			if c.err.IsTransient() != c.transient {
				t.Errorf("%s: expected transient=%v", c.err.Category(), c.transient)
			}
			if c.err.CanRetry() != c.transient {
				t.Errorf("%s: expected CanRetry=%v", c.err.Category(), c.transient)
			}
		}
	})

	t.Run("Chain inspection", func(t *testing.T) {
		inner := MalformedOutput("order is not a permutation").Build()
		wrapped := fmt.Errorf("order_chapters: %w", inner)

		if !HasCategory(wrapped, CategoryMalformedOutput) {
			t.Fatal("expected category to be found through wrapping")
		}
		if GetRetryStrategy(wrapped) != RetryReprompt {
			t.Fatalf("expected reprompt strategy, got %s", GetRetryStrategy(wrapped))
		}
		if !IsTransient(wrapped) {
			t.Fatal("expected wrapped malformed output to be transient")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Fatal("plain errors classify as internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("connection reset")
	err := WrapError(originalErr, CategoryServiceTransient, "chat completion failed").
		Retryable().
		WithContext("attempt", 2).
		Build()

	if !errors.Is(err, originalErr) {
		t.Error("expected wrapped cause to be reachable")
	}
	if err.Cause() != originalErr {
		t.Error("expected cause to be preserved")
	}
	if v, ok := err.Context().Get("attempt"); !ok || v != 2 {
		t.Errorf("expected attempt context, got %v", v)
	}

	copied := err.WithContext("stage", "identify_abstractions")
	if _, ok := err.Context().Get("stage"); ok {
		t.Error("WithContext must not mutate the original error")
	}
	if s, _ := copied.Context().GetString("stage"); s != "identify_abstractions" {
		t.Errorf("expected stage on copy, got %q", s)
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	m := a.Merge(b)
	if m["a"] != 1 || m["b"] != 2 {
		t.Fatalf("unexpected merge result %v", m)
	}
	var nilCtx ErrorContext
	if got := nilCtx.Set("k", "v"); got["k"] != "v" {
		t.Fatalf("Set on nil context should allocate")
	}
}
