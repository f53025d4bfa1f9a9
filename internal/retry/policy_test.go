package retry

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/codetutor/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected default policy %s", p)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %s", p)
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{Backoff: "Exponential", InitialDelay: "250ms", MaxDelay: "4s", MaxRetries: 3})
	if p.Mode != config.RetryBackoffExponential {
		t.Fatalf("expected exponential got %s", p.Mode)
	}
	if p.Initial != 250*time.Millisecond || p.Max != 4*time.Second || p.MaxRetries != 3 {
		t.Fatalf("unexpected policy %s", p)
	}
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	cases := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"linear 1", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 1, 100 * time.Millisecond},
		{"linear 2", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 2, 200 * time.Millisecond},
		{"linear cap", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 3, 250 * time.Millisecond},
		{"exp 1", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 1, 50 * time.Millisecond},
		{"exp 2", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 2, 100 * time.Millisecond},
		{"exp cap", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 3, 160 * time.Millisecond},
		{"exp huge attempt", NewPolicy(config.RetryBackoffExponential, time.Second, time.Minute, 5), 80, time.Minute},
		{"zero attempt", NewPolicy(config.RetryBackoffLinear, 10*time.Millisecond, 20*time.Millisecond, 1), 0, 0},
		{"negative attempt", NewPolicy(config.RetryBackoffLinear, 10*time.Millisecond, 20*time.Millisecond, 1), -1, 0},
	}
	for _, c := range cases {
		if got := c.policy.Delay(c.attempt); got != c.want {
			t.Fatalf("%s: expected %v got %v", c.name, c.want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	bad := []Policy{
		{Mode: config.RetryBackoffLinear, Initial: 0, Max: time.Second, MaxRetries: 1},
		{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 0, MaxRetries: 1},
		{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 2 * time.Second, MaxRetries: -1},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	good := Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 2 * time.Second, MaxRetries: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestUnknownModeFallsBack(t *testing.T) {
	p := NewPolicy("weird", 250*time.Millisecond, 500*time.Millisecond, 1)
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("unknown mode should fall back to linear got %s", p.Mode)
	}
}
