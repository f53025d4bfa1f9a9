package journal

import (
	"context"
	"sort"
	"time"
)

// RunSummary is the condensed view of one journaled run.
type RunSummary struct {
	RunID       string
	Source      string
	Project     string
	StartedAt   time.Time
	CompletedAt time.Time
	Outcome     string // empty while the run has no RunCompleted event
	Chapters    int
	LLMCalls    int
	Retries     int
	FailedPhase string
	OutputDir   string
}

// Summarize folds events into one summary per run, newest first.
func Summarize(events []Event) []RunSummary {
	byRun := make(map[string]*RunSummary)
	for _, e := range events {
		s, ok := byRun[e.RunID]
		if !ok {
			s = &RunSummary{RunID: e.RunID, StartedAt: e.Timestamp}
			byRun[e.RunID] = s
		}
		apply(s, e)
	}

	out := make([]RunSummary, 0, len(byRun))
	for _, s := range byRun {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID > out[j].RunID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func apply(s *RunSummary, e Event) {
	switch e.Type {
	case TypeRunStarted:
		var p RunStarted
		if e.Decode(&p) == nil {
			s.StartedAt = e.Timestamp
			s.Source = p.Source
			s.Project = p.Project
		}
	case TypeRetryScheduled:
		s.Retries++
	case TypeRunCompleted:
		var p RunCompleted
		if e.Decode(&p) == nil {
			s.CompletedAt = e.Timestamp
			s.Outcome = p.Outcome
			s.Chapters = p.Chapters
			s.LLMCalls = p.LLMCalls
			s.Retries = p.Retries
			s.FailedPhase = p.FailedPhase
			s.OutputDir = p.OutputDir
			if p.Project != "" {
				s.Project = p.Project
			}
		}
	}
}

// Runs summarizes the runs started within the last window, newest first.
// A zero window covers the whole journal.
func Runs(ctx context.Context, store Store, window time.Duration) ([]RunSummary, error) {
	end := time.Now()
	start := time.Unix(0, 0)
	if window > 0 {
		start = end.Add(-window)
	}
	events, err := store.Range(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return Summarize(events), nil
}
