package models

import "fmt"

// Phase is a state of the run state machine.
type Phase string

const (
	PhaseSelecting   Phase = "SELECTING"
	PhaseIdentifying Phase = "IDENTIFYING"
	PhaseMapping     Phase = "MAPPING"
	PhaseOrdering    Phase = "ORDERING"
	PhaseWriting     Phase = "WRITING"
	PhaseAssembling  Phase = "ASSEMBLING"
	PhaseDone        Phase = "DONE"
	PhaseFailed      Phase = "FAILED"
)

var phaseOrder = map[Phase]int{
	PhaseSelecting:   0,
	PhaseIdentifying: 1,
	PhaseMapping:     2,
	PhaseOrdering:    3,
	PhaseWriting:     4,
	PhaseAssembling:  5,
	PhaseDone:        6,
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseFailed }

// InvalidTransitionError is returned for transitions the machine does not allow.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid phase transition %s -> %s", e.From, e.To)
}

// PhaseString renders the phase, including the chapter position while writing.
func (s *RunState) PhaseString() string {
	if s.phase == PhaseWriting {
		return fmt.Sprintf("%s(%d)", PhaseWriting, s.chapterPos)
	}
	return string(s.phase)
}

// Phase returns the current phase.
func (s *RunState) Phase() Phase { return s.phase }

// ChapterPosition returns k while in WRITING(k), -1 otherwise.
func (s *RunState) ChapterPosition() int {
	if s.phase != PhaseWriting {
		return -1
	}
	return s.chapterPos
}

// Advance moves to the next phase. Only the immediate successor is accepted;
// entering WRITING starts at k=0. FAILED is handled by Fail.
func (s *RunState) Advance(next Phase) error {
	if s.phase.Terminal() || next == PhaseFailed {
		return &InvalidTransitionError{From: s.PhaseString(), To: string(next)}
	}
	cur, ok := phaseOrder[s.phase]
	to, ok2 := phaseOrder[next]
	if !ok || !ok2 || to != cur+1 {
		return &InvalidTransitionError{From: s.PhaseString(), To: string(next)}
	}
	s.phase = next
	s.chapterPos = 0
	return nil
}

// AdvanceChapter moves WRITING(k) to WRITING(k+1).
func (s *RunState) AdvanceChapter(k int) error {
	if s.phase != PhaseWriting || k != s.chapterPos+1 {
		return &InvalidTransitionError{From: s.PhaseString(), To: fmt.Sprintf("%s(%d)", PhaseWriting, k)}
	}
	s.chapterPos = k
	return nil
}

// Fail moves any non-terminal phase to FAILED and remembers where it happened.
func (s *RunState) Fail() error {
	if s.phase.Terminal() {
		return &InvalidTransitionError{From: s.PhaseString(), To: string(PhaseFailed)}
	}
	s.failedAt = s.PhaseString()
	s.phase = PhaseFailed
	return nil
}

// FailedAt returns the phase (with chapter position) the run failed in.
func (s *RunState) FailedAt() string { return s.failedAt }
