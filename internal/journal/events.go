package journal

import "encoding/json"

// Event types written by Observer.
const (
	TypeRunStarted     = "RunStarted"
	TypeStageStarted   = "StageStarted"
	TypeStageCompleted = "StageCompleted"
	TypeRetryScheduled = "RetryScheduled"
	TypeRunCompleted   = "RunCompleted"
)

// RunStarted is the payload of TypeRunStarted.
type RunStarted struct {
	Source   string `json:"source"`
	Project  string `json:"project,omitempty"`
	Language string `json:"language"`
}

// StageStarted is the payload of TypeStageStarted.
type StageStarted struct {
	Stage string `json:"stage"`
}

// StageCompleted is the payload of TypeStageCompleted.
type StageCompleted struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	Result     string `json:"result"`
}

// RetryScheduled is the payload of TypeRetryScheduled.
type RetryScheduled struct {
	Stage   string `json:"stage"`
	Step    string `json:"step"`
	Attempt int    `json:"attempt"`
	DelayMS int64  `json:"delay_ms"`
	Error   string `json:"error,omitempty"`
}

// RunCompleted is the payload of TypeRunCompleted.
type RunCompleted struct {
	Outcome     string `json:"outcome"`
	Project     string `json:"project,omitempty"`
	Files       int    `json:"files"`
	Chapters    int    `json:"chapters"`
	LLMCalls    int    `json:"llm_calls"`
	Retries     int    `json:"retries"`
	OutputDir   string `json:"output_dir,omitempty"`
	FailedPhase string `json:"failed_phase,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// Decode unmarshals the payload of e into out.
func (e Event) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}
