package journal

import "time"

// Event is one journaled occurrence in a run.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}
