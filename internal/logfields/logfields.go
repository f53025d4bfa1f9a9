package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyPhase      = "phase"
	KeyChapter    = "chapter"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyRepo       = "repository"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyName       = "name"
	KeyModel      = "model"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Phase(p string) slog.Attr         { return slog.String(KeyPhase, p) }
func Chapter(k int) slog.Attr          { return slog.Int(KeyChapter, k) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Model(m string) slog.Attr         { return slog.String(KeyModel, m) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
