package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Process exit codes.
const (
	ExitSuccess            = 0
	ExitFailure            = 1
	ExitServiceUnavailable = 2
)

const serviceUnavailableHint = "The language model service is temporarily unavailable. Please try again later."

// DiagnosticWriter is implemented by errors that can dump the state they failed in.
type DiagnosticWriter interface {
	WriteDiagnostics(w io.Writer)
}

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if classified, ok := AsClassified(err); ok && classified.Category() == CategoryServiceTransient {
		return ExitServiceUnavailable
	}
	return ExitFailure
}

// FormatError formats the one-line error summary.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := AsClassified(err); ok {
		if a.verbose {
			return fmt.Sprintf("ERROR: %s: %v", classified.Category(), err)
		}
		msg := classified.Message()
		if cause := classified.Cause(); cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, cause)
		}
		return fmt.Sprintf("ERROR: %s: %s", classified.Category(), msg)
	}
	return fmt.Sprintf("ERROR: %T: %v", err, err)
}

// Report writes the summary line, the optional hint and diagnostic dump, and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}
	code := a.ExitCodeFor(err)
	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintln(w, a.FormatError(err))
	if code == ExitServiceUnavailable {
		_, _ = fmt.Fprintln(w, serviceUnavailableHint)
	}
	var dw DiagnosticWriter
	if stderrors.As(err, &dw) {
		dw.WriteDiagnostics(w)
	}
	return code
}

// HandleError reports an error on stderr and exits the program with the matching code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.exit(a.Report(os.Stderr, err))
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := a.slogLevelFromSeverity(classified.Severity())
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts ClassifiedError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
