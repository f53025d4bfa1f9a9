package tutorial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// ErrorKind names a failure in the run's error taxonomy.
type ErrorKind string

const (
	KindSourceUnavailable ErrorKind = "SourceUnavailable"
	KindNoFilesSelected   ErrorKind = "NoFilesSelected"
	KindServiceTransient  ErrorKind = "ServiceTransient"
	KindMalformedOutput   ErrorKind = "MalformedModelOutput"
	KindServiceFatal      ErrorKind = "ServiceFatal"
	KindCanceled          ErrorKind = "Canceled"
	KindInternal          ErrorKind = "Internal"
)

// KindOf maps an error to its taxonomy kind.
func KindOf(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	switch ferrors.GetCategory(err) {
	case ferrors.CategorySourceUnavailable, ferrors.CategoryGit, ferrors.CategoryNetwork:
		return KindSourceUnavailable
	case ferrors.CategoryNoFilesSelected:
		return KindNoFilesSelected
	case ferrors.CategoryServiceTransient:
		return KindServiceTransient
	case ferrors.CategoryMalformedOutput:
		return KindMalformedOutput
	case ferrors.CategoryServiceFatal:
		return KindServiceFatal
	case ferrors.CategoryCanceled:
		return KindCanceled
	default:
		return KindInternal
	}
}

// RunError reports a failed run together with the state it failed in.
type RunError struct {
	Kind  ErrorKind
	Stage models.StageName
	Phase string
	Err   error
	State *models.RunState
}

func newRunError(st *models.RunState, err error) *RunError {
	re := &RunError{Kind: KindOf(err), Phase: st.FailedAt(), Err: err, State: st}
	var se *models.StageError
	if errors.As(err, &se) {
		re.Stage = se.Stage
	}
	if re.Phase == "" {
		re.Phase = st.PhaseString()
	}
	return re
}

func (e *RunError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s in %s (%s): %v", e.Kind, e.Stage, e.Phase, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// WriteDiagnostics dumps the error type, its message and the scalar fields of the run state.
func (e *RunError) WriteDiagnostics(w io.Writer) {
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Diagnostics:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "  error_type:\t%s\n", e.Kind)
	_, _ = fmt.Fprintf(tw, "  message:\t%v\n", e.Err)
	if e.Stage != "" {
		_, _ = fmt.Fprintf(tw, "  stage:\t%s\n", e.Stage)
	}
	if e.State != nil {
		for _, sc := range e.State.Scalars() {
			if sc.Value == "" {
				continue
			}
			_, _ = fmt.Fprintf(tw, "  %s:\t%s\n", sc.Key, sc.Value)
		}
	}
	_ = tw.Flush()
}
