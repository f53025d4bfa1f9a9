package stages

import (
	"context"
	"errors"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
)

// StageOutcome normalized result of stage execution.
type StageOutcome struct {
	Stage     models.StageName
	Error     *models.StageError
	Result    models.StageResult
	IssueCode models.ReportIssueCode
	Severity  models.IssueSeverity
	Transient bool
	Abort     bool
}

// resultFromStageErrorKind maps a StageErrorKind to a StageResult.
func resultFromStageErrorKind(k models.StageErrorKind) models.StageResult {
	switch k {
	case models.StageErrorWarning:
		return models.StageResultWarning
	case models.StageErrorCanceled:
		return models.StageResultCanceled
	default:
		return models.StageResultFatal
	}
}

func severityFromStageErrorKind(k models.StageErrorKind) models.IssueSeverity {
	if k == models.StageErrorWarning {
		return models.SeverityWarning
	}
	return models.SeverityError
}

// ClassifyStageResult converts a raw error from a stage into a StageOutcome.
// Errors that are not already StageErrors are fatal, unless they stem from
// cancellation.
func ClassifyStageResult(stage models.StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: models.StageResultSuccess}
	}

	var se *models.StageError
	if !errors.As(err, &se) {
		if isCanceled(err) {
			se = models.NewCanceledStageError(stage, err)
		} else {
			se = models.NewFatalStageError(stage, err)
		}
	}

	code := issueCodeFor(se)
	return StageOutcome{
		Stage:     stage,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		IssueCode: code,
		Severity:  severityFromStageErrorKind(se.Kind),
		Transient: se.Transient(),
		Abort:     se.Kind == models.StageErrorFatal || se.Kind == models.StageErrorCanceled,
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || ferrors.HasCategory(err, ferrors.CategoryCanceled)
}

// issueCodeFor maps the error category carried by a stage error to its report code.
func issueCodeFor(se *models.StageError) models.ReportIssueCode {
	if se.Kind == models.StageErrorCanceled {
		return models.IssueCanceled
	}
	switch ferrors.GetCategory(se.Err) {
	case ferrors.CategorySourceUnavailable, ferrors.CategoryGit, ferrors.CategoryNetwork:
		return models.IssueSourceUnavailable
	case ferrors.CategoryNoFilesSelected:
		return models.IssueNoFilesSelected
	case ferrors.CategoryServiceTransient:
		return models.IssueServiceTransient
	case ferrors.CategoryMalformedOutput:
		return models.IssueMalformedOutput
	case ferrors.CategoryServiceFatal:
		return models.IssueServiceFatal
	case ferrors.CategoryCanceled:
		return models.IssueCanceled
	default:
		return models.IssueGenericStageError
	}
}
