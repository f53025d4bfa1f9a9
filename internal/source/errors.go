package source

import (
	"errors"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

var (
	// ErrSourceNotFound indicates the configured directory or file does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrWalkFailed indicates filesystem traversal of the source root failed.
	ErrWalkFailed = errors.New("source directory walk failed")

	// ErrFileReadFailed indicates reading a selected file failed.
	ErrFileReadFailed = errors.New("source file read failed")

	// ErrFetchFailed indicates downloading a URL failed.
	ErrFetchFailed = errors.New("url fetch failed")

	// ErrNoFiles indicates the filters left nothing to build a tutorial from.
	ErrNoFiles = errors.New("no files selected")
)

func unavailable(message, location string, cause error) error {
	return ferrors.SourceUnavailable(message).
		WithCause(cause).
		WithContext("source", location).
		Build()
}
