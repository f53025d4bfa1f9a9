// Package errors provides the classified error primitives used across codetutor.
//
// Every failure that can end a run carries an ErrorCategory. The five
// tutorial-specific categories (source_unavailable, no_files_selected,
// service_transient, malformed_output, service_fatal) drive both the retry
// decision inside the pipeline and the process exit code in the CLI adapter.
//
// Example usage:
//
//	err := errors.ServiceTransient("model endpoint returned 503").
//		WithCause(httpErr).
//		WithContext("stage", "identify_abstractions").
//		Build()
package errors
