// Package parse turns raw model responses into validated tutorial data.
//
// Every failure is reported as a MalformedOutput classified error so the
// caller can re-prompt under the regular retry policy.
package parse
