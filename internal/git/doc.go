// Package git clones source repositories for tutorial generation.
//
// Clones are shallow by default and land in the run's scratch workspace.
// Failures are mapped onto typed errors (auth, not found, unsupported
// protocol, rate limit, network timeout) so callers can decide between
// retrying and giving up without parsing strings.
package git
