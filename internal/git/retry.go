package git

import (
	"errors"
	"net"
	"strings"
)

// isPermanentGitError reports failures that another attempt cannot fix.
func isPermanentGitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.As(err, new(*AuthError)) || errors.As(err, new(*NotFoundError)) || errors.As(err, new(*UnsupportedProtocolError)) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no such remote") || strings.Contains(msg, "invalid reference") {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}

// isTransientGitError limits retries to the typed transient failures.
func isTransientGitError(err error) bool {
	if isPermanentGitError(err) {
		return false
	}
	return classifyTransientType(err) != ""
}

// classifyTransientType returns a short key for known transient typed errors; empty if unknown.
func classifyTransientType(err error) string {
	switch {
	case errors.As(err, new(*RateLimitError)):
		return "rate_limit"
	case errors.As(err, new(*NetworkTimeoutError)):
		return "network_timeout"
	}
	return ""
}
