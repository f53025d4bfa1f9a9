package git

import "fmt"

// Base typed git errors enabling structured classification without string parsing upstream.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

type RateLimitError struct {
	Op, URL string
	Err     error
}

func (e *RateLimitError) Error() string { return fmt.Sprintf("%s rate limited %s: %v", e.Op, e.URL, e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }

type NetworkTimeoutError struct {
	Op, URL string
	Err     error
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("%s network timeout %s: %v", e.Op, e.URL, e.Err)
}
func (e *NetworkTimeoutError) Unwrap() error { return e.Err }
