package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSession marks a session-fatal condition: the control loop
	// must terminate the account's session instead of retrying.
	ErrInvalidSession = errors.New("invalid session")

	ErrAccountNotFound = errors.New("account not found")
	ErrNoWorkingProxy  = errors.New("no working proxy available")
	ErrAdUnavailable   = errors.New("ad descriptor unavailable")
	ErrJoinUnsupported = errors.New("channel join not supported")
)

// StatusError carries a non-2xx HTTP status across the port boundary so
// callers can tell credential staleness (401) apart from other
// transport failures.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}
