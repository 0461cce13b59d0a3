package grokflag

import (
	"errors"
	"net"
	"strings"
)

var (
	// ErrMissingSSO is reported when the sso cookie value is empty.
	ErrMissingSSO = errors.New("missing sso")

	// ErrMissingSSORW is reported when the sso-rw cookie value is empty.
	ErrMissingSSORW = errors.New("missing sso-rw")

	// ErrUnsupportedProfile is returned for impersonation names with no TLS profile.
	ErrUnsupportedProfile = errors.New("unsupported impersonate profile")

	// ErrNilSession is reported when EnableWithSession gets no session to send through.
	ErrNilSession = errors.New("nil session")
)

// =============================================================================
// Fatal Errors
// =============================================================================

// FatalError represents an error that should stop every caller sharing the
// same configuration, such as a profile or proxy that can never produce a session.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps an error as fatal.
func NewFatalError(err error) error {
	return &FatalError{Err: err}
}

// IsFatalError checks if the error is a fatal error.
func IsFatalError(err error) bool {
	if err == nil {
		return false
	}
	var fe *FatalError
	return errors.As(err, &fe)
}

// =============================================================================
// Transport Failures
// =============================================================================

// transportErrorPatterns are substrings of connection-level failure messages.
// Results only carry the error text, so classification works on strings.
var transportErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"context deadline exceeded",
	"context canceled",
	"TLS handshake timeout",
	"tls:",
	"EOF",
	"malformed HTTP response",
	"transport connection broken",
	"use of closed network connection",
	"proxy",
}

// IsTransportFailure reports whether err describes a connection, DNS, TLS or
// timeout failure rather than a response the server actually sent.
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupportedProfile) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return containsTransportPattern(err.Error())
}

func containsTransportPattern(errStr string) bool {
	for _, pattern := range transportErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
