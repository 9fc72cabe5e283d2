package model

import (
	"errors"
	"fmt"
)

// RateLimitCode is the application code the remote API returns when the
// caller is being throttled.
const RateLimitCode = 99991400

// TransportError is a network-level failure talking to the remote API.
// It is retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is an application-level (code, message) error returned by the
// remote API. It is retryable unless it is a RateLimitError.
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error %d: %s", e.Op, e.Code, e.Msg)
}

// RateLimitError signals remote throttling. It is fatal and never retried.
type RateLimitError struct {
	Op   string
	Code int
	Msg  string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded (%d): %s", e.Op, e.Code, e.Msg)
}

// JobFailureError is returned when an export job terminates in a state
// other than success or pending. It is fatal.
type JobFailureError struct {
	Title  string
	Ticket string
	Status int
	Msg    string
}

func (e *JobFailureError) Error() string {
	return fmt.Sprintf("export job %s for %q failed with status %d: %s", e.Ticket, e.Title, e.Status, e.Msg)
}

// RetriesExhaustedError is returned when the backoff budget is consumed
// without a successful attempt.
type RetriesExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// AssemblyError is returned when a downloaded artifact cannot be read or
// merged into the output document.
type AssemblyError struct {
	Path string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble %s: %v", e.Path, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the backoff executor gives up immediately.
// Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
