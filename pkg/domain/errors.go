package domain

import "errors"

// Sentinel kinds surfaced by the external client wrappers.
var (
	ErrAuth              = errors.New("authentication failed")
	ErrRateLimited       = errors.New("rate limited")
	ErrTimeout           = errors.New("request timed out")
	ErrMalformedResponse = errors.New("malformed response")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrPermission        = errors.New("permission denied")
	ErrPayloadTooLarge   = errors.New("payload too large")
)

// ValidationError rejects a request before any external call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// ContextFetchError aborts the pipeline: context was explicitly requested
// and could not be fetched.
type ContextFetchError struct {
	Channel string
	Err     error
}

func (e *ContextFetchError) Error() string {
	return "fetching context from channel " + e.Channel + ": " + e.Err.Error()
}

func (e *ContextFetchError) Unwrap() error { return e.Err }

// CompletionError aborts the pipeline before delivery; no retry is done here.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return "requesting completion: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error { return e.Err }
