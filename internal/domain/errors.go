package domain

import "errors"

var (
	// ErrValidation is returned when a request misses a required field or carries an out-of-range value.
	ErrValidation = errors.New("invalid request")
	// ErrRiddleNotFound indicates a submitted riddle ID is unknown.
	ErrRiddleNotFound = errors.New("riddle not found")
	// ErrPlayerNotFound is returned when a profile lookup targets an unknown username.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrGenerationUnavailable means the riddle provider is rate limited, failing, or returned garbage twice.
	ErrGenerationUnavailable = errors.New("riddle generation unavailable")
	// ErrMalformedProviderResponse indicates generated content did not match the riddle shape.
	ErrMalformedProviderResponse = errors.New("malformed provider response")
	// ErrPersistence wraps read/write failures of the state store.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnauthorized is returned for admin operations without a valid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrHintOrder is returned when a hint is revealed out of sequence.
	ErrHintOrder = errors.New("hints must be revealed in order")
)
