package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the pipeline taxonomy. Adapter and capability
// failures are captured inside StageResult values; only ErrAnalysisFailed
// (the query could not be understood) propagates to a terminal Failed event.
var (
	// ErrCapabilityUnavailable signals the configured backend could not be
	// reached after its local retry budget was exhausted.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrCapabilityQuotaExceeded signals provider-side rate or quota
	// limiting on a completion call.
	ErrCapabilityQuotaExceeded = errors.New("capability quota exceeded")

	// ErrAnalysisFailed is fatal for the whole query: downstream stages
	// have no valid input to run on.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// TransientError wraps a failure worth retrying (network timeout, rate-limit
// response). Errors not wrapped this way are treated as permanent and
// recorded immediately without retries.
type TransientError struct {
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *TransientError) Unwrap() error { return e.Err }

// Transient marks err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err (anywhere in its chain) is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// NewAdapterError converts a call failure into the recorded value form,
// classifying permanence from the error chain.
func NewAdapterError(adapter string, err error) AdapterError {
	return AdapterError{
		Adapter:   adapter,
		Message:   err.Error(),
		Permanent: !IsTransient(err),
	}
}
