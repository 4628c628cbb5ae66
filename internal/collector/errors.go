package collector

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded signals that a spend would exceed the remaining daily
// budget. Discovery stops but the run still flushes accepted courses.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// AuthError is fatal: the credential is invalid or revoked, so no further
// call can succeed and the whole run aborts.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError wraps a retryable failure (timeout, 5xx) that survived the
// retry budget. It fails the current keyword, not the run.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// StoreWriteError wraps an unrecoverable persistence failure; it aborts the
// whole run.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// ValidationError marks a single course or lesson that failed normalization
// or a policy check. The offender is skipped and the run continues.
type ValidationError struct {
	YoutubeID string
	Reason    string
	VideoIDs  []string
}

func (e *ValidationError) Error() string {
	if len(e.VideoIDs) > 0 {
		return fmt.Sprintf("validation failed for %s: %s (videos %v)", e.YoutubeID, e.Reason, e.VideoIDs)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.YoutubeID, e.Reason)
}
