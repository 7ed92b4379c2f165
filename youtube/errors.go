package youtube

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for API failures. The enrichment layer treats all of them
// as per-entry failures; the distinction matters for diagnostics and for
// retry/abort decisions.
var (
	// ErrNotFound indicates the id does not exist (deleted or private).
	ErrNotFound = errors.New("youtube: entity not found")
	// ErrRateLimited indicates the API rejected the call for per-user rate
	// limiting. Retryable.
	ErrRateLimited = errors.New("youtube: rate limited")
	// ErrQuotaExceeded indicates the daily API quota is exhausted. Permanent
	// for the rest of the run.
	ErrQuotaExceeded = errors.New("youtube: daily quota exceeded")
	// ErrAuthFailed indicates a missing, invalid, or unauthorized API key.
	ErrAuthFailed = errors.New("youtube: authentication failed")
)

// FailureReason is the diagnostic classification propagated with per-entry
// failures.
type FailureReason string

const (
	ReasonNotFound    FailureReason = "not_found"
	ReasonRateLimited FailureReason = "rate_limited"
	ReasonQuota       FailureReason = "quota_exceeded"
	ReasonAuth        FailureReason = "auth_error"
	ReasonTransport   FailureReason = "transport_error"
)

// Reason classifies any fetch error into a FailureReason.
func Reason(err error) FailureReason {
	var ferr *FetchError
	if errors.As(err, &ferr) {
		return ferr.Reason
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrQuotaExceeded):
		return ReasonQuota
	case errors.Is(err, ErrAuthFailed):
		return ReasonAuth
	}
	return ReasonTransport
}

// FetchError wraps a failed metadata fetch with the entity it targeted.
// Use errors.As() to extract it, or errors.Is() against the sentinels above.
type FetchError struct {
	// Kind is "video" or "channel".
	Kind string
	// ID is the entity id the fetch targeted.
	ID string
	// Reason is the diagnostic classification of Err.
	Reason FailureReason
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("youtube: fetch %s %s: %v", e.Kind, e.ID, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *FetchError) Unwrap() error { return e.Err }

// retryable decides whether a fetch attempt is worth repeating. Not-found,
// auth, and quota failures are permanent; rate limiting and transport
// hiccups are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAuthFailed), errors.Is(err, ErrQuotaExceeded):
		return false
	}
	return true
}
