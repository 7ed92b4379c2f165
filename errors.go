package ythelper

import (
	"ythelper/cache"
	"ythelper/retry"
	"ythelper/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ythelper.ErrQuotaExceeded) {
//		fmt.Println("daily quota exhausted")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var fetchErr *ythelper.FetchError
//	if errors.As(err, &fetchErr) {
//		fmt.Printf("fetching %s %s failed: %v\n", fetchErr.Kind, fetchErr.ID, fetchErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// FetchError wraps errors during metadata fetching.
	FetchError = youtube.FetchError
	// StoreError wraps errors during cache operations.
	StoreError = cache.StoreError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNotFound indicates the video or channel does not exist.
	ErrNotFound = youtube.ErrNotFound
	// ErrRateLimited indicates the operation was rate limited.
	ErrRateLimited = youtube.ErrRateLimited
	// ErrQuotaExceeded indicates the daily API quota is exhausted.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = youtube.ErrAuthFailed

	// Cache errors
	// ErrCorrupt indicates the cache database could not be read.
	ErrCorrupt = cache.ErrCorrupt
	// ErrInvalidContent indicates a document that is not valid JSON.
	ErrInvalidContent = cache.ErrInvalidContent
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors like ErrNotFound.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
