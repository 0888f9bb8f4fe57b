package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError represents a single error reported by the Atlas API.
type APIError struct {
	Code   string `json:"code"   yaml:"code"`
	Title  string `json:"title"  yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code: %s)", e.Title, e.Detail, e.Code)
}

// ResponseError represents a non-2xx response from the API.
type ResponseError struct {
	StatusCode int        `json:"-"`
	Errors     []APIError `json:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// ParseResponseError parses an error response payload. The status code is
// recorded even when the body is not a recognizable error document.
func ParseResponseError(statusCode int, data []byte) *ResponseError {
	errResp := ResponseError{StatusCode: statusCode}
	_ = json.Unmarshal(data, &errResp)

	return &errResp
}

// Common static errors that can be wrapped with context.
var (
	ErrNetwork              = errors.New("network error")
	ErrProtocol             = errors.New("protocol error: malformed response")
	ErrRangeNotSupported    = errors.New("server does not support range requests")
	ErrBaseURLRequired      = errors.New("base URL is required")
	ErrAPIKeyRequired       = errors.New("API key is required")
	ErrConfigRequired       = errors.New("config is required")
	ErrNoTokenManager       = errors.New("no token manager configured")
	ErrStaticTokenRefresh   = errors.New("static token cannot be refreshed")
	ErrNoMoreItems          = errors.New("no more items")
	ErrOrderIDRequired      = errors.New("order ID is required")
	ErrSearchIDRequired     = errors.New("search ID is required")
	ErrItemTypeIDRequired   = errors.New("item type ID is required")
	ErrAssetTypeIDRequired  = errors.New("asset type ID is required")
	ErrNoProductsSpecified  = errors.New("order must contain at least one product")
	ErrAssetNotActive       = errors.New("asset is not active")
	ErrNoDownloadLocation   = errors.New("asset has no download location")
	ErrNoConditionals       = errors.New("no conditional parameters specified")
	ErrInvalidInterval      = errors.New("invalid stats interval")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrDestinationDirectory = errors.New("destination is a directory")
)

// RetryExhaustedError is returned when the retry budget for a single logical
// request is spent. It wraps the last observed failure.
type RetryExhaustedError struct {
	Attempts   int
	LastStatus int
	Err        error
}

func (e *RetryExhaustedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}

	return fmt.Sprintf("retries exhausted after %d attempts (last status %d)", e.Attempts, e.LastStatus)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// PaginationLoopError is returned when a list endpoint hands back the same
// cursor twice in a row, which would otherwise loop forever.
type PaginationLoopError struct {
	Cursor string
}

func (e *PaginationLoopError) Error() string {
	return fmt.Sprintf("pagination loop detected: cursor %q repeated", e.Cursor)
}

// JobTimeoutError is returned when polling exceeds its maximum wait. The
// remote order is left in its last observed state; it is not cancelled.
type JobTimeoutError struct {
	OrderID   string
	LastState string
	Waited    time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for order %s (last state %q)",
		e.Waited.Round(time.Second), e.OrderID, e.LastState)
}

// ChecksumMismatchError is returned when a completed download's checksum
// disagrees with the server-declared value.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// IncompleteDownloadError is returned when the connection drops before the
// declared length is reached and no resume is possible.
type IncompleteDownloadError struct {
	Path     string
	Expected int64
	Written  int64
	Err      error
}

func (e *IncompleteDownloadError) Error() string {
	return fmt.Sprintf("incomplete download of %s: %d of %d bytes", e.Path, e.Written, e.Expected)
}

func (e *IncompleteDownloadError) Unwrap() error { return e.Err }

// DownloadInProgressError is returned when a second caller targets a
// destination that is already being written by another download.
type DownloadInProgressError struct {
	Path string
}

func (e *DownloadInProgressError) Error() string {
	return fmt.Sprintf("download already in progress for %s", e.Path)
}

// IsNotFound checks if the error is a not found response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited checks if the error is a rate limit response. Rate limit
// responses are normally retried internally; this surfaces only once the
// retry budget is spent.
func IsRateLimited(err error) bool {
	if hasStatus(err, http.StatusTooManyRequests) {
		return true
	}

	re := &RetryExhaustedError{}
	if errors.As(err, &re) {
		return re.LastStatus == http.StatusTooManyRequests
	}

	return false
}

// IsRetryExhausted checks if the error is a spent retry budget.
func IsRetryExhausted(err error) bool {
	re := &RetryExhaustedError{}

	return errors.As(err, &re)
}

func hasStatus(err error, status int) bool {
	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode == status
	}

	return false
}
