// Package errors provides the categorized error taxonomy for the market-data
// aggregation engine. No error defined here is ever surfaced raw to a caller;
// each category maps to a defined fallback behavior in the aggregator.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUpstream represents transient upstream failures (network, timeout, 5xx)
	CategoryUpstream ErrorCategory = "upstream"
	// CategoryQuota represents upstream quota exhaustion (429)
	CategoryQuota ErrorCategory = "quota"
	// CategoryPayload represents unusable upstream payloads
	CategoryPayload ErrorCategory = "payload"
	// CategoryNotFound represents a legitimate empty match, not a failure
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryCache represents cache store errors
	CategoryCache ErrorCategory = "cache"
	// CategoryHardMiss represents a non-retryable upstream rejection (4xx other than 429)
	CategoryHardMiss ErrorCategory = "hard_miss"
	// CategoryValidation represents bad caller input
	CategoryValidation ErrorCategory = "validation"
	// CategorySystem represents unexpected internal faults
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// NewUpstreamUnavailableError creates a transient upstream failure error.
// The aggregator responds by falling through to the next strategy, or to
// synthesis when no strategies remain.
func NewUpstreamUnavailableError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    fmt.Sprintf("upstream source unavailable: %s", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewQuotaExceededError creates an upstream quota error (HTTP 429). The
// aggregator short-circuits to synthesis and caches the result with a short
// TTL so a retry happens sooner than normal.
func NewQuotaExceededError(source string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryQuota,
		StatusCode: http.StatusTooManyRequests,
		Code:       "UPSTREAM_QUOTA_EXCEEDED",
		Message:    fmt.Sprintf("upstream quota exceeded: %s", source),
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewHardMissError creates a non-retryable upstream rejection (4xx other than
// 429). No further strategies are attempted for the request.
func NewHardMissError(source string, statusCode int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryHardMiss,
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_REJECTED",
		Message:    fmt.Sprintf("upstream source %s rejected the query (status %d)", source, statusCode),
		Details: map[string]interface{}{
			"source":         source,
			"upstreamStatus": statusCode,
		},
	}
}

// NewMalformedPayloadError creates an error for payloads that yield no usable
// records. Treated as an empty result by the aggregator.
func NewMalformedPayloadError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPayload,
		StatusCode: http.StatusBadGateway,
		Code:       "MALFORMED_UPSTREAM_PAYLOAD",
		Message:    fmt.Sprintf("unusable payload from upstream source: %s", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewAddressNotFoundError creates the terminal "not listed" outcome for an
// address. This is a valid result of a successful upstream query, distinct
// from failure and from synthesis.
func NewAddressNotFoundError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "ADDRESS_NOT_FOUND",
		Message:    fmt.Sprintf("address not found in any listing source: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewCacheError creates a cache store error. The caller degrades to treating
// the lookup as a miss; the error is logged, never propagated.
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewValidationError creates a bad-input error for the API layer
func NewValidationError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error, defaulting to an internal error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// IsQuotaExceeded reports whether the error is an upstream 429
func IsQuotaExceeded(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryQuota
}

// IsHardMiss reports whether the error is a non-retryable upstream rejection
func IsHardMiss(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryHardMiss
}

// IsNotFound reports whether the error is the terminal "not listed" outcome
func IsNotFound(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryNotFound
}

// IsRetryable determines if an error should fall through to the next upstream
// strategy. Quota and hard-miss errors stop the strategy chain; transient
// upstream and payload errors do not.
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryUpstream, CategoryPayload, CategoryCache:
		return true
	default:
		return false
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}
