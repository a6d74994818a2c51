package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Provider errors
	ErrThrottled   = fmt.Errorf("provider throttled request")
	ErrUnavailable = fmt.Errorf("provider unavailable")
	ErrNotFound    = fmt.Errorf("no match found")
	ErrDataShape   = fmt.Errorf("unexpected payload shape")
	ErrPermanent   = fmt.Errorf("permanent item failure")
	ErrAPIRequest  = fmt.Errorf("API request failed")

	// Pipeline errors
	ErrStoreUnavailable      = fmt.Errorf("store unavailable")
	ErrRecordNotFound        = fmt.Errorf("record not found")
	ErrCollectionUnavailable = fmt.Errorf("collection unavailable")
	ErrLocked                = fmt.Errorf("another process holds the store lock")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RateLimitError is returned when an upstream signals throttling (HTTP 429).
//
// RetryAfter is zero when the provider did not say how long to wait.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// Is lets errors.Is(err, ErrThrottled) match any [RateLimitError].
func (e *RateLimitError) Is(target error) bool {
	return target == ErrThrottled
}

// ClassifyStatus maps an HTTP status code into the provider error taxonomy.
//
// Returns nil for 2xx responses.
func ClassifyStatus(provider string, code int, header http.Header) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, RetryAfter: ParseRetryAfter(header.Get("Retry-After"))}
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned status %d", ErrNotFound, provider, code)
	case code >= 500, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, provider, code)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", ErrInvalidCredentials, provider, code)
	default:
		return fmt.Errorf("%w: %s returned status %d", ErrAPIRequest, provider, code)
	}
}

// ParseRetryAfter reads a Retry-After header expressed in seconds.
// HTTP-date values and garbage yield zero.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// IsTransient reports whether err is worth a bounded retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsItemFailure reports whether err should isolate a single collection item into the skip set.
//
// Throttling never reaches here because it is retried indefinitely below the pipeline.
func IsItemFailure(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDataShape) ||
		errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrAPIRequest)
}
