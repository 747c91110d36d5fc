package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrorType classifies which part of the provider setup caused the error.
type ErrorType string

const (
	ErrorTypeNone        ErrorType = ""
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a provider failure with enough context to explain and route it:
// a coarse classification, optional HTTP status, and the model and endpoint
// involved. Retryable marks whether another attempt could succeed.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
	Endpoint   string
}

// Error renders the failure for logs. Endpoints are reduced to their host
// so messages never leak full paths or query strings.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " HTTP %d", e.StatusCode)
	}
	if e.Model != "" {
		b.WriteString(" model=" + e.Model)
	}
	if e.Endpoint != "" {
		b.WriteString(" endpoint=" + endpointHost(e.Endpoint))
	}
	b.WriteString(" " + e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable satisfies retry.RetryableError, letting the retry package
// read the flag without importing this one.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError builds an Error from its required parts.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewErrorWithContext is NewError plus the model, endpoint, and HTTP status
// the request was made with.
func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// endpointHost reduces an endpoint URL to its host component.
func endpointHost(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// statusCodePattern matches three-digit HTTP status codes only when preceded
// by an explicit marker ("HTTP 503", "status: 429", "code 502"). Incidental
// numbers like "processed 503 records" or "port 5432" must not match.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:http|status|code)[:\s]+(\d{3})\b`)

// extractStatusCode pulls an HTTP status code out of an error string, or
// returns 0 when none is present.
func extractStatusCode(errStr string) int {
	m := statusCodePattern.FindStringSubmatch(errStr)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil || code < 100 || code > 599 {
		return 0
	}
	return code
}

// ClassifyError turns an arbitrary provider failure into a structured
// Error, deciding its type and retryability from the status code and
// message text. An error that already is an *Error passes through as is.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)
	statusCode := extractStatusCode(errStr)

	classified := func(errType ErrorType, message string, retryable bool) *Error {
		e := NewError(errType, message, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	// Cancellation is caller-initiated; retrying would override the caller.
	// Deadline exceeded is different and stays retryable below.
	if errors.Is(err, context.Canceled) || strings.Contains(lower, "context canceled") {
		return classified(ErrorTypeUnknown, "request cancelled", false)
	}

	// Bad credentials: retrying cannot help.
	if statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "permission denied") {
		return classified(ErrorTypeAuth, "authentication failed", false)
	}

	// The configured model does not exist on this provider.
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")) {
		return classified(ErrorTypeModel, "model not found", false)
	}

	// Throttled: worth retrying after backoff.
	if statusCode == 429 || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") {
		return classified(ErrorTypeRateLimited, "rate limited", true)
	}

	// Wrong URL, usually a config mistake.
	if statusCode == 404 {
		return classified(ErrorTypeEndpoint, "endpoint not found", false)
	}

	// Network-level failures come and go.
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset") {
		return classified(ErrorTypeEndpoint, "connection failed", true)
	}

	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return classified(ErrorTypeEndpoint, "request timeout", true)
	}

	// Local model servers report load with these.
	if strings.Contains(lower, "overloaded") || strings.Contains(lower, "server is busy") {
		return classified(ErrorTypeEndpoint, "provider overloaded", true)
	}

	if statusCode >= 500 || strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") || strings.Contains(lower, "service unavailable") {
		return classified(ErrorTypeEndpoint, "server error", true)
	}

	return classified(ErrorTypeUnknown, "llm error", false)
}

// IsRetryable reports the Retryable flag of a structured provider error,
// or false for anything else.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType reports the classification of a structured provider error,
// or ErrorTypeUnknown for anything else.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
