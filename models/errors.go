package models

import "fmt"

// Error codes used in API responses and for configuration failures that
// surface to callers before any acquisition attempt begins.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNoProviders   = "NO_PROVIDERS"
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH"
	ErrCodeBusy          = "ACQUISITION_BUSY"
	ErrCodeTimeout       = "ACQUISITION_TIMEOUT"
	ErrCodeStorage       = "STORAGE_FAILURE"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AcquireError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AcquireError struct {
	Code    string
	Message string
	Err     error // wrapped cause
}

func (e *AcquireError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// NewAcquireError creates a new AcquireError.
func NewAcquireError(code, message string, err error) *AcquireError {
	return &AcquireError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AcquireError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
