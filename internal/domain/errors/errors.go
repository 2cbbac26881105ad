package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures across the compliance engine
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeKYCRequired ErrorType = "kyc_required"
	ErrorTypeBlocked     ErrorType = "transaction_blocked"
	ErrorTypeCompliance  ErrorType = "compliance"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeExternal    ErrorType = "external"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors

func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "CONFLICT",
		Message:    message,
		Retryable:  false,
		StatusCode: 409,
	}
}

// NewKYCRequiredError signals that the customer or organization must complete
// identity verification before the transaction can be resubmitted. Callers use
// it to route the customer to a remediation flow instead of a hard failure.
func NewKYCRequiredError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeKYCRequired,
		Code:       "KYC_REQUIRED",
		Message:    message,
		Retryable:  false,
		StatusCode: 403,
	}
}

// NewTransactionBlockedError is the hard-stop compliance decision. It is never
// retried automatically; the manual-review path is the only way back.
func NewTransactionBlockedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBlocked,
		Code:       "TRANSACTION_BLOCKED",
		Message:    message,
		Retryable:  false,
		StatusCode: 403,
	}
}

// NewComplianceError wraps an unexpected pipeline failure. The engine fails
// closed: the associated check record is marked blocked, never approved.
func NewComplianceError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeCompliance,
		Code:       "COMPLIANCE_CHECK_FAILED",
		Message:    message,
		Retryable:  false,
		StatusCode: 500,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       "EXTERNAL_SERVICE_ERROR",
		Message:    fmt.Sprintf("%s service error: %s", service, message),
		Retryable:  true,
		StatusCode: 502,
		Details:    map[string]interface{}{"service": service},
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsKYCRequired reports whether err is a KYC remediation error
func IsKYCRequired(err error) bool {
	return IsType(err, ErrorTypeKYCRequired)
}

// IsTransactionBlocked reports whether err is a hard compliance block
func IsTransactionBlocked(err error) bool {
	return IsType(err, ErrorTypeBlocked)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
