package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		errType    ErrorType
		statusCode int
		retryable  bool
	}{
		{"validation", NewValidationError("BAD_INPUT", "bad input"), ErrorTypeValidation, 400, false},
		{"not found", NewNotFoundError("customer"), ErrorTypeNotFound, 404, false},
		{"conflict", NewConflictError("already resolved"), ErrorTypeConflict, 409, false},
		{"kyc required", NewKYCRequiredError("verify first"), ErrorTypeKYCRequired, 403, false},
		{"blocked", NewTransactionBlockedError("sanctions hit"), ErrorTypeBlocked, 403, false},
		{"compliance", NewComplianceError("stage failed"), ErrorTypeCompliance, 500, false},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, 500, true},
		{"external", NewExternalError("sanctions-dataset", "timeout"), ErrorTypeExternal, 502, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.NotEmpty(t, tt.err.Code)
			assert.True(t, IsType(tt.err, tt.errType))
		})
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("loading rules").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "loading rules")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewNotFoundError("organization"))

	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.Equal(t, 404, GetStatusCode(err))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsKYCRequired(NewKYCRequiredError("verify")))
	assert.True(t, IsTransactionBlocked(NewTransactionBlockedError("blocked")))
	assert.False(t, IsKYCRequired(NewValidationError("X", "y")))

	assert.True(t, IsRetryable(NewExternalError("svc", "down")))
	assert.False(t, IsRetryable(NewConflictError("done")))
	assert.False(t, IsRetryable(stderrors.New("plain")))

	assert.Equal(t, 500, GetStatusCode(stderrors.New("plain")))
}

func TestWithDetails(t *testing.T) {
	err := NewValidationError("BAD_AMOUNT", "amount must be positive").
		WithDetails(map[string]interface{}{"field": "amount"})

	require.NotNil(t, err.Details)
	assert.Equal(t, "amount", err.Details["field"])
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))

	wrapped := Wrap(stderrors.New("inner"), "outer")
	assert.EqualError(t, wrapped, "outer: inner")
}
