package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrInternal, ErrDataConsistency,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "payment not found"}
	assert.Equal(t, "NOT_FOUND: payment not found", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
}

// --- Constructor functions ---

func TestNotFound(t *testing.T) {
	err := NotFound("payment", "pay-123")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Message, "payment")
	assert.Contains(t, err.Message, "pay-123")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("currency is required")
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, "currency is required", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestInternal(t *testing.T) {
	err := Internal(fmt.Errorf("segfault"))
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestDataConsistency(t *testing.T) {
	err := DataConsistency("unsupported delivery method type")
	assert.Equal(t, "DATA_CONSISTENCY", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, ErrDataConsistency))
}

// --- Wrap ---

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "get payment")
	assert.Contains(t, wrapped.Error(), "get payment")
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

// --- HTTPStatus ---

func TestHTTPStatus_AppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("item", "1")))
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrDataConsistency, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(InvalidInput("bad")))
	assert.True(t, IsUserFacing(NotFound("checkout", "c-1")))
	assert.False(t, IsUserFacing(DataConsistency("bug")))
	assert.False(t, IsUserFacing(fmt.Errorf("unknown")))
}
