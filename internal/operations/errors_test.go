package operations_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/operations"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *operations.OperationError
		want string
	}{
		{
			name: "step and cause",
			err:  operations.NewExecutionError("parse", errors.New("bad row")),
			want: "[execution] parse: step failed: bad row",
		},
		{
			name: "no step",
			err:  operations.NewFatalError("reference table not loaded", nil),
			want: "[fatal] reference table not loaded",
		},
		{
			name: "nil",
			err:  nil,
			want: "unknown operation error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	malformed := apperrors.NewMalformedDateError("a.csv", 2, "2024", nil)

	tests := []struct {
		name     string
		err      error
		wantType operations.ErrorType
		wantIs   error
	}{
		{"app error", malformed, operations.ErrorTypeExecution, apperrors.ErrMalformedDate},
		{"wrapped app error", fmt.Errorf("parse: %w", malformed), operations.ErrorTypeExecution, apperrors.ErrMalformedDate},
		{"canceled", context.Canceled, operations.ErrorTypeCancellation, context.Canceled},
		{"deadline", context.DeadlineExceeded, operations.ErrorTypeCancellation, context.DeadlineExceeded},
		{"operation error passes through", operations.NewFatalError("x", nil), operations.ErrorTypeFatal, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := operations.WrapError(tt.err, "parse")
			assert.Equal(t, tt.wantType, operations.GetErrorType(wrapped))
			if tt.wantIs != nil {
				assert.True(t, errors.Is(wrapped, tt.wantIs))
			}
		})
	}

	assert.Nil(t, operations.WrapError(nil, "parse"))
}

func TestGetErrorType_PlainError(t *testing.T) {
	assert.Empty(t, operations.GetErrorType(errors.New("plain")))
	assert.False(t, operations.IsCancellation(errors.New("plain")))
}
