package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewSchemaError("grouping column missing", nil),
			want: "[SCHEMA] grouping column missing",
		},
		{
			name: "with cause",
			err:  NewComputeError("computation failed for group continent=Asia", errors.New("no data")),
			want: "[COMPUTE] computation failed for group continent=Asia: no data",
		},
		{
			name: "not found",
			err:  NewNotFoundError("sheet Data"),
			want: "[NOT_FOUND] sheet Data not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewParsingError("read csv", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "open failed"}
	err.WithContext("path", "data.xlsx").WithContext("sheet", "Sheet1")

	assert.Equal(t, "data.xlsx", err.Context["path"])
	assert.Equal(t, "Sheet1", err.Context["sheet"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{NewSchemaError("x", nil), ErrTypeSchema},
		{NewComputeError("x", nil), ErrTypeCompute},
		{NewParsingError("x", nil), ErrTypeParsing},
		{NewStorageError("x", nil), ErrTypeStorage},
		{NewAppValidationError("x"), ErrTypeValidation},
		{NewNotFoundError("x"), ErrTypeNotFound},
		{NewConfigError("x", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestAsAppError(t *testing.T) {
	inner := NewComputeError("inner", nil)
	wrapped := fmt.Errorf("aggregate: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("load: %w", NewParsingError("bad header", nil))

	assert.True(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeSchema))
	assert.False(t, IsType(errors.New("plain"), ErrTypeParsing))
	assert.False(t, IsType(nil, ErrTypeParsing))
}

func TestIsType_OutermostWins(t *testing.T) {
	inner := NewComputeError("inner", nil)
	outer := NewSchemaError("outer", inner)

	assert.True(t, IsType(outer, ErrTypeSchema))
	assert.False(t, IsType(outer, ErrTypeCompute))
}
