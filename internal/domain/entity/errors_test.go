package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{name: "url required", field: "url", message: "url is required", expected: "validation error on field 'url': url is required"},
		{name: "name too long", field: "name", message: "name is too long", expected: "validation error on field 'name': name is too long"},
		{name: "empty field name", field: "", message: "x", expected: "validation error on field '': x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_InErrorChain(t *testing.T) {
	err := fmt.Errorf("register feed: %w", &ValidationError{Field: "url", Message: "url is required"})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "url", ve.Field)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSentinelErrors_Distinct(t *testing.T) {
	all := []error{ErrNotFound, ErrValidationFailed}
	for i, a := range all {
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}
