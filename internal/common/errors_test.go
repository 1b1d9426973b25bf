package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", "must be positive")
	assert.Equal(t, "validation failed: amount: must be positive", err.Error())
	assert.True(t, IsValidation(err))

	bare := NewValidationError("", "bad input")
	assert.Equal(t, "validation failed: bad input", bare.Error())
}

func TestIsValidation_WrappedError(t *testing.T) {
	err := fmt.Errorf("creating transaction: %w", NewValidationError("date", "cannot be zero"))
	assert.True(t, IsValidation(err))

	assert.False(t, IsValidation(ErrNotFound))
	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(nil))
}
