package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvariantViolation(t *testing.T) {
	assert.True(t, IsInvariantViolation(ErrUnknownStyle))
	assert.True(t, IsInvariantViolation(fmt.Errorf("delete: %w", ErrOrphanedStyle)))
	assert.True(t, IsInvariantViolation(ErrIncompatibleVersion))
	assert.False(t, IsInvariantViolation(ErrProviderTimeout))
	assert.False(t, IsInvariantViolation(errors.New("engine exploded")))
	assert.False(t, IsInvariantViolation(nil))
}

func TestRuleCycleError(t *testing.T) {
	err := &RuleCycleError{Rounds: 10, Pending: []ChangeRequest{DeleteStyle{StyleID: 1}}}

	assert.ErrorIs(t, err, ErrRuleCycleExceeded)
	assert.Contains(t, err.Error(), "1 change requests pending after 10 rounds")

	var cycle *RuleCycleError
	wrapped := fmt.Errorf("request changes: %w", err)
	assert.True(t, errors.As(wrapped, &cycle))
	assert.Len(t, cycle.Pending, 1)
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Source: "ALGEBRA", Err: ErrProviderTimeout}

	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.Equal(t, "provider ALGEBRA: provider timeout", err.Error())
}
