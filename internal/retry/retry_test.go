package retry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsImmediately(t *testing.T) {
	calls := 0
	value, err := Do(3, func(attempt int) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 1, calls, "no further attempts after success")
}

func TestDoSucceedsOnLaterAttempt(t *testing.T) {
	value, err := Do(3, func(attempt int) (int, error) {
		if attempt < 2 {
			return 0, ErrRejected
		}
		return attempt, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, value)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	value, err := Do(3, func(attempt int) (string, error) {
		calls++
		return "should not leak", ErrRejected
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, calls)
	assert.Empty(t, value, "exhaustion returns the zero value")
}

func TestDoAbortsOnOtherError(t *testing.T) {
	abort := errors.New("cancelled")
	calls := 0
	_, err := Do(3, func(attempt int) (string, error) {
		calls++
		return "", abort
	})
	assert.ErrorIs(t, err, abort)
	assert.Equal(t, 1, calls, "non-rejection errors end the loop")
}
