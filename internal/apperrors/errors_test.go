package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("error string includes code and message", func(t *testing.T) {
		err := New(ErrCodeNotFound, "session not found")
		assert.Equal(t, "NOT_FOUND: session not found", err.Error())
	})

	t.Run("cause is included and unwrappable", func(t *testing.T) {
		cause := errors.New("disk io")
		err := Wrap(ErrCodeCache, "cache read failed", cause)
		assert.Contains(t, err.Error(), "disk io")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("as app error sees through wrapping", func(t *testing.T) {
		inner := NotYourTurn("alice")
		wrapped := fmt.Errorf("submit move: %w", inner)

		appErr, ok := AsAppError(wrapped)
		require.True(t, ok)
		assert.Equal(t, ErrCodeNotYourTurn, appErr.Code)
	})

	t.Run("plain errors are not app errors", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
	})
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(SessionExpired("s1"), ErrCodeSessionExpired))
	assert.False(t, IsCode(SessionExpired("s1"), ErrCodeSessionCompleted))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeInternal))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
	}{
		{NotFound("session"), ErrCodeNotFound},
		{NotYourTurn("alice"), ErrCodeNotYourTurn},
		{NotParticipant("carol"), ErrCodeNotParticipant},
		{SessionExpired("s1"), ErrCodeSessionExpired},
		{SessionCompleted("s1"), ErrCodeSessionCompleted},
		{InvalidMove("not-one-edit-away"), ErrCodeInvalidMove},
		{AlreadyAnswered("alice"), ErrCodeAlreadyAnswered},
		{InvalidInput("bad kind"), ErrCodeInvalidInput},
		{Conflict("duplicate"), ErrCodeConflict},
		{Internal("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
	}
}
