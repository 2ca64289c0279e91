package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewErrorKnownCodes verifies a few representative codes carry the expected
// HTTP status.
func TestNewErrorKnownCodes(t *testing.T) {
	tests := []struct {
		code   int
		status int
	}{
		{ErrInvalidParams, http.StatusBadRequest},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{ErrConversationNotFound, http.StatusNotFound},
		{ErrRoomNotFound, http.StatusNotFound},
		{ErrRoomNameExists, http.StatusConflict},
		{ErrAlreadyMember, http.StatusConflict},
		{ErrNotMember, http.StatusConflict},
		{ErrNotParticipant, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrUserNotFound, http.StatusUnauthorized},
		{ErrSessionReplaced, http.StatusConflict},
		{ErrEmptyContent, http.StatusBadRequest},
		{ErrMessageContentTooLong, http.StatusBadRequest},
		{ErrSelfConversation, http.StatusBadRequest},
		{ErrPersistence, http.StatusInternalServerError},
		{ErrUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		customErr := NewError(tt.code)
		require.NotNil(t, customErr)
		assert.Equal(t, tt.code, customErr.Code)
		assert.Equal(t, tt.status, customErr.Status)
		assert.NotEmpty(t, customErr.Message)
	}
}

// TestNewErrorUnknownCode verifies unknown codes collapse to ErrUnknown instead
// of panicking or leaking a zero-value error.
func TestNewErrorUnknownCode(t *testing.T) {
	customErr := NewError(999999)
	require.NotNil(t, customErr)
	assert.Equal(t, ErrUnknown, customErr.Code)
	assert.Equal(t, http.StatusInternalServerError, customErr.Status)
}

// TestNewErrorReturnsCopy verifies mutating a returned error does not corrupt
// the shared template.
func TestNewErrorReturnsCopy(t *testing.T) {
	first := NewError(ErrInvalidParams)
	first.Message = "mutated"

	second := NewError(ErrInvalidParams)
	assert.NotEqual(t, "mutated", second.Message)
}

func TestCustomErrorError(t *testing.T) {
	customErr := NewError(ErrRoomNotFound)
	assert.Contains(t, customErr.Error(), customErr.Message)
}
