package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndInspect(t *testing.T) {
	cause := errors.New("socket closed")
	err := Wrap("upstream_error", "AI service error", cause)

	require.True(t, IsCode(err, "upstream_error"))
	require.Equal(t, "upstream_error", CodeOf(err))
	require.Equal(t, "AI service error", MessageOf(err))
	require.Equal(t, "AI service error: socket closed", err.Error())
	require.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("handler: %w", err)
	require.Equal(t, "upstream_error", CodeOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	err := errors.New("boom")
	require.Empty(t, CodeOf(err))
	require.Empty(t, MessageOf(err))
	require.False(t, IsCode(err, "boom"))
}
