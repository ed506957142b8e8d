package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrConfig, "Config file not found", "Run 'perfsuite init' first")

	assert.Equal(t, ErrConfig, err.Code)
	assert.Equal(t, "Config file not found", err.Message)
	assert.Equal(t, "Run 'perfsuite init' first", err.Suggestion)
	assert.Nil(t, err.Cause)
}

func TestError_Format(t *testing.T) {
	err := New(ErrSSH, "Can't reach 'controlhub'", "Check your network connection")
	msg := err.Error()

	assert.Contains(t, msg, "✗ Can't reach 'controlhub'")
	assert.Contains(t, msg, "Check your network connection")
}

func TestError_FormatWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapWithCode(cause, ErrSSH, "SSH handshake failed", "Check sshd is running")
	msg := err.Error()

	assert.Contains(t, msg, "✗ SSH handshake failed")
	assert.Contains(t, msg, "connection refused")
	assert.Contains(t, msg, "Check sshd is running")
}

func TestWrap_DefaultsToExec(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(cause, "Command blew up")

	assert.Equal(t, ErrExec, err.Code)
	assert.Equal(t, cause, err.Cause)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := WrapWithCode(cause, ErrParse, "Couldn't parse output", "")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsCode(t *testing.T) {
	err := New(ErrParse, "Bad output", "")

	assert.True(t, IsCode(err, ErrParse))
	assert.False(t, IsCode(err, ErrSSH))
	assert.False(t, IsCode(nil, ErrParse))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrParse))
}

func TestIsCode_Wrapped(t *testing.T) {
	inner := New(ErrSSH, "inner", "")
	outer := fmt.Errorf("outer: %w", inner)

	assert.True(t, IsCode(outer, ErrSSH))
}
