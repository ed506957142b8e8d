package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferLogger_CapturesMessages(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("dbg %d", 1)
	l.Info("inf %s", "two")
	l.Warn("wrn")
	l.Error("err")

	assert.Len(t, l.Messages, 4)
	assert.Equal(t, "dbg 1", l.Messages[0].Message)
	assert.Equal(t, "inf two", l.Messages[1].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("fatal"))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()
	l.Info("something")
	l.Clear()

	assert.Empty(t, l.Messages)
}

func TestNoop_DiscardsEverything(t *testing.T) {
	l := Noop()

	// Should not panic or produce output
	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)

	Default().Info("routed")
	assert.True(t, buf.HasLevel("info"))
}
