package kernel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
)

func newBufLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(buf))))
}

func TestLoggerInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := newBufLogger(&buf)

	l.Info("task added", map[string]any{"task": "a", "priority": uint8(5)})

	out := buf.String()
	assert.True(t, strings.Contains(out, `"msg":"task added"`), out)
	assert.True(t, strings.Contains(out, `"task":"a"`), out)
	assert.True(t, strings.Contains(out, `"priority":5`), out)
}

func TestLoggerWarnWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := newBufLogger(&buf)

	l.Warn("scheduler drift", map[string]any{"task": "a", "lock_count": 2})

	out := buf.String()
	assert.True(t, strings.Contains(out, `"msg":"scheduler drift"`), out)
	assert.True(t, strings.Contains(out, `"lock_count":2`), out)
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ignored", map[string]any{"x": 1})
		l.Warn("ignored", nil)
	})
}
