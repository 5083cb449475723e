package logging

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// newBufferLogger returns a logger writing only to the buffer
func newBufferLogger(component string, buf *bytes.Buffer) *Logger {
	l := NewLogger(component)
	l.outputs = []io.Writer{buf}
	return l
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"DEBUG", LogLevelDebug},
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"WARN", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"", LogLevelInfo},
		{"garbage", LogLevelInfo},
		{" error ", LogLevelError},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDebugSuppressedAtDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger("Test", &buf)

	l.Debug("not shown")
	l.DebugWithContext("also not shown", map[string]interface{}{"k": 1})
	if buf.Len() != 0 {
		t.Errorf("debug output emitted at default level:\n%s", buf.String())
	}

	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info output missing:\n%s", buf.String())
	}
}

func TestDebugEmittedWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger("Test", &buf).SetMinLevel(LogLevelDebug)

	l.Debug("tracing")
	l.DebugWithContext("with context", map[string]interface{}{"pause": "2s"})

	out := buf.String()
	if !strings.Contains(out, "DEBUG [Test] tracing") {
		t.Errorf("plain debug line missing:\n%s", out)
	}
	if !strings.Contains(out, "with context | pause=2s") {
		t.Errorf("contextual debug line missing:\n%s", out)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger("Bot", &buf)

	l.Error("capture gave up", errors.New("synthetic"))

	out := buf.String()
	if !strings.Contains(out, "ERROR [Bot] capture gave up | error=synthetic") {
		t.Errorf("error line malformed:\n%s", out)
	}
}
