package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerScope(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelDebug)

	l.Debug("worker-1", "debug message")
	l.Error("worker-1", "error message")

	output := buf.String()
	if !strings.Contains(output, "[DEBUG] [worker-1] debug message") {
		t.Errorf("expected scoped debug line, got: %s", output)
	}
	if !strings.Contains(output, "[ERROR] [worker-1] error message") {
		t.Errorf("expected scoped error line, got: %s", output)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelWarn)

	l.Debug("", "debug message")
	l.Info("", "info message")
	l.Warn("", "warn message")

	output := buf.String()
	if strings.Contains(output, "[DEBUG]") || strings.Contains(output, "[INFO]") {
		t.Errorf("DEBUG and INFO should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "[WARN]") {
		t.Error("expected WARN log")
	}
	if l.Enabled(LevelInfo) {
		t.Error("expected INFO to be disabled at WARN level")
	}
}

func TestLoggerSetLevelAndOutput(t *testing.T) {
	first := &bytes.Buffer{}
	l := New(first, LevelError)

	l.Info("", "hidden")
	if first.Len() != 0 {
		t.Errorf("expected no output, got: %s", first.String())
	}

	second := &bytes.Buffer{}
	l.SetOutput(second)
	l.SetLevel(LevelInfo)
	l.Info("", "count: %d", 7)

	if first.Len() != 0 {
		t.Error("old writer should not receive output after SetOutput")
	}
	if !strings.Contains(second.String(), "count: 7") {
		t.Errorf("expected formatted message, got: %s", second.String())
	}
}

func TestLoggerWithoutScope(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelInfo)

	l.Info("", "plain")

	if strings.Contains(buf.String(), "[]") {
		t.Error("should not print empty scope brackets")
	}
}
