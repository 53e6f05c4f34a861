package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{name: "Debug", input: "debug", expected: LevelDebug},
		{name: "Info", input: "info", expected: LevelInfo},
		{name: "Warn", input: "warn", expected: LevelWarn},
		{name: "Warning alias", input: "warning", expected: LevelWarn},
		{name: "Error", input: "error", expected: LevelError},
		{name: "Case insensitive", input: "DEBUG", expected: LevelDebug},
		{name: "Surrounding spaces", input: "  error ", expected: LevelError},
		{name: "Empty defaults to info", input: "", expected: LevelInfo},
		{name: "Unknown defaults to info", input: "verbose", expected: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("Log levels should be in ascending order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	previous := GetLevel()
	defer SetLevel(previous)

	SetLevel(LevelWarn)
	Debug("debug %s", "hidden")
	Info("info %s", "hidden")
	Warn("warn %s", "shown")
	Error("error %s", "shown")
	Printf("always %s", "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn should be filtered, got:\n%s", out)
	}
	for _, want := range []string{"warn shown", "error shown", "always shown"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSetLevelEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	previous := GetLevel()
	defer SetLevel(previous)

	SetLevel(LevelDebug)
	if !IsDebugEnabled() {
		t.Fatal("IsDebugEnabled should be true after SetLevel(LevelDebug)")
	}
	Debug("provider %s ready", "local")
	if !strings.Contains(buf.String(), "provider local ready") {
		t.Errorf("debug message missing from output: %q", buf.String())
	}
}

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	Println("subsystem", "sync", 3)
	if !strings.Contains(buf.String(), "subsystem sync 3") {
		t.Errorf("Println output = %q", buf.String())
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKVAdapter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	previous := GetLevel()
	defer SetLevel(previous)

	SetLevel(LevelInfo)
	var kv KV
	kv.Debug("retrying", "attempt", 1)
	kv.Warn("request failed", "url", "http://example/cover.jpg")

	out := buf.String()
	if strings.Contains(out, "retrying") {
		t.Errorf("debug message should be filtered, got:\n%s", out)
	}
	if !strings.Contains(out, "request failed") || !strings.Contains(out, "http://example/cover.jpg") {
		t.Errorf("warn message or fields missing, got:\n%s", out)
	}
}
