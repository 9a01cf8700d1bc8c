package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.WarnLevel, false},
		{"trace", zerolog.TraceLevel, true},
		{"DEBUG", zerolog.DebugLevel, true},
		{" info ", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.WarnLevel, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewVerboseLowersLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	tests := []struct {
		verbose int
		want    zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		logger := New(&bytes.Buffer{}, Options{Level: "warn", Verbose: tt.verbose})
		if logger.GetLevel() != tt.want {
			t.Errorf("Verbose=%d: level = %v, want %v", tt.verbose, logger.GetLevel(), tt.want)
		}
	}
}

func TestNewVerboseIgnoredWhenDisabled(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	logger := New(&bytes.Buffer{}, Options{Level: "off", Verbose: 3})
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", logger.GetLevel())
	}
}

func TestNewEnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	logger := New(&bytes.Buffer{}, Options{Level: "debug", Verbose: 2})
	if logger.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("level = %v, want error from env", logger.GetLevel())
	}
}

func TestNewWritesConsoleOutput(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogNoColor, "true")

	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "info"})
	logger.Info().Str("handle", "abc").Msg("handle created")

	out := buf.String()
	if !strings.Contains(out, "handle created") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "handle=abc") {
		t.Errorf("output missing field: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output should not contain color codes: %q", out)
	}
}
