package util

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"true", false, true},
		{"YES", false, true},
		{" on ", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("REPORTPIPE_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("REPORTPIPE_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("REPORTPIPE_TEST_INT", "3")
	if got := ParseIntEnv("REPORTPIPE_TEST_INT", 0); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	t.Setenv("REPORTPIPE_TEST_INT", "three")
	if got := ParseIntEnv("REPORTPIPE_TEST_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
}

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"0", 0},
		{"30m", 30 * time.Minute},
		{"-5m", time.Minute},
		{"soon", time.Minute},
	}
	for _, tt := range tests {
		t.Setenv("REPORTPIPE_TEST_DURATION", tt.value)
		if got := ParseDurationEnv("REPORTPIPE_TEST_DURATION", time.Minute); got != tt.want {
			t.Errorf("ParseDurationEnv(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("REPORTPIPE_TEST_STR", "  ")
	if got := GetenvDefault("REPORTPIPE_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for blank value, got %q", got)
	}
	t.Setenv("REPORTPIPE_TEST_STR", " value ")
	if got := GetenvDefault("REPORTPIPE_TEST_STR", "fallback"); got != "value" {
		t.Errorf("expected trimmed value, got %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
