package errors

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true) // debug mode

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()

	if !strings.Contains(output, "ERROR") {
		t.Error("Output should contain ERROR")
	}
	if !strings.Contains(output, "WARN") {
		t.Error("Output should contain WARN")
	}
	if !strings.Contains(output, "INFO") {
		t.Error("Output should contain INFO")
	}
	if !strings.Contains(output, "DEBUG") {
		t.Error("Output should contain DEBUG")
	}
}

func TestLogger_NonVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false) // default mode

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()

	if !strings.Contains(output, "ERROR") {
		t.Error("Output should contain ERROR in default mode")
	}
	if !strings.Contains(output, "WARN") {
		t.Error("Output should contain WARN in default mode")
	}
	if strings.Contains(output, "INFO") {
		t.Error("Output should not contain INFO in default mode")
	}
	if strings.Contains(output, "DEBUG") {
		t.Error("Output should not contain DEBUG in default mode")
	}
}

func TestLogger_LogAPIRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	logger.LogAPIRequest("req-1", "openai", "https://api.openai.com/v1", "gpt-5.2", 1000)

	output := buf.String()

	if !strings.Contains(output, "openai") {
		t.Error("Output should contain provider name")
	}
	if !strings.Contains(output, "gpt-5.2") {
		t.Error("Output should contain model name")
	}
	if !strings.Contains(output, "req-1") {
		t.Error("Output should contain request id")
	}
}

func TestLogger_LogAPIResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	logger.LogAPIResponse("req-1", "openai", 200, 500, 100*time.Millisecond)

	output := buf.String()

	if !strings.Contains(output, "openai") {
		t.Error("Output should contain provider name")
	}
	if !strings.Contains(output, "200") {
		t.Error("Output should contain status code")
	}
}

func TestLogger_LogRetry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	testErr := New(ErrRequestFailed, "connection failed")
	logger.LogRetry(1, 2, testErr, 1*time.Second)

	output := buf.String()

	if !strings.Contains(output, "Retry") {
		t.Error("Output should contain 'Retry'")
	}
	if !strings.Contains(output, "1/2") {
		t.Error("Output should contain attempt count")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		expected string
	}{
		{
			name:     "normal key",
			apiKey:   "sk-1234567890abcdef",
			expected: "***************cdef",
		},
		{
			name:     "short key",
			apiKey:   "abc",
			expected: "****",
		},
		{
			name:     "exactly 4 chars",
			apiKey:   "abcd",
			expected: "****",
		},
		{
			name:     "5 chars",
			apiKey:   "abcde",
			expected: "*bcde",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.apiKey); got != tt.expected {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.apiKey, got, tt.expected)
			}
		})
	}
}

func TestSetVerbose(t *testing.T) {
	// Save original state
	originalVerbose := IsVerbose()
	defer SetVerbose(originalVerbose)

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("IsVerbose() should return true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("IsVerbose() should return false after SetVerbose(false)")
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelError, "ERROR"},
		{LogLevelWarn, "WARN"},
		{LogLevelInfo, "INFO"},
		{LogLevelDebug, "DEBUG"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}
