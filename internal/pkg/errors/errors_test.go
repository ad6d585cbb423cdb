package errors

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestErrorCode_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		code     ErrorCode
		expected int
	}{
		{"Aborted", ErrAborted, 1},
		{"InvalidConfig", ErrInvalidConfig, 2},
		{"UnknownProvider", ErrUnknownProvider, 2},
		{"InvalidArguments", ErrInvalidArguments, 2},
		{"AuthenticationFailed", ErrAuthenticationFailed, 3},
		{"RequestFailed", ErrRequestFailed, 3},
		{"RateLimited", ErrRateLimited, 3},
		{"ResponseFormat", ErrResponseFormat, 3},
		{"EmptyDiff", ErrEmptyDiff, 4},
		{"EmptyHistory", ErrEmptyHistory, 4},
		{"GitCommandFailed", ErrGitCommandFailed, 5},
		{"CommitFailed", ErrCommitFailed, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name: "without cause",
			err: &AppError{
				Code:    ErrEmptyDiff,
				Message: "no changes to commit",
			},
			expected: "no changes to commit",
		},
		{
			name: "with cause",
			err: &AppError{
				Code:    ErrGitCommandFailed,
				Message: "git command failed",
				Cause:   errors.New("exit status 1"),
			},
			expected: "git command failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected bool
	}{
		{
			name:     "transport failure",
			err:      &AppError{Code: ErrRequestFailed},
			expected: true,
		},
		{
			name:     "rate limited surfaces immediately",
			err:      &AppError{Code: ErrRateLimited},
			expected: false,
		},
		{
			name:     "authentication failure",
			err:      &AppError{Code: ErrAuthenticationFailed},
			expected: false,
		},
		{
			name:     "empty diff",
			err:      &AppError{Code: ErrEmptyDiff},
			expected: false,
		},
		{
			name:     "invalid config",
			err:      &AppError{Code: ErrInvalidConfig},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := New(ErrGitCommandFailed, "git failed")
	err.WithContext("command", "git commit")
	err.WithContext("exit_code", 1)

	if err.Context["command"] != "git commit" {
		t.Errorf("Context[command] = %v, want 'git commit'", err.Context["command"])
	}
	if err.Context["exit_code"] != 1 {
		t.Errorf("Context[exit_code] = %v, want 1", err.Context["exit_code"])
	}
}

func TestAppError_WithSuggestion(t *testing.T) {
	err := New(ErrEmptyDiff, "no changes to commit")
	err.WithSuggestion("Use 'git add' to stage changes")

	if err.Suggestion != "Use 'git add' to stage changes" {
		t.Errorf("Suggestion = %v, want 'Use 'git add' to stage changes'", err.Suggestion)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	wrapped := Wrap(cause, ErrGitCommandFailed, "git command failed")

	if wrapped.Code != ErrGitCommandFailed {
		t.Errorf("Code = %v, want %v", wrapped.Code, ErrGitCommandFailed)
	}
	if wrapped.Message != "git command failed" {
		t.Errorf("Message = %v, want 'git command failed'", wrapped.Message)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Wrapped error should contain the cause")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New(ErrEmptyDiff, "no changes to commit")
	regularErr := errors.New("regular error")

	if !IsAppError(appErr) {
		t.Error("IsAppError should return true for AppError")
	}
	if IsAppError(regularErr) {
		t.Error("IsAppError should return false for regular error")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "user abort",
			err:      New(ErrAborted, "commit message not saved"),
			expected: 1,
		},
		{
			name:     "config error",
			err:      New(ErrInvalidConfig, "bad yaml"),
			expected: 2,
		},
		{
			name:     "provider error",
			err:      New(ErrRequestFailed, "network error"),
			expected: 3,
		},
		{
			name:     "empty diff",
			err:      New(ErrEmptyDiff, "no changes to commit"),
			expected: 4,
		},
		{
			name:     "git failure",
			err:      New(ErrGitCommandFailed, "git failed"),
			expected: 5,
		},
		{
			name:     "regular error",
			err:      errors.New("regular error"),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewEmptyDiffError()); got != ErrEmptyDiff {
		t.Errorf("CodeOf() = %v, want %v", got, ErrEmptyDiff)
	}
	if got := CodeOf(errors.New("plain")); got != 0 {
		t.Errorf("CodeOf() = %v, want 0", got)
	}
}

func TestParseRetryAfterHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected time.Duration
	}{
		{
			name:     "empty",
			header:   "",
			expected: 0,
		},
		{
			name:     "seconds",
			header:   "60",
			expected: 60 * time.Second,
		},
		{
			name:     "invalid",
			header:   "invalid",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfterHeader(tt.header); got != tt.expected {
				t.Errorf("ParseRetryAfterHeader() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewEmptyDiffError(t *testing.T) {
	err := NewEmptyDiffError()

	if err.Code != ErrEmptyDiff {
		t.Errorf("Code = %v, want %v", err.Code, ErrEmptyDiff)
	}
	if err.Suggestion == "" {
		t.Error("Suggestion should not be empty")
	}
}

func TestNewMissingTokenError(t *testing.T) {
	err := NewMissingTokenError("openai", "/home/u/.config/cai/tokens.yml")

	if err.Code != ErrAuthenticationFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrAuthenticationFailed)
	}
	if err.Suggestion == "" {
		t.Error("Suggestion should not be empty")
	}
}

func TestNewUnknownProviderError(t *testing.T) {
	err := NewUnknownProviderError("skynet", []string{"openai", "groq"})

	if err.Code != ErrUnknownProvider {
		t.Errorf("Code = %v, want %v", err.Code, ErrUnknownProvider)
	}
	if err.Code.ExitCode() != 2 {
		t.Errorf("ExitCode() = %v, want 2 (config error, not provider error)", err.Code.ExitCode())
	}
}

func TestNewRateLimitError(t *testing.T) {
	err := NewRateLimitError("groq", 30*time.Second)

	if err.Code != ErrRateLimited {
		t.Errorf("Code = %v, want %v", err.Code, ErrRateLimited)
	}
	if err.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want %v", err.RetryAfter, 30*time.Second)
	}
	if err.IsRetryable() {
		t.Error("Rate limit errors must not be retried automatically")
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "nil error",
			err:      nil,
			contains: []string{},
		},
		{
			name: "app error with suggestion",
			err: &AppError{
				Code:       ErrEmptyDiff,
				Message:    "no changes to commit",
				Suggestion: "Use git add",
			},
			contains: []string{"Error:", "no changes to commit", "Suggestion:", "Use git add"},
		},
		{
			name:     "regular error",
			err:      errors.New("regular error"),
			contains: []string{"Error:", "regular error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.err)
			for _, s := range tt.contains {
				if len(s) > 0 && !contains(result, s) {
					t.Errorf("FormatError() should contain %q, got %q", s, result)
				}
			}
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	openaiKey := "sk-abcdefghijklmnopqrstuvwx"
	groqKey := "gsk_abcdefghijklmnopqrstuvwx"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "openai style key",
			in:   "401 for key " + openaiKey,
			want: "401 for key " + strings.Repeat("*", len(openaiKey)-4) + "uvwx",
		},
		{
			name: "groq style key",
			in:   "bad key " + groqKey,
			want: "bad key " + strings.Repeat("*", len(groqKey)-4) + "uvwx",
		},
		{
			name: "no key",
			in:   "connection refused",
			want: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeErrorMessage(tt.in); got != tt.want {
				t.Errorf("SanitizeErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
