// Package errors provides error types, exit-code mapping, and retry logic for git-cai.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	// User aborts (Exit Code 1)
	ErrAborted ErrorCode = iota + 100

	// Configuration errors (Exit Code 2)
	ErrInvalidConfig ErrorCode = iota + 200
	ErrUnknownProvider
	ErrInvalidArguments

	// Provider errors (Exit Code 3)
	ErrAuthenticationFailed ErrorCode = iota + 300
	ErrRequestFailed
	ErrRateLimited
	ErrResponseFormat

	// Nothing to do (Exit Code 4)
	ErrEmptyDiff ErrorCode = iota + 400
	ErrEmptyHistory

	// Git failures (Exit Code 5)
	ErrGitCommandFailed ErrorCode = iota + 500
	ErrCommitFailed
	ErrFileSystemError
)

// ExitCode returns the appropriate exit code for an error code.
func (c ErrorCode) ExitCode() int {
	switch {
	case c >= 100 && c < 200:
		return 1 // User abort, no commit made
	case c >= 200 && c < 300:
		return 2 // Configuration errors
	case c >= 300 && c < 400:
		return 3 // Provider errors
	case c >= 400 && c < 500:
		return 4 // Empty diff / empty history
	case c >= 500:
		return 5 // Git failures
	default:
		return 1
	}
}

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrAborted:
		return "Aborted"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrUnknownProvider:
		return "UnknownProvider"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrAuthenticationFailed:
		return "AuthenticationFailed"
	case ErrRequestFailed:
		return "RequestFailed"
	case ErrRateLimited:
		return "RateLimited"
	case ErrResponseFormat:
		return "ResponseFormat"
	case ErrEmptyDiff:
		return "EmptyDiff"
	case ErrEmptyHistory:
		return "EmptyHistory"
	case ErrGitCommandFailed:
		return "GitCommandFailed"
	case ErrCommitFailed:
		return "CommitFailed"
	case ErrFileSystemError:
		return "FileSystemError"
	default:
		return "Unknown"
	}
}

// AppError represents an application error with context.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
	RetryAfter time.Duration // For rate limit errors
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error can be retried.
// Only transport failures qualify; rate limits surface immediately so the
// user decides when to re-run.
func (e *AppError) IsRetryable() bool {
	return e.Code == ErrRequestFailed
}

// GetRetryAfter returns the duration to wait before retrying.
func (e *AppError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	return 0
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// RetryableError is an interface for errors that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
	GetRetryAfter() time.Duration
}

// Ensure AppError implements RetryableError
var _ RetryableError = (*AppError)(nil)

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapWithContext wraps an error with a context message.
func WrapWithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// CodeOf returns the error code of an error, or 0 when the error carries none.
func CodeOf(err error) ErrorCode {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return 0
}

// GetExitCode returns the appropriate exit code for an error.
func GetExitCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1 // Default to user error
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetRetryAfter returns the retry-after duration for an error.
func GetRetryAfter(err error) time.Duration {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.GetRetryAfter()
	}
	return 0
}

// Common error constructors with suggestions

// NewAbortedError creates an error for a user-aborted run. No commit was made.
func NewAbortedError(reason string) *AppError {
	return &AppError{
		Code:    ErrAborted,
		Message: reason,
	}
}

// NewEmptyDiffError creates an error for an empty staged diff after filtering.
func NewEmptyDiffError() *AppError {
	return &AppError{
		Code:       ErrEmptyDiff,
		Message:    "no changes to commit",
		Suggestion: "Did you run 'git add'? Files must be staged, and not excluded by .caiignore",
	}
}

// NewEmptyHistoryError creates an error for a branch with nothing to squash.
func NewEmptyHistoryError(branch string) *AppError {
	return &AppError{
		Code:       ErrEmptyHistory,
		Message:    fmt.Sprintf("nothing to squash on branch %q", branch),
		Suggestion: "The branch has no commits beyond its base",
	}
}

// NewMissingTokenError creates an error for a provider with no stored API key.
// It is raised before any network call is attempted.
func NewMissingTokenError(provider, tokenPath string) *AppError {
	return &AppError{
		Code:       ErrAuthenticationFailed,
		Message:    fmt.Sprintf("missing %s token", provider),
		Suggestion: fmt.Sprintf("Add your %s API key to %s", provider, tokenPath),
	}
}

// NewInvalidConfigError creates an error for invalid configuration.
func NewInvalidConfigError(message string) *AppError {
	return &AppError{
		Code:       ErrInvalidConfig,
		Message:    message,
		Suggestion: "Fix the repository cai_config.yml, or delete ~/.config/cai/cai_config.yml and run 'git cai' to regenerate defaults",
	}
}

// NewUnknownProviderError creates an error for a provider name with no
// registered client.
func NewUnknownProviderError(name string, known []string) *AppError {
	return &AppError{
		Code:       ErrUnknownProvider,
		Message:    fmt.Sprintf("unknown provider %q", name),
		Suggestion: fmt.Sprintf("Set 'default' to one of: %s", strings.Join(known, ", ")),
	}
}

// NewInvalidArgumentsError creates an error for a bad flag combination.
func NewInvalidArgumentsError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidArguments,
		Message: message,
	}
}

// NewGitError creates an error for git command failures.
func NewGitError(err error, output string) *AppError {
	appErr := &AppError{
		Code:    ErrGitCommandFailed,
		Message: "git command failed",
		Cause:   err,
	}
	if output != "" {
		appErr.Context = map[string]interface{}{
			"output": output,
		}
	}
	return appErr
}

// NewGitTimeoutError creates an error for a git command that exceeded its
// deadline.
func NewGitTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrGitCommandFailed,
		Message: "git command timed out",
		Cause:   err,
	}
}

// NewCommitError creates an error for a failed commit step. The hint tells
// the user how to recover the repository state manually.
func NewCommitError(err error, hint string) *AppError {
	return &AppError{
		Code:       ErrCommitFailed,
		Message:    "git commit failed",
		Cause:      err,
		Suggestion: hint,
	}
}

// NewRequestError creates an error for network/transport failures.
// Retried once with backoff before surfacing.
func NewRequestError(provider string, err error) *AppError {
	return &AppError{
		Code:       ErrRequestFailed,
		Message:    fmt.Sprintf("request to %s failed", provider),
		Cause:      err,
		Suggestion: "Please check your network connection and try again",
	}
}

// NewTimeoutError creates an error for request timeouts. Timeouts count as
// transport failures and share their retry policy.
func NewTimeoutError(provider string, err error) *AppError {
	return &AppError{
		Code:       ErrRequestFailed,
		Message:    fmt.Sprintf("request to %s timed out", provider),
		Cause:      err,
		Suggestion: "Please check your network connection or try again later",
	}
}

// NewRateLimitError creates an error for rate limiting. Never retried
// automatically.
func NewRateLimitError(provider string, retryAfter time.Duration) *AppError {
	suggestion := "Please wait and re-run 'git cai'"
	if retryAfter > 0 {
		suggestion = fmt.Sprintf("Please wait %v and re-run 'git cai'", retryAfter)
	}
	return &AppError{
		Code:       ErrRateLimited,
		Message:    fmt.Sprintf("%s rate limit exceeded", provider),
		RetryAfter: retryAfter,
		Suggestion: suggestion,
	}
}

// NewAuthenticationError creates an error for authentication failures.
func NewAuthenticationError(provider string) *AppError {
	return &AppError{
		Code:       ErrAuthenticationFailed,
		Message:    fmt.Sprintf("authentication failed with %s", provider),
		Suggestion: "Please check your API key is valid and has not expired",
	}
}

// NewResponseFormatError creates an error for unparsable provider responses.
func NewResponseFormatError(provider string, err error) *AppError {
	return &AppError{
		Code:       ErrResponseFormat,
		Message:    fmt.Sprintf("%s returned an unusable response", provider),
		Cause:      err,
		Suggestion: "Re-run 'git cai'; if this persists, try another model or provider",
	}
}

// ParseRetryAfterHeader parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func ParseRetryAfterHeader(header string) time.Duration {
	if header == "" {
		return 0
	}

	// Try parsing as seconds
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date
	if t, err := http.ParseTime(header); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Message))

		if appErr.Cause != nil {
			sb.WriteString("\n  Cause: ")
			sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
		}

		if appErr.Suggestion != "" {
			sb.WriteString("\n  Suggestion: ")
			sb.WriteString(appErr.Suggestion)
		}
	} else {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(err.Error()))
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with full details for debug mode.
// API keys and other sensitive data are automatically masked.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString(fmt.Sprintf("Error [%s]: %s\n", appErr.Code.String(), SanitizeErrorMessage(appErr.Message)))

		if appErr.Cause != nil {
			sb.WriteString(fmt.Sprintf("  Cause: %v\n", SanitizeErrorMessage(appErr.Cause.Error())))
			// Print the full error chain
			sb.WriteString("  Error chain:\n")
			printErrorChain(&sb, appErr.Cause, 2)
		}

		if len(appErr.Context) > 0 {
			sb.WriteString("  Context:\n")
			for k, v := range appErr.Context {
				// Sanitize context values as well
				sb.WriteString(fmt.Sprintf("    %s: %v\n", k, SanitizeErrorMessage(fmt.Sprintf("%v", v))))
			}
		}

		if appErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", appErr.Suggestion))
		}

		if appErr.RetryAfter > 0 {
			sb.WriteString(fmt.Sprintf("  Retry after: %v\n", appErr.RetryAfter))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %v\n", SanitizeErrorMessage(err.Error())))
		sb.WriteString("  Error chain:\n")
		printErrorChain(&sb, err, 2)
	}

	return sb.String()
}

// printErrorChain prints the error chain with indentation.
func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	// Sanitize error message to mask any API keys
	errMsg := SanitizeErrorMessage(err.Error())
	sb.WriteString(fmt.Sprintf("%s- %T: %v\n", prefix, err, errMsg))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks any API keys or sensitive data in error messages.
func SanitizeErrorMessage(msg string) string {
	result := apiKeyPattern.ReplaceAllStringFunc(msg, func(match string) string {
		if len(match) <= 4 {
			return "****"
		}
		return strings.Repeat("*", len(match)-4) + match[len(match)-4:]
	})
	return result
}

// apiKeyPattern matches key shapes used by the supported providers
// (OpenAI/DeepSeek/Mistral sk-, Groq gsk_, xAI xai-, Anthropic sk-ant-,
// Google AIza).
var apiKeyPattern = regexp.MustCompile(`(?:sk-(?:ant-)?[a-zA-Z0-9_-]{20,}|gsk_[a-zA-Z0-9]{20,}|xai-[a-zA-Z0-9]{20,}|AIza[a-zA-Z0-9_-]{30,})`)
