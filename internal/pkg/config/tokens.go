package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// tokenTemplate is the placeholder token store written on first run. One
// entry per registered provider; untouched placeholders count as missing.
const tokenTemplate = `anthropic: PUT-YOUR-ANTHROPIC-TOKEN-HERE
deepseek: PUT-YOUR-DEEPSEEK-TOKEN-HERE
gemini: PUT-YOUR-GEMINI-TOKEN-HERE
groq: PUT-YOUR-GROQ-TOKEN-HERE
mistral: PUT-YOUR-MISTRAL-TOKEN-HERE
openai: PUT-YOUR-OPENAI-TOKEN-HERE
xai: PUT-YOUR-XAI-TOKEN-HERE
`

// TokenStore reads provider API tokens from a flat YAML file mapping
// provider names to keys. The file is created 0600 since it holds secrets.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store backed by the YAML file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// EnsureTemplate writes the placeholder template when the file is missing.
// Returns true when a new template was written.
func (s *TokenStore) EnsureTemplate() (bool, error) {
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to stat tokens file")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create tokens directory")
	}
	if err := os.WriteFile(s.path, []byte(tokenTemplate), 0600); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write token template")
	}
	return true, nil
}

// Token returns the API token for provider. The template is written on
// first access so users have a file to fill in; empty values and untouched
// placeholders are reported as missing tokens.
func (s *TokenStore) Token(provider string) (string, error) {
	created, err := s.EnsureTemplate()
	if err != nil {
		return "", err
	}
	if created {
		return "", apperrors.NewMissingTokenError(provider, s.path)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", apperrors.NewInvalidConfigError(fmt.Sprintf("failed to parse tokens file %s: %v", s.path, err))
	}

	token := strings.TrimSpace(v.GetString(provider))
	if token == "" || IsTokenPlaceholder(token) {
		return "", apperrors.NewMissingTokenError(provider, s.path)
	}
	return token, nil
}

// IsTokenPlaceholder reports whether value is an unedited template entry.
func IsTokenPlaceholder(value string) bool {
	return strings.HasPrefix(value, "PUT-YOUR-") && strings.HasSuffix(value, "-TOKEN-HERE")
}
