package ai

import (
	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// NewProvider returns the client registered for name. Token presence is
// checked by the caller before any provider is built, so construction is
// infallible for known names.
func NewProvider(name, token string) (Provider, error) {
	switch name {
	case config.ProviderOpenAI:
		return NewOpenAI(token), nil
	case config.ProviderGroq:
		return NewGroq(token), nil
	case config.ProviderXAI:
		return NewXAI(token), nil
	case config.ProviderMistral:
		return NewMistral(token), nil
	case config.ProviderDeepSeek:
		return NewDeepSeek(token), nil
	case config.ProviderGemini:
		return NewGemini(token), nil
	case config.ProviderAnthropic:
		return NewAnthropic(token), nil
	default:
		return nil, apperrors.NewUnknownProviderError(name, config.KnownProviders())
	}
}
