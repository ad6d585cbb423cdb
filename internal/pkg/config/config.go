// Package config locates, loads, and validates git-cai configuration.
//
// Two YAML files participate: a global file under ~/.config/cai and an
// optional repository-local cai_config.yml at the git root. A repository
// file, when present, is authoritative; keys it omits fall back to the
// built-in defaults, never to the global file. Provider API tokens live in
// a separate YAML store referenced by load_tokens_from.
package config

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// Registered provider names. These are the valid values for the "default"
// key and the section names of the per-provider blocks.
const (
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderMistral   = "mistral"
	ProviderOpenAI    = "openai"
	ProviderXAI       = "xai"
)

// KnownProviders returns every backend with a registered client, sorted.
func KnownProviders() []string {
	return []string{
		ProviderAnthropic,
		ProviderDeepSeek,
		ProviderGemini,
		ProviderGroq,
		ProviderMistral,
		ProviderOpenAI,
		ProviderXAI,
	}
}

// ProviderSettings selects the model and sampling temperature for one backend.
type ProviderSettings struct {
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
}

// Config is the resolved git-cai configuration. Field names mirror the
// YAML keys of cai_config.yml; struct order is the order keys are written
// in generated files.
type Config struct {
	Default          string `mapstructure:"default" yaml:"default"`
	Language         string `mapstructure:"language" yaml:"language"`
	Style            string `mapstructure:"style" yaml:"style"`
	Emoji            bool   `mapstructure:"emoji" yaml:"emoji"`
	LoadTokensFrom   string `mapstructure:"load_tokens_from" yaml:"load_tokens_from"`
	PromptFile       string `mapstructure:"prompt_file" yaml:"prompt_file"`
	SquashPromptFile string `mapstructure:"squash_prompt_file" yaml:"squash_prompt_file"`

	Anthropic ProviderSettings `mapstructure:"anthropic" yaml:"anthropic"`
	DeepSeek  ProviderSettings `mapstructure:"deepseek" yaml:"deepseek"`
	Gemini    ProviderSettings `mapstructure:"gemini" yaml:"gemini"`
	Groq      ProviderSettings `mapstructure:"groq" yaml:"groq"`
	Mistral   ProviderSettings `mapstructure:"mistral" yaml:"mistral"`
	OpenAI    ProviderSettings `mapstructure:"openai" yaml:"openai"`
	XAI       ProviderSettings `mapstructure:"xai" yaml:"xai"`
}

// DefaultConfig returns the built-in defaults. tokensPath is recorded under
// load_tokens_from; prompt file keys start empty and are filled in on first
// run when editable templates are written to the config directory.
func DefaultConfig(tokensPath string) *Config {
	return &Config{
		Default:        ProviderGroq,
		Language:       "en",
		Style:          "professional",
		Emoji:          true,
		LoadTokensFrom: tokensPath,

		Anthropic: ProviderSettings{Model: "claude-haiku-4-5"},
		DeepSeek:  ProviderSettings{Model: "deepseek-chat"},
		Gemini:    ProviderSettings{Model: "gemini-2.5-flash"},
		Groq:      ProviderSettings{Model: "moonshotai/kimi-k2-instruct"},
		Mistral:   ProviderSettings{Model: "codestral-2508"},
		OpenAI:    ProviderSettings{Model: "gpt-5.2"},
		XAI:       ProviderSettings{Model: "grok-4-1-fast-reasoning"},
	}
}

// Provider returns the settings block for the named backend.
func (c *Config) Provider(name string) (ProviderSettings, bool) {
	switch name {
	case ProviderAnthropic:
		return c.Anthropic, true
	case ProviderDeepSeek:
		return c.DeepSeek, true
	case ProviderGemini:
		return c.Gemini, true
	case ProviderGroq:
		return c.Groq, true
	case ProviderMistral:
		return c.Mistral, true
	case ProviderOpenAI:
		return c.OpenAI, true
	case ProviderXAI:
		return c.XAI, true
	}
	return ProviderSettings{}, false
}

// DefaultProvider returns the settings block selected by the "default" key.
func (c *Config) DefaultProvider() (ProviderSettings, error) {
	settings, ok := c.Provider(c.Default)
	if !ok {
		return ProviderSettings{}, apperrors.NewUnknownProviderError(c.Default, KnownProviders())
	}
	return settings, nil
}

// Validate checks semantic constraints after unmarshaling and normalizes
// language and style in place. Unsupported languages degrade to English
// with a warning; everything else is an error.
func (c *Config) Validate() error {
	c.Language = NormalizeLanguage(c.Language)

	style, err := NormalizeStyle(c.Style)
	if err != nil {
		return err
	}
	c.Style = style

	if _, ok := c.Provider(c.Default); !ok {
		return apperrors.NewUnknownProviderError(c.Default, KnownProviders())
	}

	for _, name := range KnownProviders() {
		settings, _ := c.Provider(name)
		if settings.Temperature < 0 || settings.Temperature > 2 {
			return apperrors.NewInvalidConfigError(
				fmt.Sprintf("%s.temperature %g is outside the allowed range [0, 2]", name, settings.Temperature))
		}
	}

	return nil
}

// LanguageMap maps supported ISO 639-1 codes to the language name used in
// generation prompts.
var LanguageMap = map[string]string{
	"en": "English",
	"it": "Italian",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"bn": "Bengali",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"tr": "Turkish",
	"vi": "Vietnamese",
}

// LanguageCodes returns the supported language codes, sorted.
func LanguageCodes() []string {
	codes := make([]string, 0, len(LanguageMap))
	for code := range LanguageMap {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LanguageName returns the prompt language name for code, defaulting to
// English for unknown codes.
func LanguageName(code string) string {
	if name, ok := LanguageMap[code]; ok {
		return name
	}
	return "English"
}

// NormalizeLanguage returns code when supported, otherwise "en" with a
// warning. An unsupported language never aborts a run.
func NormalizeLanguage(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if _, ok := LanguageMap[normalized]; ok {
		return normalized
	}
	apperrors.Warn("language code %q is not supported, falling back to 'en'", code)
	return "en"
}

// Style describes one supported commit message tone with a sample headline.
type Style struct {
	Name        string
	Description string
	Example     string
}

// Styles returns the supported commit message tones.
func Styles() []Style {
	return []Style{
		{Name: "professional", Description: "Businesslike and polished", Example: "Refactor logging module to improve reliability."},
		{Name: "neutral", Description: "Plain and to the point", Example: "Fix typo in configuration loader."},
		{Name: "friendly", Description: "Casual and warm", Example: "Hey! Just cleaned up the config parsing."},
		{Name: "funny", Description: "Lighthearted with a joke", Example: "Fixed the bug that was hiding like a ninja in our config."},
		{Name: "excited", Description: "Enthusiastic and energetic", Example: "Amazing update! The config loader is now super fast!"},
		{Name: "sarcastic", Description: "Dry and ironic", Example: "Oh look, another config bug. Shocking, right?"},
		{Name: "apologetic", Description: "Owns up to the mistake", Example: "Sorry, my bad, this commit fixes the config error."},
		{Name: "academic", Description: "Formal and precise", Example: "This commit introduces a revised configuration parser based on robust principles."},
	}
}

// StyleNames returns the allowed style names, sorted for error messages.
func StyleNames() []string {
	names := make([]string, 0, len(Styles()))
	for _, s := range Styles() {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// NormalizeStyle lowercases and validates the configured tone.
func NormalizeStyle(style string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(style))
	for _, s := range Styles() {
		if s.Name == normalized {
			return normalized, nil
		}
	}
	return "", apperrors.NewInvalidConfigError(
		fmt.Sprintf("invalid style %q, allowed styles: %s", style, strings.Join(StyleNames(), ", ")))
}
