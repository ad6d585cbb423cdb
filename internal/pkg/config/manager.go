package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

const (
	// ConfigFileName is the global configuration file name.
	ConfigFileName = "cai_config.yml"
	// TokensFileName is the default token store file name.
	TokensFileName = "tokens.yml"
)

// repoConfigNames are the file names probed at the repository root, in
// lookup order.
var repoConfigNames = []string{"cai_config.yml", "cai_config.yaml"}

// DefaultDir returns the global configuration directory (~/.config/cai).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cai"), nil
}

// Resolver locates and loads the active configuration.
//
// Precedence: a repository-local config file is authoritative and is never
// merged with the global file. Without one, the global file applies; on
// first run the global file, token template, and editable prompt templates
// are created.
type Resolver struct {
	configDir string
	repoRoot  string
	source    string
}

// NewResolver returns a Resolver rooted at configDir. repoRoot is the git
// repository root, or empty when running outside a repository.
func NewResolver(configDir, repoRoot string) *Resolver {
	return &Resolver{configDir: configDir, repoRoot: repoRoot}
}

// NewDefaultResolver resolves against ~/.config/cai.
func NewDefaultResolver(repoRoot string) (*Resolver, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewResolver(dir, repoRoot), nil
}

// ConfigDir returns the global configuration directory.
func (r *Resolver) ConfigDir() string {
	return r.configDir
}

// TokensPath returns the default token store location under the config
// directory. A load_tokens_from key in the active config overrides it.
func (r *Resolver) TokensPath() string {
	return filepath.Join(r.configDir, TokensFileName)
}

// Source returns the path of the file the last Resolve call loaded, or ""
// before Resolve has run.
func (r *Resolver) Source() string {
	return r.source
}

// Resolve loads, validates, and normalizes the active configuration.
func (r *Resolver) Resolve() (*Config, error) {
	if path := r.findRepoConfig(); path != "" {
		apperrors.Info("using repository configuration %s", path)
		cfg, err := r.loadFile(path)
		if err != nil {
			return nil, err
		}
		r.source = path
		return cfg, nil
	}

	globalPath := filepath.Join(r.configDir, ConfigFileName)
	info, err := os.Stat(globalPath)
	switch {
	case os.IsNotExist(err), err == nil && info.Size() == 0:
		if err := r.bootstrap(globalPath); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to stat config file")
	}

	cfg, err := r.loadFile(globalPath)
	if err != nil {
		return nil, err
	}
	r.source = globalPath
	return cfg, nil
}

// findRepoConfig returns the path of a repository-local config file, or ""
// when none exists.
func (r *Resolver) findRepoConfig() string {
	if r.repoRoot == "" {
		return ""
	}
	for _, name := range repoConfigNames {
		candidate := filepath.Join(r.repoRoot, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// loadFile reads one YAML config file on top of built-in defaults and
// GITCAI_* environment overrides.
func (r *Resolver) loadFile(path string) (*Config, error) {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("failed to parse %s: %v", path, err))
	}

	settings := file.AllSettings()
	if err := checkKeys(settings); err != nil {
		return nil, err
	}

	v := r.newViper()
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("failed to merge %s: %v", path, err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewInvalidConfigError(fmt.Sprintf("failed to unmarshal %s: %v", path, err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	cfg.LoadTokensFrom = normalizePath(cfg.LoadTokensFrom, baseDir)
	cfg.PromptFile = normalizePath(cfg.PromptFile, baseDir)
	cfg.SquashPromptFile = normalizePath(cfg.SquashPromptFile, baseDir)

	return &cfg, nil
}

// newViper returns a Viper instance with defaults and environment bindings
// registered.
func (r *Resolver) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, r.TokensPath())
	bindEnvVars(v)
	return v
}

// setDefaults registers the built-in defaults on v.
func setDefaults(v *viper.Viper, tokensPath string) {
	def := DefaultConfig(tokensPath)
	v.SetDefault("default", def.Default)
	v.SetDefault("language", def.Language)
	v.SetDefault("style", def.Style)
	v.SetDefault("emoji", def.Emoji)
	v.SetDefault("load_tokens_from", def.LoadTokensFrom)
	v.SetDefault("prompt_file", def.PromptFile)
	v.SetDefault("squash_prompt_file", def.SquashPromptFile)
	for _, name := range KnownProviders() {
		settings, _ := def.Provider(name)
		v.SetDefault(name+".model", settings.Model)
		v.SetDefault(name+".temperature", settings.Temperature)
	}
}

// bindEnvVars explicitly binds environment variables for all config keys.
// Viper's AutomaticEnv does not cover nested keys reliably.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("default", "GITCAI_DEFAULT")
	_ = v.BindEnv("language", "GITCAI_LANGUAGE")
	_ = v.BindEnv("style", "GITCAI_STYLE")
	_ = v.BindEnv("emoji", "GITCAI_EMOJI")
	_ = v.BindEnv("load_tokens_from", "GITCAI_LOAD_TOKENS_FROM")
	_ = v.BindEnv("prompt_file", "GITCAI_PROMPT_FILE")
	_ = v.BindEnv("squash_prompt_file", "GITCAI_SQUASH_PROMPT_FILE")
	for _, name := range KnownProviders() {
		upper := strings.ToUpper(name)
		_ = v.BindEnv(name+".model", "GITCAI_"+upper+"_MODEL")
		_ = v.BindEnv(name+".temperature", "GITCAI_"+upper+"_TEMPERATURE")
	}
}

// knownKeys is the set of valid top-level config keys.
var knownKeys = func() map[string]bool {
	keys := map[string]bool{
		"default":            true,
		"language":           true,
		"style":              true,
		"emoji":              true,
		"load_tokens_from":   true,
		"prompt_file":        true,
		"squash_prompt_file": true,
	}
	for _, name := range KnownProviders() {
		keys[name] = true
	}
	return keys
}()

// checkKeys rejects unknown top-level keys and warns about missing ones.
// Missing keys are filled from built-in defaults, never from another file.
func checkKeys(settings map[string]interface{}) error {
	var unknown, missing []string
	for key := range settings {
		if !knownKeys[key] {
			unknown = append(unknown, key)
		}
	}
	for key := range knownKeys {
		if _, ok := settings[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(unknown)
	sort.Strings(missing)

	if len(unknown) > 0 {
		return apperrors.NewInvalidConfigError("unknown config keys: " + strings.Join(unknown, ", "))
	}
	if len(missing) > 0 {
		apperrors.Warn("config is missing keys: %s (using built-in defaults)", strings.Join(missing, ", "))
	}
	return nil
}

// normalizePath expands ~ and $VARS in a configured path and resolves
// relative paths against the directory of the loaded config file.
func normalizePath(raw, baseDir string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
		}
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(baseDir, expanded)
	}
	return filepath.Clean(expanded)
}

// bootstrap writes the default global configuration, editable prompt
// templates, and the token store template. Tokens still need to be filled
// in by hand, so a warning is logged rather than failing the run.
func (r *Resolver) bootstrap(globalPath string) error {
	apperrors.Warn("config file %s missing or empty, creating defaults", globalPath)

	if err := os.MkdirAll(r.configDir, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create config directory")
	}

	commitPath, squashPath, err := WritePromptTemplates(r.configDir)
	if err != nil {
		return err
	}

	cfg := DefaultConfig(r.TokensPath())
	cfg.PromptFile = commitPath
	cfg.SquashPromptFile = squashPath

	if err := WriteConfigFile(globalPath, cfg); err != nil {
		return err
	}
	apperrors.Info("default configuration written to %s", globalPath)

	store := NewTokenStore(cfg.LoadTokensFrom)
	created, err := store.EnsureTemplate()
	if err != nil {
		return err
	}
	if created {
		apperrors.Warn("token template written to %s, add your API keys before generating", cfg.LoadTokensFrom)
	}

	return nil
}

// WriteConfigFile marshals cfg to path, overwriting any existing file.
// Keys are written in the struct's declared order.
func WriteConfigFile(path string, cfg *Config) error {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to marshal config")
	}
	if err := enc.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to marshal config")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write config file")
	}
	return nil
}

// GenerateConfigFile writes a default cai_config.yml into dir, typically
// the working directory, for use as a repository-local config. It refuses
// to overwrite an existing file.
func GenerateConfigFile(dir, tokensPath string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return "", apperrors.New(apperrors.ErrFileSystemError,
			fmt.Sprintf("%s already exists, refusing to overwrite", path))
	}
	if err := WriteConfigFile(path, DefaultConfig(tokensPath)); err != nil {
		return "", err
	}
	return path, nil
}
