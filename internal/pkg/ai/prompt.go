package ai

import (
	"os"
	"strings"

	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// Directives appended to every system prompt body. The tone directive is
// completed with the configured style name.
const (
	toneDirective = " Write the commit message in the following tone style: "

	emojiDirective = "Use relevant emojis in the commit message where appropriate. " +
		"Emojis should enhance the clarity and tone of the message."

	noEmojiDirective = "Do not use any emojis in the commit message."
)

// CommitPrompt composes the system prompt for commit message generation.
// prompt_file, when set and readable, replaces the built-in body; the tone
// and emoji directives are appended either way.
func CommitPrompt(cfg *config.Config) string {
	return composePrompt(promptBody(cfg.PromptFile, config.DefaultCommitPrompt), cfg)
}

// SquashPrompt composes the system prompt for squash summarization.
func SquashPrompt(cfg *config.Config) string {
	return composePrompt(promptBody(cfg.SquashPromptFile, config.DefaultSquashPrompt), cfg)
}

// composePrompt fills the {language} token and appends the directives.
func composePrompt(body string, cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(body, "{language}", config.LanguageName(cfg.Language)))
	sb.WriteString(toneDirective)
	sb.WriteString(cfg.Style)
	sb.WriteString(". ")
	if cfg.Emoji {
		sb.WriteString(emojiDirective)
	} else {
		sb.WriteString(noEmojiDirective)
	}
	return sb.String()
}

// promptBody returns the override file's content when it is set and
// readable, otherwise the built-in fallback. A broken override degrades
// with a warning rather than failing the run.
func promptBody(path, fallback string) string {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		apperrors.Warn("prompt file %s is not readable, using the built-in prompt: %v", path, err)
		return fallback
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		apperrors.Warn("prompt file %s is empty, using the built-in prompt", path)
		return fallback
	}
	return body
}
