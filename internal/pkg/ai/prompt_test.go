package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gitcai/gitcai/internal/pkg/config"
)

func promptConfig(language, style string, emoji bool) *config.Config {
	return &config.Config{
		Language: language,
		Style:    style,
		Emoji:    emoji,
	}
}

func TestCommitPrompt_FullComposition(t *testing.T) {
	cfg := promptConfig("en", "professional", true)

	want := "You are an expert software engineer assistant. " +
		"Your task is to generate a concise, professional git commit message, " +
		"summarizing the provided git diff changes in English. " +
		"Keep the message clear and focused on what was changed and why. " +
		"Always include a headline, followed by a bullet-point list of changes. " +
		"If you detect sensitive information, mention it at the top, but still generate the message. " +
		"Write the commit message in the following tone style: professional. " +
		"Use relevant emojis in the commit message where appropriate. " +
		"Emojis should enhance the clarity and tone of the message."

	if got := CommitPrompt(cfg); got != want {
		t.Errorf("CommitPrompt() = %q, want %q", got, want)
	}
}

func TestCommitPrompt_NoEmoji(t *testing.T) {
	cfg := promptConfig("en", "neutral", false)

	got := CommitPrompt(cfg)
	if !strings.HasSuffix(got, "Do not use any emojis in the commit message.") {
		t.Errorf("expected the no-emoji directive at the end, got %q", got)
	}
	if strings.Contains(got, "Use relevant emojis") {
		t.Error("emoji directive must not appear when emoji is disabled")
	}
}

func TestCommitPrompt_LanguageSubstitution(t *testing.T) {
	cfg := promptConfig("it", "professional", false)

	got := CommitPrompt(cfg)
	if !strings.Contains(got, "git diff changes in Italian.") {
		t.Errorf("expected Italian in the prompt, got %q", got)
	}
	if strings.Contains(got, "{language}") {
		t.Error("language token must be replaced")
	}
}

func TestCommitPrompt_StyleNamed(t *testing.T) {
	cfg := promptConfig("en", "sarcastic", false)

	if got := CommitPrompt(cfg); !strings.Contains(got, "tone style: sarcastic.") {
		t.Errorf("expected configured style in the prompt, got %q", got)
	}
}

func TestSquashPrompt_FullComposition(t *testing.T) {
	cfg := promptConfig("en", "professional", false)

	want := "You are an expert software engineer assistant. " +
		"Your task is to summarize multiple existing commit messages " +
		"into a single clean git commit message. " +
		"Write the final message in English. " +
		"Do not list each commit individually. " +
		"Instead, infer the main purpose and overall change. " +
		"Format:\n" +
		"1. One short, clear headline.\n" +
		"2. A concise bullet list describing the main themes of the work. " +
		"Write the commit message in the following tone style: professional. " +
		"Do not use any emojis in the commit message."

	if got := SquashPrompt(cfg); got != want {
		t.Errorf("SquashPrompt() = %q, want %q", got, want)
	}
}

func TestCommitPrompt_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commit_prompt.md")
	body := "Summarize the diff in {language}. Keep it under two lines."
	if err := os.WriteFile(path, []byte(body+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write prompt file: %v", err)
	}

	cfg := promptConfig("de", "friendly", false)
	cfg.PromptFile = path

	got := CommitPrompt(cfg)
	if !strings.HasPrefix(got, "Summarize the diff in German. Keep it under two lines.") {
		t.Errorf("expected override body, got %q", got)
	}
	if !strings.Contains(got, "tone style: friendly.") {
		t.Error("directives must be appended to override bodies too")
	}
}

func TestCommitPrompt_MissingOverrideFallsBack(t *testing.T) {
	cfg := promptConfig("en", "professional", true)
	cfg.PromptFile = filepath.Join(t.TempDir(), "missing.md")

	got := CommitPrompt(cfg)
	if !strings.HasPrefix(got, "You are an expert software engineer assistant.") {
		t.Errorf("expected built-in prompt fallback, got %q", got)
	}
}

func TestCommitPrompt_EmptyOverrideFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commit_prompt.md")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("Failed to write prompt file: %v", err)
	}

	cfg := promptConfig("en", "professional", true)
	cfg.PromptFile = path

	got := CommitPrompt(cfg)
	if !strings.HasPrefix(got, "You are an expert software engineer assistant.") {
		t.Errorf("expected built-in prompt fallback, got %q", got)
	}
}
