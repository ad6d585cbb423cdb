package config

import (
	"os"
	"path/filepath"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

const (
	// CommitPromptFileName is the editable commit prompt template written
	// next to the global config.
	CommitPromptFileName = "commit_prompt.md"
	// SquashPromptFileName is the editable squash prompt template.
	SquashPromptFileName = "squash_prompt.md"
)

// DefaultCommitPrompt is the built-in commit system prompt body. The
// {language} token is replaced with the resolved language name at
// generation time; tone and emoji directives are appended separately.
const DefaultCommitPrompt = "You are an expert software engineer assistant. " +
	"Your task is to generate a concise, professional git commit message, " +
	"summarizing the provided git diff changes in {language}. " +
	"Keep the message clear and focused on what was changed and why. " +
	"Always include a headline, followed by a bullet-point list of changes. " +
	"If you detect sensitive information, mention it at the top, but still generate the message."

// DefaultSquashPrompt is the built-in squash system prompt body.
const DefaultSquashPrompt = "You are an expert software engineer assistant. " +
	"Your task is to summarize multiple existing commit messages " +
	"into a single clean git commit message. " +
	"Write the final message in {language}. " +
	"Do not list each commit individually. " +
	"Instead, infer the main purpose and overall change. " +
	"Format:\n" +
	"1. One short, clear headline.\n" +
	"2. A concise bullet list describing the main themes of the work."

// WritePromptTemplates writes editable copies of the default prompt bodies
// into dir. Existing non-empty files are kept so user edits survive
// repeated runs. Returns the paths of both templates.
func WritePromptTemplates(dir string) (commitPath, squashPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create prompt directory")
	}

	commitPath = filepath.Join(dir, CommitPromptFileName)
	squashPath = filepath.Join(dir, SquashPromptFileName)

	if err := writeIfMissing(commitPath, DefaultCommitPrompt+"\n"); err != nil {
		return "", "", err
	}
	if err := writeIfMissing(squashPath, DefaultSquashPrompt+"\n"); err != nil {
		return "", "", err
	}
	return commitPath, squashPath, nil
}

// writeIfMissing writes content to path unless a non-empty file is already
// there.
func writeIfMissing(path, content string) error {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write prompt template")
	}
	apperrors.Info("default prompt template written to %s", path)
	return nil
}
