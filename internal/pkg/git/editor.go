package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// ErrEditorNotFound is wrapped into the returned error when the configured
// editor binary cannot be found in PATH. Callers can offer an inline
// fallback instead of failing.
var ErrEditorNotFound = errors.New("editor not found in PATH")

// terminalEditors block by default when run attached to the terminal.
var terminalEditors = map[string]bool{
	"vi":   true,
	"vim":  true,
	"nano": true,
	"nvim": true,
}

// editorBlockFlags maps GUI editors to the flag that makes them block until
// the edited file is closed.
var editorBlockFlags = map[string]string{
	"code":          "--wait",
	"code-insiders": "--wait",
	"subl":          "--wait",
	"sublime_text":  "--wait",
	"atom":          "--wait",
	"pycharm":       "--wait",
	"pycharm64":     "--wait",
	"kate":          "--block",
}

// KnownEditors returns the names of all editors the tool knows how to run,
// sorted alphabetically.
func KnownEditors() []string {
	names := make([]string, 0, len(terminalEditors)+len(editorBlockFlags))
	for name := range terminalEditors {
		names = append(names, name)
	}
	for name := range editorBlockFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTerminalEditor reports whether the named editor runs inside the terminal.
func IsTerminalEditor(name string) bool {
	return terminalEditors[name]
}

// BlockFlag returns the flag that makes a GUI editor block, if it needs one.
func BlockFlag(name string) (string, bool) {
	flag, ok := editorBlockFlags[name]
	return flag, ok
}

// Editor opens the user's editor on a commit message and reads the result
// back. The resolution order matches git's own: git var GIT_EDITOR, then the
// GIT_EDITOR, VISUAL and EDITOR environment variables, then vi or nano from
// PATH.
type Editor struct {
	workDir string
}

// NewEditor creates an Editor that runs in the current directory.
func NewEditor() *Editor {
	return &Editor{}
}

// NewEditorWithWorkDir creates an Editor that runs in a specific directory.
func NewEditorWithWorkDir(workDir string) *Editor {
	return &Editor{workDir: workDir}
}

// Resolve returns the editor command line git would use.
func (e *Editor) Resolve(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	// Ask git for its editor; it already honors core.editor.
	cmd := exec.CommandContext(ctx, "git", "var", "GIT_EDITOR")
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}
	if output, err := cmd.Output(); err == nil {
		if editor := strings.TrimSpace(string(output)); editor != "" {
			return editor
		}
	}

	// Fallback lookup similar to git's precedence
	for _, env := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if val := os.Getenv(env); val != "" {
			return val
		}
	}

	if path, err := exec.LookPath("vi"); err == nil {
		return path
	}
	if path, err := exec.LookPath("nano"); err == nil {
		return path
	}
	return "vi"
}

// Command resolves the editor and returns its argv, with the blocking flag
// appended for GUI editors that need one. The error wraps ErrEditorNotFound
// when the binary is not in PATH.
func (e *Editor) Command(ctx context.Context) ([]string, error) {
	editor := e.Resolve(ctx)
	parts := splitCommand(editor)
	if len(parts) == 0 {
		return nil, apperrors.Wrap(ErrEditorNotFound, apperrors.ErrFileSystemError, "no editor configured").
			WithSuggestion("Set GIT_EDITOR to an installed editor")
	}

	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, apperrors.Wrap(ErrEditorNotFound, apperrors.ErrFileSystemError,
			fmt.Sprintf("editor %q not found in PATH", parts[0])).
			WithSuggestion("Set GIT_EDITOR to an installed editor")
	}

	name := strings.TrimSuffix(filepath.Base(parts[0]), ".exe")
	if flag, ok := editorBlockFlags[name]; ok && !containsArg(parts, flag) {
		parts = append(parts, flag)
	}

	return parts, nil
}

// EditMessage writes message to a temporary file, opens the editor on it and
// returns the edited text. The user aborts by exiting the editor without
// saving, by leaving the message empty, or by making the editor exit
// non-zero; all three return an error with code ErrAborted.
func (e *Editor) EditMessage(ctx context.Context, message string) (string, error) {
	argv, err := e.Command(ctx)
	if err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp("", "git-cai-*.txt")
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create commit message file")
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			apperrors.Warn("failed to remove temporary commit message file %s: %v", tmpPath, err)
		}
	}()

	if _, err := tmpFile.WriteString(message); err != nil {
		tmpFile.Close()
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write commit message file")
	}
	if err := tmpFile.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write commit message file")
	}

	originalHash, err := hashFile(tmpPath)
	if err != nil {
		return "", err
	}

	// Run attached to the terminal so terminal editors work. No timeout:
	// the user may take as long as they like.
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], tmpPath)...)
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", apperrors.NewAbortedError("interrupted while editing")
		}
		return "", apperrors.NewAbortedError("editor exited with non-zero status")
	}

	newHash, err := hashFile(tmpPath)
	if err != nil {
		return "", err
	}

	// An unchanged file means the user did not save; treat it as an abort.
	if newHash == originalHash {
		return "", apperrors.NewAbortedError("commit message not saved")
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to read commit message file")
	}

	text := strings.TrimSpace(string(edited))
	if text == "" {
		return "", apperrors.NewAbortedError("empty commit message")
	}

	return text, nil
}

// hashFile computes the SHA-256 digest of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to read commit message file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to read commit message file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// splitCommand splits a shell-style editor command into argv, honoring
// single and double quotes. Settings like `code --wait` or
// `"/opt/Some Editor/edit" -w` keep their grouping.
func splitCommand(s string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				args = append(args, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		args = append(args, current.String())
	}
	return args
}

// containsArg reports whether argv already carries the given flag.
func containsArg(argv []string, flag string) bool {
	for _, arg := range argv {
		if arg == flag {
			return true
		}
	}
	return false
}
