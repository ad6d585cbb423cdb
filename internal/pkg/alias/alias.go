// Package alias guards the invocation contract: the binary runs as a git
// subcommand, never directly.
package alias

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// MisuseMessage is printed when the binary is invoked outside of git.
const MisuseMessage = "This command must be run as 'git cai'"

// RunViaGit reports whether argv0 names a git subcommand. git invokes
// external subcommands through executables named git-<name>, so any other
// basename means the binary was called directly.
func RunViaGit(argv0 string) bool {
	return strings.HasPrefix(filepath.Base(argv0), "git-")
}

// Guidance returns the misuse message, extended with an installation hint
// when the running binary's directory is missing from PATH. git can only
// resolve `git cai` once a git-cai executable is reachable through PATH.
func Guidance() string {
	dir, err := executableDir()
	if err != nil || dirOnPath(dir, os.Getenv("PATH")) {
		return MisuseMessage
	}

	var b strings.Builder
	b.WriteString(MisuseMessage)
	b.WriteString("\ngit resolves the subcommand through an executable named git-cai on PATH.")
	fmt.Fprintf(&b, "\n%s is not on your PATH. Add it with:\n  %s", dir, ExportLine(DetectShell(), dir))
	return b.String()
}

// ShellType identifies the user's login shell.
type ShellType int

const (
	// ShellUnknown is any shell the SHELL variable does not identify.
	ShellUnknown ShellType = iota
	// ShellBash is the Bash shell.
	ShellBash
	// ShellZsh is the Zsh shell.
	ShellZsh
	// ShellFish is the Fish shell.
	ShellFish
)

// String returns the shell's common name.
func (s ShellType) String() string {
	switch s {
	case ShellBash:
		return "bash"
	case ShellZsh:
		return "zsh"
	case ShellFish:
		return "fish"
	default:
		return "unknown"
	}
}

// DetectShell identifies the login shell from the SHELL environment variable.
func DetectShell() ShellType {
	name := filepath.Base(os.Getenv("SHELL"))
	switch {
	case strings.Contains(name, "bash"):
		return ShellBash
	case strings.Contains(name, "zsh"):
		return ShellZsh
	case strings.Contains(name, "fish"):
		return ShellFish
	default:
		return ShellUnknown
	}
}

// ExportLine returns the shell command that puts dir on PATH.
func ExportLine(shell ShellType, dir string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf(`setx PATH "%%PATH%%;%s"`, dir)
	}
	if shell == ShellFish {
		return fmt.Sprintf("set -gx PATH $PATH %s", dir)
	}
	return fmt.Sprintf(`export PATH="$PATH:%s"`, dir)
}

func dirOnPath(dir, pathEnv string) bool {
	if pathEnv == "" {
		return false
	}
	clean := filepath.Clean(dir)
	for _, p := range filepath.SplitList(pathEnv) {
		if filepath.Clean(p) == clean {
			return true
		}
	}
	return false
}

// executableDir resolves the directory holding the running binary, following
// symlinks so an installed link reports its target's directory.
func executableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	return filepath.Dir(execPath), nil
}
