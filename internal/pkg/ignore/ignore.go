// Package ignore applies .caiignore rules to paths staged for commit.
//
// The rule file lives at the repository root and uses gitignore syntax:
// glob segments, **, trailing / directory anchors, and ! negation with
// last match wins. Paths already excluded by git itself never reach this
// filter.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// FileName is the rule file read from the repository root.
const FileName = ".caiignore"

// Ruleset holds compiled .caiignore patterns. The zero value and a nil
// Ruleset pass every path through.
type Ruleset struct {
	matcher *gitignore.GitIgnore
	rules   int
}

// Load reads .caiignore from repoRoot. A missing file yields an empty
// ruleset, not an error.
func Load(repoRoot string) (*Ruleset, error) {
	path := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ruleset{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to read "+FileName)
	}

	rs := Compile(strings.Split(string(data), "\n")...)
	if rs.rules == 0 {
		apperrors.Info("%s is empty, no files excluded", path)
	}
	return rs, nil
}

// Compile builds a ruleset from raw pattern lines. Blank lines and #
// comments are skipped.
func Compile(lines ...string) *Ruleset {
	rules := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		rules = append(rules, trimmed)
	}
	if len(rules) == 0 {
		return &Ruleset{}
	}
	return &Ruleset{
		matcher: gitignore.CompileIgnoreLines(rules...),
		rules:   len(rules),
	}
}

// Len returns the number of active rules.
func (r *Ruleset) Len() int {
	if r == nil {
		return 0
	}
	return r.rules
}

// Matches reports whether path is excluded from the diff. Paths are
// matched relative to the repository root using forward slashes.
func (r *Ruleset) Matches(path string) bool {
	if r == nil || r.matcher == nil {
		return false
	}
	return r.matcher.MatchesPath(filepath.ToSlash(path))
}
