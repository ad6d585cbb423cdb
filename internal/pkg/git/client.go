// Package git provides Git operations for git cai.
package git

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

const (
	// GitCommandTimeout is the default timeout for git commands.
	GitCommandTimeout = 10 * time.Second

	// NetworkTimeout is the timeout for git commands that talk to a remote.
	NetworkTimeout = 60 * time.Second
)

// ChangeType represents the type of change in a diff.
type ChangeType int

const (
	ChangeTypeAdded ChangeType = iota
	ChangeTypeModified
	ChangeTypeDeleted
	ChangeTypeRenamed
)

// String returns the string representation of ChangeType.
func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdded:
		return "added"
	case ChangeTypeModified:
		return "modified"
	case ChangeTypeDeleted:
		return "deleted"
	case ChangeTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// DiffChunk represents a single file's segment of git diff output.
type DiffChunk struct {
	FilePath   string
	ChangeType ChangeType
	Additions  int
	Deletions  int
	Content    string
	IsBinary   bool
	OldPath    string // For renames, the original file path
}

// DiffStats contains statistics about the staged diff.
type DiffStats struct {
	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
	Chunks         []DiffChunk
}

// Client defines the interface for Git operations.
type Client interface {
	GetRepoRoot(ctx context.Context) (string, error)
	GetCurrentBranch(ctx context.Context) (string, error)
	GetHead(ctx context.Context) (string, error)
	HasStagedChanges(ctx context.Context) (bool, error)
	HasUnstagedChanges(ctx context.Context) (bool, error)
	StageTracked(ctx context.Context) error
	GetStagedDiff(ctx context.Context) ([]DiffChunk, error)
	GetDiffStats(ctx context.Context) (*DiffStats, error)
	Commit(ctx context.Context, message string) error
	GetBaseCommit(ctx context.Context) (string, error)
	GetCommitLog(ctx context.Context, base string) (string, error)
	ResetSoft(ctx context.Context, commit string) error
	HasUpstream(ctx context.Context) (bool, error)
	ForcePushWithLease(ctx context.Context) error
}

// DefaultClient implements the Client interface using exec.CommandContext.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
}

// NewClient creates a new DefaultClient.
func NewClient() *DefaultClient {
	return &DefaultClient{}
}

// NewClientWithWorkDir creates a new DefaultClient with a specific working directory.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir}
}

// GetRepoRoot returns the absolute path of the repository's top-level directory.
func (c *DefaultClient) GetRepoRoot(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		if _, ok := err.(*exec.ExitError); ok {
			return "", apperrors.Wrap(err, apperrors.ErrGitCommandFailed, "not inside a git repository").
				WithSuggestion("Run 'git cai' inside a git repository")
		}
		return "", apperrors.NewGitError(err, "")
	}

	return strings.TrimSpace(string(output)), nil
}

// GetCurrentBranch returns the name of the current branch.
func (c *DefaultClient) GetCurrentBranch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		return "", apperrors.NewGitError(err, "")
	}

	return strings.TrimSpace(string(output)), nil
}

// GetHead returns the full hash of the current HEAD commit.
func (c *DefaultClient) GetHead(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		return "", apperrors.NewGitError(err, "")
	}

	return strings.TrimSpace(string(output)), nil
}

// HasStagedChanges checks if there are any staged changes in the repository.
func (c *DefaultClient) HasStagedChanges(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, apperrors.NewGitTimeoutError(ctx.Err())
		}
		// Exit code 1 means there are differences (staged changes exist)
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return true, nil
			}
		}
		return false, apperrors.NewGitError(err, "")
	}
	// Exit code 0 means no differences (no staged changes)
	return false, nil
}

// HasUnstagedChanges checks if tracked files have modifications that are not
// staged. Untracked files do not count.
func (c *DefaultClient) HasUnstagedChanges(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, apperrors.NewGitTimeoutError(ctx.Err())
		}
		return false, apperrors.NewGitError(err, "")
	}

	return len(strings.TrimSpace(string(output))) > 0, nil
}

// StageTracked stages all modified and deleted files that are already tracked
// (git add --update). Untracked files are left alone.
func (c *DefaultClient) StageTracked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "add", "--update")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewGitTimeoutError(ctx.Err())
		}
		return apperrors.NewGitError(err, string(output))
	}
	return nil
}

// GetStagedDiff retrieves all staged changes as DiffChunks.
func (c *DefaultClient) GetStagedDiff(ctx context.Context) ([]DiffChunk, error) {
	// First check if there are staged changes
	hasChanges, err := c.HasStagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !hasChanges {
		return nil, apperrors.NewEmptyDiffError()
	}

	// Apply timeout to context for remaining operations
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	// Get the full diff content
	diffCmd := exec.CommandContext(ctx, "git", "diff", "--cached")
	if c.workDir != "" {
		diffCmd.Dir = c.workDir
	}

	diffOutput, err := diffCmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewGitTimeoutError(ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, apperrors.NewGitError(err, string(exitErr.Stderr))
		}
		return nil, apperrors.NewGitError(err, "")
	}

	// Get numstat for additions/deletions count
	numstatCmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--numstat")
	if c.workDir != "" {
		numstatCmd.Dir = c.workDir
	}

	numstatOutput, err := numstatCmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewGitTimeoutError(ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, apperrors.NewGitError(err, string(exitErr.Stderr))
		}
		return nil, apperrors.NewGitError(err, "")
	}

	// Parse numstat to get file statistics
	fileStats := parseNumstat(numstatOutput)

	// Parse the diff output into chunks
	chunks := parseDiff(diffOutput, fileStats)

	return chunks, nil
}

// GetDiffStats retrieves statistics about staged changes.
func (c *DefaultClient) GetDiffStats(ctx context.Context) (*DiffStats, error) {
	chunks, err := c.GetStagedDiff(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DiffStats{
		TotalFiles: len(chunks),
		Chunks:     chunks,
	}

	for _, chunk := range chunks {
		stats.TotalAdditions += chunk.Additions
		stats.TotalDeletions += chunk.Deletions
	}

	return stats, nil
}

// Commit executes a git commit with the given message.
func (c *DefaultClient) Commit(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewGitTimeoutError(ctx.Err())
		}
		return apperrors.NewCommitError(err, "").
			WithContext("output", strings.TrimSpace(string(output)))
	}
	return nil
}

// GetBaseCommit determines the commit where the current branch diverged from
// the remote default branch. When the default branch cannot be resolved (no
// remote, detached checkout) it falls back to the repository's root commit.
func (c *DefaultClient) GetBaseCommit(ctx context.Context) (string, error) {
	base, err := c.forkPoint(ctx)
	if err == nil {
		return base, nil
	}
	apperrors.Info("Unable to determine default branch. Falling back to initial commit...")
	apperrors.Debug("default branch detection failed: %v", err)

	return c.rootCommit(ctx)
}

// forkPoint resolves origin's default branch and asks git for the fork point
// of the current branch against it.
func (c *DefaultClient) forkPoint(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	refCmd := exec.CommandContext(ctx, "git", "symbolic-ref", "refs/remotes/origin/HEAD")
	if c.workDir != "" {
		refCmd.Dir = c.workDir
	}

	refOutput, err := refCmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		return "", apperrors.NewGitError(err, "")
	}

	// "refs/remotes/origin/main" -> "origin/main"
	defaultBranch := strings.TrimPrefix(strings.TrimSpace(string(refOutput)), "refs/remotes/")
	apperrors.Info("Using default branch for base detection: %s", defaultBranch)

	baseCmd := exec.CommandContext(ctx, "git", "merge-base", "--fork-point", defaultBranch, "HEAD")
	if c.workDir != "" {
		baseCmd.Dir = c.workDir
	}

	baseOutput, err := baseCmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		return "", apperrors.NewGitError(err, "")
	}

	return strings.TrimSpace(string(baseOutput)), nil
}

// rootCommit returns the repository's first commit.
func (c *DefaultClient) rootCommit(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-list", "--max-parents=0", "HEAD")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		return "", apperrors.NewGitError(err, "")
	}

	// Repositories with multiple roots print one hash per line; use the first.
	root := strings.TrimSpace(string(output))
	if i := strings.IndexByte(root, '\n'); i >= 0 {
		root = root[:i]
	}
	apperrors.Info("Using repository root commit as base: %s", root)
	return root, nil
}

// GetCommitLog returns the raw messages of all commits between base and HEAD,
// oldest excluded. The result is empty when the branch has no commits beyond
// the base.
func (c *DefaultClient) GetCommitLog(ctx context.Context, base string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "--no-pager", "log", base+"..HEAD", "--pretty=format:%B")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewGitTimeoutError(ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", apperrors.NewGitError(err, string(exitErr.Stderr))
		}
		return "", apperrors.NewGitError(err, "")
	}

	return strings.TrimSpace(string(output)), nil
}

// ResetSoft moves HEAD to the given commit while keeping the index and
// working tree intact.
func (c *DefaultClient) ResetSoft(ctx context.Context, commit string) error {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "reset", "--soft", commit)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewGitTimeoutError(ctx.Err())
		}
		return apperrors.NewGitError(err, string(output))
	}
	return nil
}

// HasUpstream checks if the current branch has an upstream tracking branch.
func (c *DefaultClient) HasUpstream(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	err := cmd.Run()
	if err != nil {
		// Exit code 128 means no upstream configured
		return false, nil
	}
	return true, nil
}

// ForcePushWithLease pushes the rewritten branch history. The lease refuses
// the push if the remote moved since the last fetch.
func (c *DefaultClient) ForcePushWithLease(ctx context.Context) error {
	// Use longer timeout for push (network operation)
	ctx, cancel := context.WithTimeout(ctx, NetworkTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "push", "--force-with-lease")
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apperrors.NewGitTimeoutError(ctx.Err())
		}
		return apperrors.NewGitError(err, string(output))
	}
	return nil
}

// fileStat holds statistics for a single file from numstat.
type fileStat struct {
	additions int
	deletions int
	isBinary  bool
}

// parseNumstat parses the output of git diff --numstat.
// Format: additions<TAB>deletions<TAB>filepath
// Binary files show as: -<TAB>-<TAB>filepath
func parseNumstat(output []byte) map[string]fileStat {
	stats := make(map[string]fileStat)
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		addStr, delStr, filePath := parts[0], parts[1], parts[2]

		// Handle renamed files: old path => new path
		if strings.Contains(filePath, " => ") {
			// Extract the new path from rename notation
			filePath = extractNewPath(filePath)
		}

		stat := fileStat{}
		if addStr == "-" && delStr == "-" {
			// Binary file
			stat.isBinary = true
		} else {
			stat.additions, _ = strconv.Atoi(addStr)
			stat.deletions, _ = strconv.Atoi(delStr)
		}

		stats[filePath] = stat
	}

	return stats
}

// extractNewPath extracts the new file path from git rename notation.
// Examples:
//   - "old.txt => new.txt" -> "new.txt"
//   - "{old => new}/file.txt" -> "new/file.txt"
//   - "dir/{old.txt => new.txt}" -> "dir/new.txt"
func extractNewPath(renamePath string) string {
	// Handle simple rename: "old.txt => new.txt"
	if strings.Contains(renamePath, " => ") && !strings.Contains(renamePath, "{") {
		parts := strings.Split(renamePath, " => ")
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}

	// Handle brace notation: "{old => new}/file.txt" or "dir/{old.txt => new.txt}"
	re := regexp.MustCompile(`\{([^}]*) => ([^}]*)\}`)
	result := re.ReplaceAllString(renamePath, "$2")
	return result
}

// parseDiff parses the full diff output into DiffChunks.
func parseDiff(diffOutput []byte, fileStats map[string]fileStat) []DiffChunk {
	var chunks []DiffChunk

	// Split diff by file headers
	// Each file diff starts with "diff --git a/... b/..."
	diffStr := string(diffOutput)
	fileDiffs := splitByFileDiff(diffStr)

	for _, fileDiff := range fileDiffs {
		if fileDiff == "" {
			continue
		}

		chunk := parseFileDiff(fileDiff, fileStats)
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}

	return chunks
}

// splitByFileDiff splits the diff output by file boundaries.
func splitByFileDiff(diffStr string) []string {
	// Split on "diff --git" but keep the delimiter
	parts := strings.Split(diffStr, "diff --git ")
	var result []string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i > 0 {
			part = "diff --git " + part
		}
		result = append(result, part)
	}
	return result
}

// parseFileDiff parses a single file's diff into a DiffChunk.
func parseFileDiff(fileDiff string, fileStats map[string]fileStat) *DiffChunk {
	lines := strings.Split(fileDiff, "\n")
	if len(lines) == 0 {
		return nil
	}

	chunk := &DiffChunk{
		Content: fileDiff,
	}

	// Parse the diff header to extract file path and change type
	for _, line := range lines {
		// Parse "diff --git a/path b/path"
		if strings.HasPrefix(line, "diff --git ") {
			chunk.FilePath = extractFilePath(line)
			chunk.ChangeType = ChangeTypeModified // Default
		}

		// Detect new file
		if strings.HasPrefix(line, "new file mode") {
			chunk.ChangeType = ChangeTypeAdded
		}

		// Detect deleted file
		if strings.HasPrefix(line, "deleted file mode") {
			chunk.ChangeType = ChangeTypeDeleted
		}

		// Detect renamed file
		if strings.HasPrefix(line, "rename from ") {
			chunk.OldPath = strings.TrimPrefix(line, "rename from ")
			chunk.ChangeType = ChangeTypeRenamed
		}
		if strings.HasPrefix(line, "rename to ") {
			chunk.FilePath = strings.TrimPrefix(line, "rename to ")
		}

		// Detect binary file
		if strings.HasPrefix(line, "Binary files") {
			chunk.IsBinary = true
		}
	}

	// Get statistics from numstat
	if stat, ok := fileStats[chunk.FilePath]; ok {
		chunk.Additions = stat.additions
		chunk.Deletions = stat.deletions
		chunk.IsBinary = stat.isBinary
	}

	return chunk
}

// extractFilePath extracts the file path from a diff header line.
// Format: "diff --git a/path/to/file b/path/to/file"
func extractFilePath(line string) string {
	// Remove "diff --git " prefix
	line = strings.TrimPrefix(line, "diff --git ")

	// Split by " b/"
	parts := strings.Split(line, " b/")
	if len(parts) >= 2 {
		return parts[1]
	}

	// Fallback: try to extract from "a/path"
	if strings.HasPrefix(line, "a/") {
		parts = strings.SplitN(line, " ", 2)
		if len(parts) > 0 {
			return strings.TrimPrefix(parts[0], "a/")
		}
	}

	return line
}
