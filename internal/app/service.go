// Package app orchestrates the commit and squash workflows.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gitcai/gitcai/internal/pkg/ai"
	"github.com/gitcai/gitcai/internal/pkg/config"
	"github.com/gitcai/gitcai/internal/pkg/diff"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
	"github.com/gitcai/gitcai/internal/pkg/git"
	"github.com/gitcai/gitcai/internal/pkg/journal"
	"github.com/gitcai/gitcai/internal/pkg/message"
	"github.com/gitcai/gitcai/internal/pkg/security"
	"github.com/gitcai/gitcai/internal/pkg/ui"
	"github.com/gitcai/gitcai/internal/pkg/update"
)

// Options carries the per-run commit flags.
type Options struct {
	// StageAll stages tracked modified and deleted files before the diff
	// is read (-a/--all). Untracked files are never auto-staged.
	StageAll bool

	// Crazy commits the generated message immediately, skipping the
	// editor review step (-c/--crazy).
	Crazy bool
}

// Editor reviews a proposed commit message and returns the edited text.
// An unsaved, emptied, or cancelled edit returns an aborted error.
type Editor interface {
	EditMessage(ctx context.Context, message string) (string, error)
}

// Service wires the generation pipeline together: collect the staged diff,
// call the configured provider, hand the result to the editor, commit.
type Service struct {
	gitClient git.Client
	collector diff.Collector
	provider  ai.Provider
	editor    Editor
	ui        ui.Manager
	journal   *journal.Journal
	cfg       *config.Config
}

// NewService creates a Service. journal may be nil; squashes then run
// without a recovery journal.
func NewService(
	gitClient git.Client,
	collector diff.Collector,
	provider ai.Provider,
	editor Editor,
	uiManager ui.Manager,
	jnl *journal.Journal,
	cfg *config.Config,
) *Service {
	return &Service{
		gitClient: gitClient,
		collector: collector,
		provider:  provider,
		editor:    editor,
		ui:        uiManager,
		journal:   jnl,
		cfg:       cfg,
	}
}

// Commit generates a message for the staged changes and commits them.
// The generated text is reviewed in the editor unless opts.Crazy is set.
func (s *Service) Commit(ctx context.Context, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	payload, err := s.collector.Collect(ctx, opts.StageAll)
	if err != nil {
		return err
	}
	apperrors.Debug("staged payload: %d file(s), +%d -%d, %d excluded",
		payload.TotalFiles, payload.TotalAdditions, payload.TotalDeletions, payload.ExcludedFiles)

	if warning := security.Warning(security.Scan(payload.Content)); warning != "" {
		s.ui.Warn(warning)
	}

	msg, err := s.generate(ctx, ai.CommitPrompt(s.cfg), payload.Content, "Generating commit message...")
	if err != nil {
		return err
	}

	return s.commitMessage(ctx, msg, opts.Crazy)
}

// Squash collapses the current branch's commits since its base into one
// commit with a summarized message.
//
// Preconditions: unstaged changes abort the run; staged changes are
// committed first through the normal commit flow so the squash starts from
// a clean tree. The pre-reset HEAD is journaled so a commit failure after
// the soft reset is recoverable.
func (s *Service) Squash(ctx context.Context) error {
	unstaged, err := s.gitClient.HasUnstagedChanges(ctx)
	if err != nil {
		return err
	}
	if unstaged {
		return apperrors.New(apperrors.ErrGitCommandFailed, "unstaged changes present").
			WithSuggestion("Stage or stash your changes, then re-run 'git cai --squash'")
	}

	staged, err := s.gitClient.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if staged {
		s.ui.Info("Staged changes found, committing them before the squash")
		if err := s.Commit(ctx, &Options{}); err != nil {
			return err
		}
	}

	branch, err := s.gitClient.GetCurrentBranch(ctx)
	if err != nil {
		return err
	}
	base, err := s.gitClient.GetBaseCommit(ctx)
	if err != nil {
		return err
	}
	head, err := s.gitClient.GetHead(ctx)
	if err != nil {
		return err
	}

	history, err := s.gitClient.GetCommitLog(ctx, base)
	if err != nil {
		return err
	}
	if strings.TrimSpace(history) == "" {
		return apperrors.NewEmptyHistoryError(branch)
	}

	msg, err := s.generate(ctx, ai.SquashPrompt(s.cfg), history, "Summarizing commit history...")
	if err != nil {
		return err
	}

	if s.journal != nil {
		entry := &journal.Entry{Branch: branch, Base: base, Head: head, Summary: msg.Headline}
		if err := s.journal.Append(entry); err != nil {
			apperrors.Warn("failed to record squash journal entry: %v", err)
		}
	}

	if err := s.gitClient.ResetSoft(ctx, base); err != nil {
		return err
	}
	if err := s.gitClient.Commit(ctx, msg.Render()); err != nil {
		return apperrors.NewCommitError(err,
			fmt.Sprintf("The branch was soft-reset to %s. Run 'git reset --soft %s' to restore the previous state", base, head))
	}
	s.ui.Success(fmt.Sprintf("Squashed %s into one commit: %s", branch, msg.Headline))

	return s.offerForcePush(ctx)
}

// generate runs the single provider round trip behind a spinner and
// normalizes the reply.
func (s *Service) generate(ctx context.Context, system, user, progress string) (*message.Message, error) {
	settings, err := s.cfg.DefaultProvider()
	if err != nil {
		return nil, err
	}

	spinner := s.ui.Spinner(progress)
	spinner.Start()
	raw, err := s.provider.Generate(ctx, &ai.Request{
		System:      system,
		User:        user,
		Model:       settings.Model,
		Temperature: settings.Temperature,
	})
	spinner.Stop()
	if err != nil {
		return nil, err
	}

	msg := message.New(raw)
	if msg.IsEmpty() {
		return nil, apperrors.NewResponseFormatError(s.provider.Name(), errors.New("model returned an empty message"))
	}
	return msg, nil
}

// commitMessage runs the editor review step and commits the result. Crazy
// mode commits the generated text as-is.
func (s *Service) commitMessage(ctx context.Context, msg *message.Message, crazy bool) error {
	text := msg.Render()

	if !crazy {
		edited, err := s.editor.EditMessage(ctx, text)
		if errors.Is(err, git.ErrEditorNotFound) {
			apperrors.Warn("no external editor found, editing in the terminal")
			edited, err = s.editInline(text)
		}
		if err != nil {
			return err
		}
		text = message.New(edited).Render()
	}

	if err := s.gitClient.Commit(ctx, text); err != nil {
		return err
	}
	s.ui.Success("Committed: " + firstLine(text))
	return nil
}

// editInline is the in-terminal fallback for hosts with no usable editor.
func (s *Service) editInline(text string) (string, error) {
	edited, err := s.ui.EditInline(text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(edited) == "" {
		return "", apperrors.NewAbortedError("empty commit message")
	}
	return edited, nil
}

// offerForcePush warns that the squash rewrote published history and, when
// the branch has an upstream, offers a lease-protected force push.
func (s *Service) offerForcePush(ctx context.Context) error {
	upstream, err := s.gitClient.HasUpstream(ctx)
	if err != nil {
		apperrors.Warn("could not determine upstream state: %v", err)
		return nil
	}
	if !upstream {
		return nil
	}

	s.ui.Warn("The squash rewrote history; the upstream branch no longer matches")
	confirmed, err := s.ui.Confirm("Push the squashed branch with --force-with-lease?")
	if err != nil {
		return err
	}
	if !confirmed {
		s.ui.Info("Not pushed. Run 'git push --force-with-lease' when ready")
		return nil
	}
	if err := s.gitClient.ForcePushWithLease(ctx); err != nil {
		return err
	}
	s.ui.Success("Pushed with --force-with-lease")
	return nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// UpdateChecker queries the release endpoint for the newest version.
type UpdateChecker interface {
	Check(ctx context.Context, current string) (*update.Outcome, error)
}

// CheckUpdate compares the running version against the latest release and,
// when the user confirms, prints the upgrade command. The check is
// best-effort: a fetch failure is reported and the run still succeeds.
func CheckUpdate(ctx context.Context, m ui.Manager, checker UpdateChecker, current string) error {
	outcome, err := checker.Check(ctx, current)
	if err != nil {
		apperrors.Debug("update check failed: %v", err)
		m.Info("Could not fetch version info")
		return nil
	}

	if !outcome.UpdateAvailable() {
		m.Info("Already up to date.")
		return nil
	}

	question := fmt.Sprintf("A new version %s is available (current: %s). Update now?",
		outcome.Latest, outcome.Current)
	confirmed, err := m.Confirm(question)
	if err != nil {
		return err
	}
	if !confirmed {
		m.Info("Update cancelled.")
		return nil
	}

	m.Info("Run the following to update:\n  " + update.InstallCommand(outcome.LatestTag))
	return nil
}
