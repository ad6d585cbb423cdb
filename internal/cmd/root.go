// Package cmd defines the git cai command surface. The tool runs as a git
// subcommand, so every mode is a flag on one root command rather than a
// subcommand of its own.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gitcai/gitcai/internal/app"
	"github.com/gitcai/gitcai/internal/pkg/ai"
	"github.com/gitcai/gitcai/internal/pkg/config"
	"github.com/gitcai/gitcai/internal/pkg/diff"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
	"github.com/gitcai/gitcai/internal/pkg/git"
	"github.com/gitcai/gitcai/internal/pkg/ignore"
	"github.com/gitcai/gitcai/internal/pkg/journal"
	"github.com/gitcai/gitcai/internal/pkg/ui"
	"github.com/gitcai/gitcai/internal/pkg/update"
)

// rootFlags holds the parsed flag surface of one invocation.
type rootFlags struct {
	all        bool
	crazy      bool
	debug      bool
	genConfig  bool
	genPrompts bool
	list       string
	squash     bool
	update     bool
	version    bool
}

// NewRootCmd builds the root command. version is the running binary's
// version string, set through ldflags at build time.
func NewRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "git cai",
		Short: "AI-generated commit messages for git",
		Long: `git cai generates a commit message from your staged changes with an LLM
provider and opens it in your editor for review before committing.

Configuration lives in ~/.config/cai/cai_config.yml; a cai_config.yml at
the repository root overrides it entirely. Files matched by a .caiignore
at the repository root are excluded from the diff sent to the provider.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args, version)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.all, "all", "a", false, "stage tracked modified and deleted files before generating")
	f.BoolVarP(&flags.crazy, "crazy", "c", false, "commit the generated message immediately, skipping the editor")
	f.BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	f.BoolVarP(&flags.genConfig, "generate-config", "g", false, "write a default cai_config.yml to the current directory and exit")
	f.BoolVarP(&flags.genPrompts, "generate-prompts", "p", false, "write default prompt templates to the current directory and exit")
	f.StringVarP(&flags.list, "list", "l", "", "list supported values: language, style or editor")
	f.Lookup("list").NoOptDefVal = listUsageTopic
	f.BoolVarP(&flags.squash, "squash", "s", false, "squash the current branch into one summarized commit")
	f.BoolVarP(&flags.update, "update", "u", false, "check for a newer release")
	f.BoolVarP(&flags.version, "version", "v", false, "print the version and exit")

	return cmd
}

// validateFlags rejects flag combinations that mix modes. At most one mode
// flag may be active, and the commit-only flags may not accompany any of
// them.
func validateFlags(f *rootFlags) error {
	modes := 0
	for _, set := range []bool{f.list != "", f.squash, f.update, f.genConfig, f.genPrompts, f.version} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return apperrors.NewInvalidArgumentsError(
			"flags -l, -s, -u, -g, -p and -v select a mode; use only one of them")
	}
	if modes > 0 && f.all {
		return apperrors.NewInvalidArgumentsError("-a/--all only applies when committing")
	}
	if modes > 0 && f.crazy {
		return apperrors.NewInvalidArgumentsError("-c/--crazy only applies when committing")
	}
	if f.version && f.debug {
		return apperrors.NewInvalidArgumentsError("-v/--version cannot be combined with -d/--debug")
	}
	return nil
}

// run dispatches on the selected mode.
func run(cmd *cobra.Command, flags *rootFlags, args []string, version string) error {
	apperrors.SetVerbose(flags.debug)

	// pflag treats a flag with a NoOptDefVal as valueless unless written
	// as -l=topic, so the topic of `git cai -l style` arrives as a
	// positional argument.
	if len(args) == 1 {
		if flags.list != listUsageTopic {
			return apperrors.NewInvalidArgumentsError(fmt.Sprintf("unexpected argument %q", args[0]))
		}
		flags.list = args[0]
	}

	if err := validateFlags(flags); err != nil {
		return err
	}

	if flags.version {
		fmt.Fprintf(cmd.OutOrStdout(), "git-cai %s\n", version)
		return nil
	}

	// The spinner would interleave with debug log lines.
	manager := ui.New(ui.IsInteractive() && !flags.debug)
	manager.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

	switch {
	case flags.list != "":
		return runList(cmd.OutOrStdout(), manager, flags.list)
	case flags.genConfig:
		return runGenerateConfig(".", manager)
	case flags.genPrompts:
		return runGeneratePrompts(".", manager)
	case flags.update:
		return app.CheckUpdate(cmd.Context(), manager, update.NewChecker(), version)
	}

	service, err := buildService(cmd, manager)
	if err != nil {
		return err
	}

	if flags.squash {
		return service.Squash(cmd.Context())
	}
	return service.Commit(cmd.Context(), &app.Options{
		StageAll: flags.all,
		Crazy:    flags.crazy,
	})
}

// buildService assembles the generation pipeline: git client, ignore
// rules, resolved configuration, token store, provider client, collector,
// editor, and the squash journal.
func buildService(cmd *cobra.Command, manager *ui.TerminalManager) (*app.Service, error) {
	ctx := cmd.Context()

	gitClient := git.NewClient()
	repoRoot, err := gitClient.GetRepoRoot(ctx)
	if err != nil {
		return nil, err
	}

	rules, err := ignore.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	resolver, err := config.NewDefaultResolver(repoRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}
	apperrors.Debug("configuration loaded from %s", resolver.Source())

	// The token is read before anything else happens so a missing key
	// fails the run without a network call or a staging side effect.
	tokens := config.NewTokenStore(cfg.LoadTokensFrom)
	token, err := tokens.Token(cfg.Default)
	if err != nil {
		return nil, err
	}

	provider, err := ai.NewProvider(cfg.Default, token)
	if err != nil {
		return nil, err
	}

	jnl := journal.New(filepath.Join(resolver.ConfigDir(), journal.FileName), 0)

	return app.NewService(
		gitClient,
		diff.NewCollector(gitClient, rules),
		provider,
		git.NewEditor(),
		manager,
		jnl,
		cfg,
	), nil
}

// runGenerateConfig writes a repository-local default config into dir.
func runGenerateConfig(dir string, manager *ui.TerminalManager) error {
	path, err := config.GenerateConfigFile(dir, defaultTokensPath())
	if err != nil {
		return err
	}
	manager.Success("Wrote " + path)
	manager.Info("Keep it at the repository root; it overrides the global configuration entirely")
	return nil
}

// runGeneratePrompts writes editable prompt templates into dir.
func runGeneratePrompts(dir string, manager *ui.TerminalManager) error {
	commitPath, squashPath, err := config.WritePromptTemplates(dir)
	if err != nil {
		return err
	}
	manager.Success(fmt.Sprintf("Prompt templates ready: %s, %s", commitPath, squashPath))
	manager.Info("Point prompt_file and squash_prompt_file in cai_config.yml at them to take effect")
	return nil
}

func defaultTokensPath() string {
	dir, err := config.DefaultDir()
	if err != nil {
		return config.TokensFileName
	}
	return filepath.Join(dir, config.TokensFileName)
}
