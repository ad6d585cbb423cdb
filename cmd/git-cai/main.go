// Package main is the entry point of git-cai. git resolves `git cai`
// through this binary's name, so it refuses to run outside of git.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitcai/gitcai/internal/cmd"
	"github.com/gitcai/gitcai/internal/pkg/alias"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	if !alias.RunViaGit(os.Args[0]) {
		fmt.Fprintln(os.Stderr, alias.Guidance())
		os.Exit(2)
	}

	// An interrupt during the provider round trip cancels the request
	// and exits without committing.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCmd(version)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if apperrors.IsVerbose() {
			fmt.Fprintln(os.Stderr, apperrors.FormatErrorVerbose(err))
		} else {
			fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		}
		stop()
		os.Exit(apperrors.GetExitCode(err))
	}
}
