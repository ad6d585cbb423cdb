package cmd

import (
	"fmt"
	"io"

	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
	"github.com/gitcai/gitcai/internal/pkg/git"
	"github.com/gitcai/gitcai/internal/pkg/ui"
)

// listUsageTopic is the sentinel NoOptDefVal of -l: a bare -l prints usage
// for the list argument instead of a listing.
const listUsageTopic = "usage"

// runList renders one of the supported listings.
func runList(out io.Writer, manager *ui.TerminalManager, topic string) error {
	switch topic {
	case listUsageTopic:
		fmt.Fprintln(out, "Usage: git cai -l [language|style|editor]")
		fmt.Fprintln(out, "  language  supported commit message languages")
		fmt.Fprintln(out, "  style     supported tone styles with examples")
		fmt.Fprintln(out, "  editor    editors the commit review step knows how to run")
		return nil
	case "language":
		listLanguages(out, manager)
		return nil
	case "style":
		listStyles(out, manager)
		return nil
	case "editor":
		listEditors(out, manager)
		return nil
	default:
		return apperrors.NewInvalidArgumentsError(
			fmt.Sprintf("unknown list topic %q, expected language, style or editor", topic))
	}
}

func listLanguages(out io.Writer, manager *ui.TerminalManager) {
	fmt.Fprintln(out, "Supported languages (set 'language' in cai_config.yml):")
	for _, code := range config.LanguageCodes() {
		fmt.Fprintf(out, "  %s: %s\n", manager.Emphasize(code), config.LanguageMap[code])
	}
}

func listStyles(out io.Writer, manager *ui.TerminalManager) {
	fmt.Fprintln(out, "Supported styles (set 'style' in cai_config.yml):")
	for _, style := range config.Styles() {
		fmt.Fprintf(out, "  %s: %s\n", manager.Emphasize(style.Name), style.Description)
		fmt.Fprintf(out, "    Example: %s\n", manager.Muted(style.Example))
	}
}

func listEditors(out io.Writer, manager *ui.TerminalManager) {
	fmt.Fprintln(out, "Known editors (the commit review step honors git's editor settings):")
	for _, name := range git.KnownEditors() {
		if git.IsTerminalEditor(name) {
			fmt.Fprintf(out, "  %s: terminal\n", manager.Emphasize(name))
			continue
		}
		flag, _ := git.BlockFlag(name)
		fmt.Fprintf(out, "  %s: GUI, blocks with %s\n", manager.Emphasize(name), flag)
	}
}
