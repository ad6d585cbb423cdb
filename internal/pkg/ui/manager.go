// Package ui provides the terminal presentation layer for git cai.
//
// A TerminalManager built with interactive=false never starts a Bubble Tea
// program, never opens a form, and renders without color, so piped output
// stays byte-stable.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// Spinner is a loading animation shown while a provider call is in flight.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager renders output and runs the interactive prompts.
type Manager interface {
	Spinner(text string) Spinner
	Confirm(question string) (bool, error)
	EditInline(initial string) (string, error)
	Success(text string)
	Info(text string)
	Warn(text string)
	Error(err error)
}

// IsInteractive reports whether both stdin and stdout are attached to a
// terminal.
func IsInteractive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TerminalManager implements Manager on a real terminal.
type TerminalManager struct {
	interactive bool
	out         io.Writer
	errOut      io.Writer
	styles      styles
}

type styles struct {
	success  lipgloss.Style
	errLine  lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	emphasis lipgloss.Style
	muted    lipgloss.Style
	spinner  lipgloss.Style
}

func newStyles(colored bool) styles {
	if !colored {
		return styles{
			success:  lipgloss.NewStyle(),
			errLine:  lipgloss.NewStyle(),
			warning:  lipgloss.NewStyle(),
			info:     lipgloss.NewStyle(),
			emphasis: lipgloss.NewStyle(),
			muted:    lipgloss.NewStyle(),
			spinner:  lipgloss.NewStyle(),
		}
	}
	return styles{
		success:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		errLine:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		info:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		emphasis: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}

// New creates a TerminalManager. Interactive mode enables the spinner,
// confirm forms, the inline editor, and color.
func New(interactive bool) *TerminalManager {
	return &TerminalManager{
		interactive: interactive,
		out:         os.Stdout,
		errOut:      os.Stderr,
		styles:      newStyles(interactive),
	}
}

// SetOutput redirects rendered output, primarily for tests.
func (m *TerminalManager) SetOutput(out, errOut io.Writer) {
	m.out = out
	m.errOut = errOut
}

// Spinner returns a loading spinner, or a no-op when the session is not
// interactive.
func (m *TerminalManager) Spinner(text string) Spinner {
	if !m.interactive {
		return &noopSpinner{}
	}
	return newBubbleSpinner(text, m.styles.spinner)
}

// Confirm asks a yes/no question. Non-interactive sessions decline without
// prompting, so no destructive offer ever auto-confirms.
func (m *TerminalManager) Confirm(question string) (bool, error) {
	if !m.interactive {
		return false, nil
	}

	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// EditInline opens an in-terminal text form seeded with initial. It is the
// fallback when no external editor can be resolved.
func (m *TerminalManager) EditInline(initial string) (string, error) {
	if !m.interactive {
		return "", apperrors.NewAbortedError("no terminal available to edit the commit message")
	}

	edited := initial
	form := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Edit commit message").
			Description("Save to commit. Cancel to abort without committing.").
			Value(&edited).
			CharLimit(0),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", apperrors.NewAbortedError("commit message edit cancelled")
		}
		return "", err
	}
	return edited, nil
}

// Success prints a success line to stdout.
func (m *TerminalManager) Success(text string) {
	fmt.Fprintln(m.out, m.styles.success.Render(text))
}

// Info prints an informational line to stdout.
func (m *TerminalManager) Info(text string) {
	fmt.Fprintln(m.out, m.styles.info.Render(text))
}

// Warn prints a warning to stderr.
func (m *TerminalManager) Warn(text string) {
	fmt.Fprintln(m.errOut, m.styles.warning.Render(text))
}

// Error prints a formatted error to stderr. Verbose mode prints the full
// error chain unstyled.
func (m *TerminalManager) Error(err error) {
	if err == nil {
		return
	}
	if apperrors.IsVerbose() {
		fmt.Fprintln(m.errOut, strings.TrimRight(apperrors.FormatErrorVerbose(err), "\n"))
		return
	}
	fmt.Fprintln(m.errOut, m.styles.errLine.Render(apperrors.FormatError(err)))
}

// Emphasize renders s in the emphasis style, used for names in list output.
func (m *TerminalManager) Emphasize(s string) string {
	return m.styles.emphasis.Render(s)
}

// Muted renders s in the muted style, used for examples and hints.
func (m *TerminalManager) Muted(s string) string {
	return m.styles.muted.Render(s)
}

// bubbleSpinner runs a Bubble Tea spinner program in the background.
type bubbleSpinner struct {
	model   *spinnerModel
	program *tea.Program
	mu      sync.Mutex
}

type spinnerModel struct {
	spinner  spinner.Model
	text     string
	quitting bool
}

type spinnerTextMsg struct {
	text string
}

type spinnerQuitMsg struct{}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTextMsg:
		m.text = msg.text
		return m, nil
	case spinnerQuitMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.text)
}

func newBubbleSpinner(text string, style lipgloss.Style) *bubbleSpinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style

	return &bubbleSpinner{
		model: &spinnerModel{
			spinner: s,
			text:    text,
		},
	}
}

func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		return
	}
	s.program = tea.NewProgram(s.model)
	go func() {
		_, _ = s.program.Run()
	}()
}

func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(spinnerQuitMsg{})
		// Give the program a frame to clear its view.
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(spinnerTextMsg{text: text})
	}
}

// noopSpinner satisfies Spinner without rendering anything.
type noopSpinner struct{}

func (s *noopSpinner) Start()            {}
func (s *noopSpinner) Stop()             {}
func (s *noopSpinner) UpdateText(string) {}
