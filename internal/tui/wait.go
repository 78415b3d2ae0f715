package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/vitaminmoo/mbim-tool/internal/device"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// callDoneMsg signals that the awaited call has completed.
type callDoneMsg struct{}

// waitModel shows a spinner until a device call completes.
type waitModel struct {
	call    *device.Call
	label   string
	spinner spinner.Model
	styles  Styles
	done    bool
}

func newWaitModel(call *device.Call, label string, styles Styles) waitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return waitModel{
		call:    call,
		label:   label,
		spinner: s,
		styles:  styles,
	}
}

func waitForCall(call *device.Call) tea.Cmd {
	return func() tea.Msg {
		<-call.Done()
		return callDoneMsg{}
	}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForCall(m.call))
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.styles.Muted.Render(m.label)
}

// Await draws a spinner labelled label on w until call completes. It
// returns when the call is done, even if the spinner could not run.
func Await(w io.Writer, call *device.Call, label string) {
	styles := NewStyles(lipgloss.NewRenderer(w))
	p := tea.NewProgram(newWaitModel(call, label, styles),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	_, _ = p.Run()
	<-call.Done()
}
