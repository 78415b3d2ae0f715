package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for command output.
type Styles struct {
	// Headings
	Title lipgloss.Style

	// Fields
	Label lipgloss.Style
	Value lipgloss.Style
	Index lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultStyles returns the default color scheme for the default renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles returns the default color scheme bound to r, so colors are only
// emitted when r's output supports them.
func NewStyles(r *lipgloss.Renderer) Styles {
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	muted := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}

	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(highlight),

		Label: r.NewStyle().
			Foreground(muted).
			Width(18),

		Value: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}),

		Index: r.NewStyle().
			Foreground(highlight).
			Bold(true),

		Success: r.NewStyle().
			Foreground(special),

		Error: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),

		Muted: r.NewStyle().
			Foreground(muted),

		Spinner: r.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")),
	}
}
