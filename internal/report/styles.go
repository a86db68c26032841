package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors shared by every console style.
var (
	Destructive = lipgloss.Color("#e53935") // Red
	Success     = lipgloss.Color("#8BC34A") // Lime Green
	Warning     = lipgloss.Color("#FFC107") // Yellow
	Info        = lipgloss.Color("#2196F3") // Blue
	Muted       = lipgloss.Color("#8a94a6")
)

// Styles holds the console styles. They are bound to a renderer for the
// destination writer, so output to a pipe or buffer carries no escape codes.
type Styles struct {
	Title   lipgloss.Style
	Body    lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles builds styles for w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(Info),
		Body:    r.NewStyle(),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(Muted),
		Success: r.NewStyle().Foreground(Success),
		Error:   r.NewStyle().Bold(true).Foreground(Destructive),
		Warning: r.NewStyle().Foreground(Warning),
		Info:    r.NewStyle().Foreground(Info),
	}
}
