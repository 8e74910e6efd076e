// Package console is the operator-facing side of the simulator: styled,
// serialized output and the line-oriented submission loop.
package console

import "github.com/charmbracelet/lipgloss"

// Style selects how a line is rendered.
type Style int

const (
	Plain Style = iota
	Title
	Info
	Success
	Warn
	Error
	Muted
)

var styles = map[Style]lipgloss.Style{
	Plain:   lipgloss.NewStyle(),
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6EC4F4")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF4A1")),
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F4C76E")),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F45E6E")),
	Muted:   lipgloss.NewStyle().Faint(true),
}

// Render applies s to text.
func Render(s Style, text string) string {
	st, ok := styles[s]
	if !ok {
		return text
	}
	return st.Render(text)
}
