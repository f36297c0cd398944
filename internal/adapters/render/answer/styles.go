package answer

import "github.com/charmbracelet/lipgloss"

type styles struct {
	question   lipgloss.Style
	mode       lipgloss.Style
	answer     lipgloss.Style
	section    lipgloss.Style
	heading    lipgloss.Style
	index      lipgloss.Style
	source     lipgloss.Style
	followUp   lipgloss.Style
	status     lipgloss.Style
	meta       lipgloss.Style
	empty      lipgloss.Style
	errorLabel lipgloss.Style
}

func newStyles() styles {
	return styles{
		question:   lipgloss.NewStyle().Bold(true),
		mode:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		answer:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		section:    lipgloss.NewStyle().MarginTop(1),
		heading:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		index:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		source:     lipgloss.NewStyle().Foreground(lipgloss.Color("159")).Underline(true),
		followUp:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		status:     lipgloss.NewStyle().Faint(true).Italic(true),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		empty:      lipgloss.NewStyle().Faint(true),
		errorLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
