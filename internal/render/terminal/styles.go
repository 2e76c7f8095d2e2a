// Package terminal draws conversations and SDUI widgets for a text terminal.
package terminal

import "github.com/charmbracelet/lipgloss"

var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // purple
			Padding(0, 1)

	inertCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("244"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // cyan
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)
