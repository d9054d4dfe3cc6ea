package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#06B6D4")
	accentColor    = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	mutedColor     = lipgloss.Color("#94A3B8")
	borderColor    = lipgloss.Color("#334155")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	numberCellStyle = cellStyle.Copy().
			Align(lipgloss.Right)

	borderStyle = lipgloss.NewStyle().
			Foreground(borderColor)

	methodStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	operatorStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	scanStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	schemaStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)
)
