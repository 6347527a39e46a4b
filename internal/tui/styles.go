package tui

import "github.com/charmbracelet/lipgloss"

var (
	cyan    = lipgloss.Color("#56B6C2")
	green   = lipgloss.Color("#98C379")
	yellow  = lipgloss.Color("#E5C07B")
	red     = lipgloss.Color("#E06C75")
	muted   = lipgloss.Color("#5C6370")
	primary = lipgloss.Color("#ABB2BF")

	titleStyle    = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	pathStyle     = lipgloss.NewStyle().Foreground(primary).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	kindStyle     = lipgloss.NewStyle().Foreground(yellow).Width(10)
	tierStyle     = lipgloss.NewStyle().Foreground(muted).Italic(true)
	descStyle     = lipgloss.NewStyle().Foreground(muted)
	sigStyle      = lipgloss.NewStyle().Foreground(green)
	errorStyle    = lipgloss.NewStyle().Foreground(red)
	footerStyle   = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
	warnStyle     = lipgloss.NewStyle().Foreground(yellow)
)
