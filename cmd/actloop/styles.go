package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for terminal output.
var (
	userPrefixStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")) // blue
	answerPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	routeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))            // magenta
	thinkingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	toolNameStyle     = lipgloss.NewStyle().Bold(true)
	toolResultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
	toolErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	spinnerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	errorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1"))
)

// Tree-drawing characters for nested display.
const (
	treeCorner = "└ "
	treePipe   = "│ "
)
