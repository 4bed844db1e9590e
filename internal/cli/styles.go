package cli

import "github.com/charmbracelet/lipgloss"

var (
	styleActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleVersion = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	styleDetail  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
