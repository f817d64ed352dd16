package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spam-detector/webui/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	spamStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	hamStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	badRowStyle = cellStyle.Foreground(lipgloss.Color("196"))
)

func labelStyle(label string) lipgloss.Style {
	if label == models.LabelSpam {
		return spamStyle
	}
	return hamStyle
}
