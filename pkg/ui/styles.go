package ui

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used by the view and the model.
type Styles struct {
	UserLabel   lipgloss.Style
	UserText    lipgloss.Style
	BotLabel    lipgloss.Style
	BotText     lipgloss.Style
	Placeholder lipgloss.Style
	Button      lipgloss.Style
	Status      lipgloss.Style
}

// DefaultStyles returns the colored styles used on a terminal.
func DefaultStyles() Styles {
	return Styles{
		UserLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		UserText:    lipgloss.NewStyle(),
		BotLabel:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		BotText:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")),
		Button:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63")),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// PlainStyles renders without any escape sequences.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		UserLabel:   plain,
		UserText:    plain,
		BotLabel:    plain,
		BotText:     plain,
		Placeholder: plain,
		Button:      plain,
		Status:      plain,
	}
}
