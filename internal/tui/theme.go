// Package tui provides the interactive terminal interface: the chat screen with
// its history sidebar, the sign-in screens and the batch upload progress view.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/kbchat/internal/markdown"
)

// Theme holds the color scheme for the terminal interface.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	User    lipgloss.Color
	Bot     lipgloss.Color
	Border  lipgloss.Color
	Accent  lipgloss.Color
}

// DefaultTheme provides default colors.
var DefaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	User:    lipgloss.Color("#D7AF5F"), // amber
	Bot:     lipgloss.Color("#AF87FF"), // violet
	Border:  lipgloss.Color("#3A3A3A"), // dark gray
	Accent:  lipgloss.Color("#5FAFD7"),
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) botStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Bot).Bold(true)
}

func (t Theme) sidebarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(t.Border).
		PaddingRight(1)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) boxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(1, 2)
}

// markdownStyles maps the theme onto the answer renderer.
func (t Theme) markdownStyles() markdown.Styles {
	s := markdown.DefaultStyles()
	s.Heading = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	s.Muted = lipgloss.NewStyle().Foreground(t.Hint)
	return s
}
