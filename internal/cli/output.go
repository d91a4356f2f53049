package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/kbchat/internal/markdown"
	"github.com/raphaelgruber/kbchat/internal/models"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D7AF5F"))
	botStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AF87FF"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

// outputWidth is the terminal width, or the markdown default when not a terminal.
func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return min(w, 100)
	}
	return markdown.DefaultWidth
}

// printMessage writes one transcript message.
func printMessage(w io.Writer, msg models.Message, width int) {
	if msg.IsUser {
		fmt.Fprintln(w, userStyle.Render("You"))
		fmt.Fprintln(w, msg.Text)
		return
	}

	fmt.Fprintln(w, botStyle.Render("Assistant"))
	fmt.Fprintln(w, markdown.Render(msg.Text, width, markdown.DefaultStyles()))
	if len(msg.Sources) > 0 {
		fmt.Fprintln(w)
		printSources(w, msg.Sources)
	}
}

// printSources lists cited passages in the order received.
func printSources(w io.Writer, sources []models.Source) {
	fmt.Fprintln(w, hintStyle.Render("Sources:"))
	for i, s := range sources {
		fmt.Fprintf(w, "  [%d] %s, p. %d %s\n", i+1, s.DocTitle, s.Page, hintStyle.Render(fmt.Sprintf("(score %.2f)", s.Score)))
	}
}

// printTranscript writes a whole conversation.
func printTranscript(w io.Writer, msgs []models.Message, width int) {
	for i, msg := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printMessage(w, msg, width)
	}
}
