package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/kbchat/internal/history"
	"github.com/raphaelgruber/kbchat/internal/markdown"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// renderTranscript renders the conversation for the viewport.
func renderTranscript(msgs []models.Message, uploads []models.UploadedFileRef, pending bool, width int, theme Theme) string {
	var b strings.Builder

	if len(msgs) == 0 && !pending {
		b.WriteString(theme.hintStyle().Render("Ask a question about your documents, or type /help."))
		b.WriteString("\n")
	}

	styles := theme.markdownStyles()
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.IsUser {
			b.WriteString(theme.userStyle().Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Text))
			b.WriteString("\n")
			continue
		}

		b.WriteString(theme.botStyle().Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(markdown.Render(msg.Text, width, styles))
		b.WriteString("\n")
		if len(msg.Sources) > 0 {
			b.WriteString(renderSources(msg.Sources, width, theme))
		}
	}

	if pending {
		b.WriteString("\n")
		b.WriteString(theme.hintStyle().Render("Searching your documents..."))
		b.WriteString("\n")
	}

	if len(uploads) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.statusStyle().Render("Uploaded this session"))
		b.WriteString("\n")
		for _, u := range uploads {
			fmt.Fprintf(&b, "  %s %s\n", u.DisplayName,
				theme.hintStyle().Render(fmt.Sprintf("(%s, %s)", u.OriginalFileName, formatSize(u.SizeBytes))))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderSources lists cited passages in the order received.
func renderSources(sources []models.Source, width int, theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.hintStyle().Render("Sources"))
	b.WriteString("\n")
	for i, s := range sources {
		line := fmt.Sprintf("  [%d] %s, p. %d (%.2f)", i+1, s.DocTitle, s.Page, s.Score)
		b.WriteString(theme.statusStyle().Render(line))
		b.WriteString("\n")
		if excerpt := strings.TrimSpace(s.Text); excerpt != "" {
			excerpt = strings.Join(strings.Fields(excerpt), " ")
			quoted := lipgloss.NewStyle().Width(max(width-6, 10)).Render(excerpt)
			for _, l := range strings.Split(quoted, "\n") {
				b.WriteString("      " + theme.hintStyle().Render(strings.TrimRight(l, " ")) + "\n")
			}
		}
	}
	return b.String()
}

// renderSidebar renders the numbered history list.
func renderSidebar(entries []models.HistoryEntry, current string, loading bool, width int, now time.Time, theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.statusStyle().Bold(true).Render("History"))
	b.WriteString("\n")

	switch {
	case loading && len(entries) == 0:
		b.WriteString(theme.hintStyle().Render("loading..."))
		return b.String()
	case len(entries) == 0:
		b.WriteString(theme.hintStyle().Render("no saved chats"))
		return b.String()
	}

	for i, e := range entries {
		num := fmt.Sprintf("%2d ", i+1)
		row := num + history.FormatEntry(e, max(width-len(num), 8), now)
		if e.ID == current {
			row = theme.selectedStyle().Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSize renders a byte count for display.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
