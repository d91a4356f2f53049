package history

import (
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// FormatDate renders t relative to now: the time of day for today,
// "Yesterday", or the month and day otherwise.
func FormatDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())

	switch {
	case sameDay(t, now):
		return t.Format("15:04")
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("Jan 2")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatEntry renders one sidebar row of exactly width columns:
// the title, truncated to fit, followed by the right-aligned date.
func FormatEntry(e models.HistoryEntry, width int, now time.Time) string {
	date := FormatDate(e.CreatedAt, now)
	title := e.Title
	if title == "" {
		title = chat.FallbackTitle
	}

	titleWidth := width - runewidth.StringWidth(date) - 1
	if titleWidth < 1 {
		return runewidth.Truncate(title, width, "…")
	}
	title = runewidth.FillRight(runewidth.Truncate(title, titleWidth, "…"), titleWidth)
	return title + " " + date
}
