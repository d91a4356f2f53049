package chat

import (
	"strings"

	"github.com/raphaelgruber/kbchat/internal/models"
)

const (
	// TitleLength is the number of user-perceived characters kept from the first message.
	TitleLength = 50

	// FallbackTitle names a session with no messages.
	FallbackTitle = "New Chat"
)

// SessionTitle derives a history title from a transcript.
func SessionTitle(msgs []models.Message) string {
	if len(msgs) == 0 {
		return FallbackTitle
	}
	title := models.TruncateGraphemes(msgs[0].Text, TitleLength)
	if strings.TrimSpace(title) == "" {
		return FallbackTitle
	}
	return title
}
