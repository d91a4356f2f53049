package client

import (
	"strings"
	"time"

	"github.com/raphaelgruber/kbchat/internal/models"
)

// Response payloads as the backend sends them. Pointer fields mark required
// values so absence can be told apart from a zero value.

type wireUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken *string   `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        *wireUser `json:"user"`
}

type wireSource struct {
	DocTitle *string  `json:"doc_title"`
	Page     int      `json:"page"`
	Score    *float64 `json:"score"`
	Text     string   `json:"text"`
}

type searchResponse struct {
	Answer  *string      `json:"answer"`
	Sources []wireSource `json:"sources"`
}

type wireHistoryEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type historyListResponse struct {
	Chats *[]wireHistoryEntry `json:"chats"`
	Count int                 `json:"count"`
}

type wireMessage struct {
	Text    *string      `json:"text"`
	IsUser  bool         `json:"isUser"`
	Sources []wireSource `json:"sources"`
}

type historyResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  *[]wireMessage `json:"messages"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type saveHistoryRequest struct {
	ID       string           `json:"id,omitempty"`
	Title    string           `json:"title"`
	Messages []models.Message `json:"messages"`
}

type saveHistoryResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (u wireUser) model() models.User {
	return models.User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func parseSources(op string, in []wireSource) ([]models.Source, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]models.Source, 0, len(in))
	for i, s := range in {
		if s.DocTitle == nil {
			return nil, malformed(op, "source %d: missing doc_title", i)
		}
		src := models.Source{
			DocTitle: *s.DocTitle,
			Page:     s.Page,
			Text:     s.Text,
		}
		if s.Score != nil {
			src.Score = *s.Score
		}
		out = append(out, src)
	}
	return out, nil
}

func parseMessages(op string, in []wireMessage) ([]models.Message, error) {
	out := make([]models.Message, 0, len(in))
	for i, m := range in {
		if m.Text == nil {
			return nil, malformed(op, "message %d: missing text", i)
		}
		sources, err := parseSources(op, m.Sources)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Message{
			Text:    *m.Text,
			IsUser:  m.IsUser,
			Sources: sources,
		})
	}
	return out, nil
}

// timestampLayouts covers RFC 3339 and the zone-less ISO format the backend emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp reads an ISO-8601 timestamp. Zone-less values are UTC.
// Unparseable values yield the zero time; timestamps are display-only.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
