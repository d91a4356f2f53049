package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// SaveHistoryInput is the payload for SaveHistory.
// ID is sent when known so the backend can update the same record.
type SaveHistoryInput struct {
	ID       string
	Title    string
	Messages []models.Message
}

// ListHistory returns the stored sessions, most recent first as ordered by the backend.
func (c *Client) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var resp historyListResponse
	err := c.do(ctx, request{
		op:     metrics.OpHistoryList,
		method: http.MethodGet,
		path:   "/api/history/list",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if resp.Chats == nil {
		return nil, fmt.Errorf("list history: %w", malformed(metrics.OpHistoryList, "missing chats"))
	}

	entries := make([]models.HistoryEntry, 0, len(*resp.Chats))
	for i, chat := range *resp.Chats {
		if chat.ID == "" {
			return nil, fmt.Errorf("list history: %w", malformed(metrics.OpHistoryList, "chat %d: missing id", i))
		}
		entries = append(entries, models.HistoryEntry{
			ID:        chat.ID,
			Title:     chat.Title,
			CreatedAt: parseTimestamp(chat.CreatedAt),
			UpdatedAt: parseTimestamp(chat.UpdatedAt),
		})
	}
	return entries, nil
}

// GetHistory returns a stored session with its full transcript.
func (c *Client) GetHistory(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("get history: %w: id is required", ErrValidation)
	}

	var resp historyResponse
	err := c.do(ctx, request{
		op:     metrics.OpHistoryGet,
		method: http.MethodGet,
		path:   "/api/history/" + url.PathEscape(id),
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if resp.Messages == nil {
		return nil, fmt.Errorf("get history: %w", malformed(metrics.OpHistoryGet, "missing messages"))
	}

	msgs, err := parseMessages(metrics.OpHistoryGet, *resp.Messages)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	session := &models.Session{
		ID:        resp.ID,
		Title:     resp.Title,
		Messages:  msgs,
		CreatedAt: parseTimestamp(resp.CreatedAt),
		UpdatedAt: parseTimestamp(resp.UpdatedAt),
	}
	if session.ID == "" {
		session.ID = id
	}
	return session, nil
}

// SaveHistory creates or updates a stored session and returns its ID.
// Whether a record is created or updated is decided by the backend.
func (c *Client) SaveHistory(ctx context.Context, in SaveHistoryInput) (string, error) {
	msgs := in.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	body, err := jsonBody(saveHistoryRequest{
		ID:       in.ID,
		Title:    in.Title,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}

	var resp saveHistoryResponse
	err = c.do(ctx, request{
		op:          metrics.OpHistorySave,
		method:      http.MethodPost,
		path:        "/api/history/save",
		body:        body,
		contentType: "application/json",
		auth:        true,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}
	return resp.ID, nil
}

// DeleteHistory removes a stored session.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete history: %w: id is required", ErrValidation)
	}

	err := c.do(ctx, request{
		op:     metrics.OpHistoryDelete,
		method: http.MethodDelete,
		path:   "/api/history/" + url.PathEscape(id),
		auth:   true,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
