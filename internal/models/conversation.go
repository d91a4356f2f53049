// Package models defines the data structures shared by the kbchat client.
package models

import "time"

// Session represents a persisted or in-progress conversation.
// An empty ID marks a session the backend has not stored yet.
type Session struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn of a conversation.
type Message struct {
	Text    string   `json:"text"`
	IsUser  bool     `json:"isUser"`
	Sources []Source `json:"sources,omitempty"`
}

// UserMessage creates a message authored by the human.
func UserMessage(text string) Message {
	return Message{Text: text, IsUser: true}
}

// BotMessage creates an answer message. Sources is left nil when empty.
func BotMessage(text string, sources []Source) Message {
	msg := Message{Text: text}
	if len(sources) > 0 {
		msg.Sources = append([]Source(nil), sources...)
	}
	return msg
}

// Clone returns a deep copy so callers cannot mutate a stored message.
func (m Message) Clone() Message {
	if m.Sources != nil {
		m.Sources = append([]Source(nil), m.Sources...)
	}
	return m
}

// CloneMessages deep-copies a transcript.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// Source is a cited passage returned alongside an answer.
// Order is the backend's; the client renders sources as received.
type Source struct {
	DocTitle string  `json:"doc_title"`
	Page     int     `json:"page"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// Answer is the result of a search request.
type Answer struct {
	Text    string
	Sources []Source
}

// HistoryEntry is one row of the stored-session list.
type HistoryEntry struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
