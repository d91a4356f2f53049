// Package history tracks the stored sessions of the signed-in user for the sidebar.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Gateway is the subset of the backend client the panel needs.
type Gateway interface {
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id string) error
}

// Session is the active-session controller the panel drives.
type Session interface {
	Load(ctx context.Context, id string) error
	New()
	SessionID() string
	Subscribe(l chat.Listener)
}

// Panel holds the list of stored sessions, most recent first.
type Panel struct {
	gateway Gateway
	creds   chat.Credentials
	session Session
	logger  *slog.Logger

	mu      sync.Mutex
	entries []models.HistoryEntry
	loading bool
	stale   bool
}

// NewPanel creates a panel and subscribes it to session changes.
// The panel starts stale so the first view triggers a refresh.
func NewPanel(gateway Gateway, creds chat.Credentials, session Session, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Panel{
		gateway: gateway,
		creds:   creds,
		session: session,
		logger:  logger,
		stale:   true,
	}
	session.Subscribe(chat.Listener{HistoryChanged: p.markStale})
	return p
}

func (p *Panel) markStale() {
	p.mu.Lock()
	p.stale = true
	p.mu.Unlock()
}

// Stale reports whether the list may be out of date.
func (p *Panel) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stale
}

// Refresh reloads the list. Guests have no history and get an empty list.
// On failure the previous list is kept.
func (p *Panel) Refresh(ctx context.Context) error {
	if cred, ok := p.creds.Get(); !ok || !cred.Valid() {
		p.Clear()
		return nil
	}

	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	entries, err := p.gateway.ListHistory(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.logger.Warn("failed to load history", "error", err)
		return fmt.Errorf("refresh history: %w", err)
	}
	p.entries = entries
	p.stale = false
	return nil
}

// Select makes the stored session id the active one.
func (p *Panel) Select(ctx context.Context, id string) error {
	return p.session.Load(ctx, id)
}

// Delete removes a stored session. Deleting the active session starts a new one.
func (p *Panel) Delete(ctx context.Context, id string) error {
	if err := p.gateway.DeleteHistory(ctx, id); err != nil {
		p.logger.Warn("failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("delete session: %w", err)
	}

	p.mu.Lock()
	p.entries = slices.DeleteFunc(p.entries, func(e models.HistoryEntry) bool { return e.ID == id })
	p.mu.Unlock()

	if p.session.SessionID() == id {
		p.session.New()
	}
	return nil
}

// Clear empties the list, e.g. on logout.
func (p *Panel) Clear() {
	p.mu.Lock()
	p.entries = nil
	p.stale = false
	p.mu.Unlock()
}

// Entries returns a copy of the list.
func (p *Panel) Entries() []models.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.entries)
}

// Current returns the id of the active session, or "" for an unsaved one.
func (p *Panel) Current() string {
	return p.session.SessionID()
}

// Loading reports whether a refresh is in flight.
func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}
