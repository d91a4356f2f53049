// Package app wires the credential store, session controller and history panel
// together and owns the top-level view state.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/history"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// View is the top-level screen.
type View int

const (
	ViewHome View = iota
	ViewLogin
	ViewSignup
	ViewChat
)

func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewLogin:
		return "login"
	case ViewSignup:
		return "signup"
	case ViewChat:
		return "chat"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Authenticator exchanges user credentials for a bearer credential.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.Credential, error)
	Register(ctx context.Context, email, password, name string) (models.Credential, error)
}

// CredentialStore persists the bearer credential.
type CredentialStore interface {
	Get() (models.Credential, bool)
	Set(cred models.Credential) error
	Clear() error
}

// Deps are the components the app composes.
type Deps struct {
	Auth    Authenticator
	Creds   CredentialStore
	Session *chat.Controller
	Panel   *history.Panel
	Logger  *slog.Logger
}

// App is the composition root.
type App struct {
	auth    Authenticator
	creds   CredentialStore
	session *chat.Controller
	panel   *history.Panel
	logger  *slog.Logger

	mu   sync.Mutex
	view View
}

// New creates the app. It opens on the chat view when a credential is stored.
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		auth:    deps.Auth,
		creds:   deps.Creds,
		session: deps.Session,
		panel:   deps.Panel,
		logger:  logger,
		view:    ViewHome,
	}
	if _, ok := deps.Creds.Get(); ok {
		a.view = ViewChat
	}
	return a
}

// View returns the current screen.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Show switches to v.
func (a *App) Show(v View) {
	a.mu.Lock()
	a.view = v
	a.mu.Unlock()
}

// Session returns the active-session controller.
func (a *App) Session() *chat.Controller { return a.session }

// Panel returns the history panel.
func (a *App) Panel() *history.Panel { return a.panel }

// User returns the signed-in user.
func (a *App) User() (models.User, bool) {
	cred, ok := a.creds.Get()
	return cred.User, ok
}

// Guest enters the chat without signing in.
func (a *App) Guest() {
	a.Show(ViewChat)
}

// Login signs in and opens the chat.
func (a *App) Login(ctx context.Context, email, password string) error {
	cred, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return a.signIn(ctx, cred)
}

// Register creates an account, signs in and opens the chat.
func (a *App) Register(ctx context.Context, email, password, name string) error {
	cred, err := a.auth.Register(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return a.signIn(ctx, cred)
}

func (a *App) signIn(ctx context.Context, cred models.Credential) error {
	if err := a.creds.Set(cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	a.logger.Info("signed in", "user", cred.User.Email)

	a.session.New()
	a.Show(ViewChat)

	// The panel logs its own failures; an empty sidebar is not fatal.
	_ = a.panel.Refresh(ctx)
	return nil
}

// Logout forgets the credential and returns to the home screen.
// The active session and history list are cleared even if the credential file cannot be written.
func (a *App) Logout() error {
	err := a.creds.Clear()

	a.session.New()
	a.panel.Clear()
	a.Show(ViewHome)

	if err != nil {
		a.logger.Error("failed to clear credential", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	a.logger.Info("signed out")
	return nil
}

// NewSession starts an empty, unsaved session.
func (a *App) NewSession() {
	a.session.New()
}

// SelectSession makes the stored session id active.
func (a *App) SelectSession(ctx context.Context, id string) error {
	return a.panel.Select(ctx, id)
}

// ActiveSession returns the id of the active session, or "" when it is new or unsaved.
func (a *App) ActiveSession() string {
	return a.session.SessionID()
}
