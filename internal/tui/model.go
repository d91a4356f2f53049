package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/kbchat/internal/app"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

const (
	sidebarWidth    = 32
	minSidebarTotal = 90
	chromeHeight    = 4
)

// Messages produced by commands running off the update loop.
type (
	answerMsg   struct{ err error }
	loadedMsg   struct{ err error }
	historyMsg  struct{ err error }
	deletedMsg  struct{ err error }
	authMsg     struct{ err error }
	uploadedMsg struct {
		ref models.UploadedFileRef
		err error
	}
)

// Options configures the chat interface.
type Options struct {
	Metrics *metrics.Collector
	Theme   *Theme
	Now     func() time.Time
}

// Model is the bubbletea model for the interactive client.
type Model struct {
	ctx     context.Context
	app     *app.App
	metrics *metrics.Collector
	theme   Theme
	now     func() time.Time

	width  int
	height int

	input    textinput.Model
	form     []textinput.Model
	focus    int
	viewport viewport.Model

	notice    string
	noticeErr bool
	busy      bool
	quitting  bool
}

// NewModel creates the interface for a.
func NewModel(ctx context.Context, a *app.App, opts Options) Model {
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.Prompt = "› "
	input.Focus()

	m := Model{
		ctx:      ctx,
		app:      a,
		metrics:  opts.Metrics,
		theme:    theme,
		now:      now,
		width:    100,
		height:   30,
		input:    input,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
	}
	m.enterView(a.View())
	return m
}

// Init loads the history list when starting on the chat screen.
func (m Model) Init() tea.Cmd {
	if m.app.View() == app.ViewChat {
		return m.refreshHistory()
	}
	return nil
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.app.View() {
		case app.ViewHome:
			return m.updateHome(msg)
		case app.ViewLogin, app.ViewSignup:
			return m.updateForm(msg)
		default:
			return m.updateChat(msg)
		}

	case answerMsg:
		m.syncTranscript()
		if msg.err != nil && errors.Is(msg.err, chat.ErrLoginRequired) {
			m.setNotice(chat.Notice(msg.err), true)
		}
		return m, m.refreshIfStale()

	case loadedMsg:
		// Gateway failures are logged by the controller and not shown.
		if errors.Is(msg.err, chat.ErrLoginRequired) || errors.Is(msg.err, chat.ErrValidation) {
			m.setNotice(chat.Notice(msg.err), true)
		}
		m.syncTranscript()
		m.viewport.GotoTop()
		return m, nil

	case uploadedMsg:
		if msg.err != nil {
			m.setNotice(chat.Notice(msg.err), true)
		} else {
			m.setNotice(chat.NoticeUploadOK, false)
		}
		m.syncTranscript()
		return m, nil

	case historyMsg, deletedMsg:
		m.syncTranscript()
		return m, nil

	case authMsg:
		m.busy = false
		if msg.err != nil {
			m.setNotice(authNotice(msg.err), true)
			return m, nil
		}
		m.enterView(app.ViewChat)
		return m, nil
	}

	return m, nil
}

func (m Model) updateHome(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "l":
		m.app.Show(app.ViewLogin)
		m.enterView(app.ViewLogin)
	case "s":
		m.app.Show(app.ViewSignup)
		m.enterView(app.ViewSignup)
	case "g":
		m.app.Guest()
		m.enterView(app.ViewChat)
		return m, m.refreshHistory()
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.app.Show(app.ViewHome)
		m.enterView(app.ViewHome)
		return m, nil
	case "tab", "down":
		m.focusField(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.focusField(m.focus - 1)
		return m, nil
	case "enter":
		if m.focus < len(m.form)-1 {
			m.focusField(m.focus + 1)
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.setNotice("", false)
		return m, m.authenticate()
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc":
		m.setNotice("", false)
		return m, nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a question or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if c, ok := parseCommand(line); ok {
		m.input.Reset()
		return m.run(c)
	}

	session := m.app.Session()
	turn, err := session.Ask(line)
	if err != nil {
		m.setNotice(chat.Notice(err), true)
		return m, nil
	}

	m.input.Reset()
	m.setNotice("", false)
	m.syncTranscript()

	ctx := m.ctx
	return m, func() tea.Msg {
		return answerMsg{err: session.Await(ctx, turn)}
	}
}

// run executes a slash command.
func (m Model) run(c command) (tea.Model, tea.Cmd) {
	m.setNotice("", false)

	switch c.name {
	case "new":
		m.app.NewSession()
		m.syncTranscript()
		return m, nil

	case "upload":
		path, title := c.uploadArgs()
		return m, m.upload(path, title)

	case "history":
		return m, m.refreshHistory()

	case "open", "delete":
		entries := m.app.Panel().Entries()
		i, err := c.index(len(entries))
		if err != nil {
			m.setNotice(err.Error(), true)
			return m, nil
		}
		if c.name == "open" {
			return m, m.load(entries[i].ID)
		}
		return m, m.delete(entries[i].ID)

	case "logout":
		err := m.app.Logout()
		m.enterView(app.ViewHome)
		if err != nil {
			m.setNotice(err.Error(), true)
		}
		return m, nil

	case "quit", "exit":
		m.quitting = true
		return m, tea.Quit

	case "help", "":
		m.setNotice(helpText, false)
		return m, nil

	default:
		m.setNotice(fmt.Sprintf("Unknown command /%s. Try /help.", c.name), true)
		return m, nil
	}
}

func (m Model) upload(path, title string) tea.Cmd {
	ctx, session := m.ctx, m.app.Session()
	return func() tea.Msg {
		if path == "" {
			return uploadedMsg{err: chat.ErrMissingFile}
		}
		blob, f, err := models.OpenFile(path)
		if err != nil {
			return uploadedMsg{err: fmt.Errorf("%w: %w", chat.ErrMissingFile, err)}
		}
		defer f.Close()

		ref, err := session.UploadDocument(ctx, blob, title)
		return uploadedMsg{ref: ref, err: err}
	}
}

func (m Model) load(id string) tea.Cmd {
	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		return loadedMsg{err: a.SelectSession(ctx, id)}
	}
}

func (m Model) delete(id string) tea.Cmd {
	ctx, panel := m.ctx, m.app.Panel()
	return func() tea.Msg {
		return deletedMsg{err: panel.Delete(ctx, id)}
	}
}

func (m Model) refreshHistory() tea.Cmd {
	ctx, panel := m.ctx, m.app.Panel()
	return func() tea.Msg {
		return historyMsg{err: panel.Refresh(ctx)}
	}
}

func (m Model) refreshIfStale() tea.Cmd {
	if !m.app.Panel().Stale() {
		return nil
	}
	return m.refreshHistory()
}

func (m Model) authenticate() tea.Cmd {
	ctx, a := m.ctx, m.app
	values := make([]string, len(m.form))
	for i, f := range m.form {
		values[i] = strings.TrimSpace(f.Value())
	}
	signup := a.View() == app.ViewSignup

	return func() tea.Msg {
		if signup {
			return authMsg{err: a.Register(ctx, values[1], values[2], values[0])}
		}
		return authMsg{err: a.Login(ctx, values[0], values[1])}
	}
}

// authNotice turns a sign-in failure into a message for the form.
func authNotice(err error) string {
	var se *client.StatusError
	switch {
	case errors.As(err, &se) && se.Detail != "":
		return se.Detail
	case errors.Is(err, client.ErrValidation):
		return "Please fill in all fields."
	default:
		return "Could not reach the server. Please try again."
	}
}

// enterView prepares inputs for v.
func (m *Model) enterView(v app.View) {
	m.form = nil
	m.focus = 0

	switch v {
	case app.ViewLogin:
		m.form = []textinput.Model{newField("Email", false), newField("Password", true)}
	case app.ViewSignup:
		m.form = []textinput.Model{newField("Name", false), newField("Email", false), newField("Password", true)}
	case app.ViewChat:
		m.input.Focus()
		m.syncTranscript()
	}
	if len(m.form) > 0 {
		m.focusField(0)
	}
}

func newField(placeholder string, secret bool) textinput.Model {
	f := textinput.New()
	f.Placeholder = placeholder
	f.Prompt = fmt.Sprintf("%-9s ", placeholder+":")
	if secret {
		f.EchoMode = textinput.EchoPassword
	}
	return f
}

func (m *Model) focusField(i int) {
	if len(m.form) == 0 {
		return
	}
	i = (i + len(m.form)) % len(m.form)
	for j := range m.form {
		if j == i {
			m.form[j].Focus()
		} else {
			m.form[j].Blur()
		}
	}
	m.focus = i
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// layout sizes the viewport to the window.
func (m *Model) layout() {
	w := m.width
	if m.showSidebar() {
		w -= sidebarWidth + 2
	}
	m.viewport.SetWidth(max(w, 20))
	m.viewport.SetHeight(max(m.height-chromeHeight, 3))
	m.syncTranscript()
}

func (m Model) showSidebar() bool {
	return m.width >= minSidebarTotal
}

// syncTranscript re-renders the conversation into the viewport.
func (m *Model) syncTranscript() {
	session := m.app.Session()
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(
		session.Transcript(),
		session.Uploads(),
		session.Pending(),
		m.viewport.Width(),
		m.theme,
	))
	if atBottom || session.Pending() {
		m.viewport.GotoBottom()
	}
}

// View renders the current screen.
func (m Model) View() tea.View {
	var content string
	if m.quitting {
		content = ""
	} else {
		switch m.app.View() {
		case app.ViewHome:
			content = m.homeView()
		case app.ViewLogin, app.ViewSignup:
			content = m.formView()
		default:
			content = m.chatView()
		}
	}

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

func (m Model) homeView() string {
	title := m.theme.statusStyle().Bold(true).Render("kbchat")
	body := strings.Join([]string{
		title,
		"Ask questions about your documents.",
		"",
		"[l] Login   [s] Sign up   [g] Continue as guest   [q] Quit",
	}, "\n")
	return m.center(m.theme.boxStyle().Render(body))
}

func (m Model) formView() string {
	heading := "Login"
	if m.app.View() == app.ViewSignup {
		heading = "Sign up"
	}

	lines := []string{m.theme.statusStyle().Bold(true).Render(heading), ""}
	for _, f := range m.form {
		lines = append(lines, f.View())
	}
	lines = append(lines, "")
	switch {
	case m.busy:
		lines = append(lines, m.theme.hintStyle().Render("Signing in..."))
	case m.notice != "":
		lines = append(lines, m.noticeView())
	default:
		lines = append(lines, m.theme.hintStyle().Render("enter: submit · tab: next field · esc: back"))
	}
	return m.center(m.theme.boxStyle().Render(strings.Join(lines, "\n")))
}

func (m Model) chatView() string {
	main := m.viewport.View()
	if m.showSidebar() {
		panel := m.app.Panel()
		sidebar := renderSidebar(panel.Entries(), panel.Current(), panel.Loading(), sidebarWidth, m.now(), m.theme)
		sidebar = m.theme.sidebarStyle().Width(sidebarWidth).Height(m.viewport.Height()).Render(sidebar)
		main = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	}

	notice := m.noticeView()
	if notice == "" {
		notice = m.theme.hintStyle().Render("/help for commands · pgup/pgdown to scroll")
	}

	return strings.Join([]string{main, m.statusLine(), notice, m.input.View()}, "\n")
}

func (m Model) noticeView() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return m.theme.errorStyle().Render(m.notice)
	}
	return m.theme.successStyle().Render(m.notice)
}

// statusLine shows who is signed in, the session and the last search latency.
func (m Model) statusLine() string {
	who := "guest"
	if user, ok := m.app.User(); ok {
		who = user.Name
		if who == "" {
			who = user.Email
		}
	}

	session := "new chat"
	if id := m.app.ActiveSession(); id != "" {
		session = "chat " + id
	}

	parts := []string{who, session}
	if m.app.Session().State() == chat.StateAwaitingAnswer {
		parts = append(parts, "thinking...")
	}
	if m.metrics != nil {
		if d, ok := m.metrics.Last(metrics.OpSearch); ok {
			parts = append(parts, fmt.Sprintf("last search %s", d.Round(10*time.Millisecond)))
		}
	}
	return m.theme.statusStyle().Render(strings.Join(parts, " · "))
}

func (m Model) center(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

// Run starts the interactive interface and blocks until the user quits.
func Run(ctx context.Context, a *app.App, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, a, opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
