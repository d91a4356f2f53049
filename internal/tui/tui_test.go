package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/kbchat/internal/app"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/credentials"
	"github.com/raphaelgruber/kbchat/internal/history"
	"github.com/raphaelgruber/kbchat/internal/kvstore"
	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

type fakeBackend struct {
	searchErr error
	uploads   []string
	entries   []models.HistoryEntry
	sessions  map[string]*models.Session
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (models.Credential, error) {
	if password != "secret" {
		return models.Credential{}, &client.StatusError{Code: 401, Detail: "Invalid email or password"}
	}
	return models.Credential{Token: "tok", User: models.User{Name: "Ada", Email: email}}, nil
}

func (f *fakeBackend) Register(_ context.Context, email, _, name string) (models.Credential, error) {
	return models.Credential{Token: "tok", User: models.User{Name: name, Email: email}}, nil
}

func (f *fakeBackend) Search(context.Context, string, int) (*models.Answer, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &models.Answer{Text: "X is Y", Sources: []models.Source{{DocTitle: "Doc", Page: 2, Score: 0.91, Text: "..."}}}, nil
}

func (f *fakeBackend) Upload(_ context.Context, file models.FileBlob, title string) (*client.UploadResult, error) {
	f.uploads = append(f.uploads, title)
	return &client.UploadResult{JobID: "job-" + title, Status: "completed"}, nil
}

func (f *fakeBackend) GetHistory(_ context.Context, id string) (*models.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeBackend) SaveHistory(context.Context, client.SaveHistoryInput) (string, error) {
	return "abc123", nil
}

func (f *fakeBackend) ListHistory(context.Context) ([]models.HistoryEntry, error) {
	return f.entries, nil
}

func (f *fakeBackend) DeleteHistory(context.Context, string) error { return nil }

func newTestModel(t *testing.T, be *fakeBackend, signedIn bool) Model {
	t.Helper()
	return newTestModelAt(t, be, signedIn, filepath.Join(t.TempDir(), "state.yaml"))
}

func newTestModelAt(t *testing.T, be *fakeBackend, signedIn bool, statePath string) Model {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	kv, err := kvstore.Open(statePath)
	require.NoError(t, err)
	creds := credentials.NewStore(kv, logger)
	if signedIn {
		require.NoError(t, creds.Set(models.Credential{Token: "tok", User: models.User{Name: "Ada"}}))
	}

	session := chat.NewController(be, creds, chat.Options{Logger: logger})
	a := app.New(app.Deps{
		Auth:    be,
		Creds:   creds,
		Session: session,
		Panel:   history.NewPanel(be, creds, session, logger),
		Logger:  logger,
	})

	m := NewModel(context.Background(), a, Options{
		Metrics: metrics.NewCollector(),
		Now:     func() time.Time { return time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC) },
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

// press sends msg and runs any resulting command chain to completion.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if out == nil {
			break
		}
		if _, ok := out.(tea.BatchMsg); ok {
			break
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func TestParseCommand(t *testing.T) {
	c, ok := parseCommand("/upload docs/manual.pdf User Manual")
	require.True(t, ok)
	assert.Equal(t, "upload", c.name)
	path, title := c.uploadArgs()
	assert.Equal(t, "docs/manual.pdf", path)
	assert.Equal(t, "User Manual", title)

	_, ok = parseCommand("What is /etc/hosts?")
	assert.False(t, ok)

	c, ok = parseCommand("  /OPEN 2 ")
	require.True(t, ok)
	i, err := c.index(3)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = c.index(1)
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2<<20))
}

func TestRenderTranscript(t *testing.T) {
	msgs := []models.Message{
		models.UserMessage("What is X?"),
		models.BotMessage("X is **Y**", []models.Source{{DocTitle: "Doc", Page: 2, Score: 0.91, Text: "passage"}}),
	}
	uploads := []models.UploadedFileRef{{DisplayName: "Manual", OriginalFileName: "manual.pdf", SizeBytes: 2048}}

	out := plain(renderTranscript(msgs, uploads, false, 60, DefaultTheme))

	assert.Contains(t, out, "You\nWhat is X?")
	assert.Contains(t, out, "X is Y")
	assert.Contains(t, out, "[1] Doc, p. 2 (0.91)")
	assert.Contains(t, out, "passage")
	assert.Contains(t, out, "Manual (manual.pdf, 2.0 KB)")
	assert.NotContains(t, out, "Searching")

	pending := plain(renderTranscript(msgs[:1], nil, true, 60, DefaultTheme))
	assert.Contains(t, pending, "Searching your documents...")
}

func TestRenderSidebar(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{{ID: "a", Title: "First chat", CreatedAt: now}}

	out := plain(renderSidebar(entries, "a", false, 30, now, DefaultTheme))
	assert.Contains(t, out, " 1 First chat")
	assert.Contains(t, out, "12:00")

	assert.Contains(t, plain(renderSidebar(nil, "", false, 30, now, DefaultTheme)), "no saved chats")
}

func TestStartupScreen(t *testing.T) {
	home := newTestModel(t, &fakeBackend{}, false)
	assert.Equal(t, app.ViewHome, home.app.View())
	assert.Contains(t, plain(home.homeView()), "Continue as guest")

	signedIn := newTestModel(t, &fakeBackend{}, true)
	assert.Equal(t, app.ViewChat, signedIn.app.View())
}

func TestGuestQuestionShowsLoginNotice(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, false)
	m = press(t, m, key("g"))
	require.Equal(t, app.ViewChat, m.app.View())

	m.input.SetValue("hello")
	m = press(t, m, key("enter"))

	assert.Equal(t, "Please login or sign up to search documents", m.notice)
	assert.Empty(t, m.app.Session().Transcript())
	assert.Equal(t, "hello", m.input.Value(), "input is kept for retry")
}

func TestAskQuestion(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, true)

	m.input.SetValue("What is X?")
	next, cmd := m.Update(key("enter"))
	m = next.(Model)

	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	assert.True(t, m.app.Session().Pending())
	assert.Len(t, m.app.Session().Transcript(), 1)

	m = press(t, m, cmd())

	assert.False(t, m.app.Session().Pending())
	transcript := m.app.Session().Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "X is Y", transcript[1].Text)
	assert.Equal(t, "abc123", m.app.ActiveSession())
	assert.Contains(t, plain(m.statusLine()), "chat abc123")
}

func TestFailedAnswerShowsFailureText(t *testing.T) {
	m := newTestModel(t, &fakeBackend{searchErr: errors.New("offline")}, true)

	m.input.SetValue("Q")
	m = press(t, m, key("enter"))

	transcript := m.app.Session().Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, chat.AnswerFailedText, transcript[1].Text)
	assert.Empty(t, m.notice)
}

func TestUploadCommand(t *testing.T) {
	be := &fakeBackend{}
	m := newTestModel(t, be, true)

	path := filepath.Join(t.TempDir(), "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	m.input.SetValue("/upload " + path + " User Manual")
	m = press(t, m, key("enter"))

	assert.Equal(t, []string{"User Manual"}, be.uploads)
	assert.Equal(t, chat.NoticeUploadOK, m.notice)
	assert.Len(t, m.app.Session().Uploads(), 1)
}

func TestUploadCommandWithoutTitle(t *testing.T) {
	be := &fakeBackend{}
	m := newTestModel(t, be, true)

	path := filepath.Join(t.TempDir(), "manual.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	m.input.SetValue("/upload " + path)
	m = press(t, m, key("enter"))

	assert.Empty(t, be.uploads)
	assert.Equal(t, chat.NoticeUploadInput, m.notice)
}

func TestOpenCommand(t *testing.T) {
	be := &fakeBackend{
		entries: []models.HistoryEntry{{ID: "abc123", Title: "Stored"}},
		sessions: map[string]*models.Session{
			"abc123": {ID: "abc123", Messages: []models.Message{models.UserMessage("stored question")}},
		},
	}
	m := newTestModel(t, be, true)
	m = press(t, m, historyMsg{err: m.app.Panel().Refresh(context.Background())})

	m.input.SetValue("/open 1")
	m = press(t, m, key("enter"))

	assert.Equal(t, "abc123", m.app.ActiveSession())
	assert.Equal(t, "stored question", m.app.Session().Transcript()[0].Text)

	m.input.SetValue("/open 5")
	m = press(t, m, key("enter"))
	assert.True(t, m.noticeErr)
}

func TestOpenFailureKeepsTranscriptQuiet(t *testing.T) {
	be := &fakeBackend{
		entries: []models.HistoryEntry{{ID: "gone", Title: "Deleted elsewhere"}},
	}
	m := newTestModel(t, be, true)
	m = press(t, m, historyMsg{err: m.app.Panel().Refresh(context.Background())})

	m.input.SetValue("Q")
	m = press(t, m, key("enter"))
	before := m.app.Session().Transcript()
	require.Len(t, before, 2)
	activeBefore := m.app.ActiveSession()

	m.input.SetValue("/open 1")
	m = press(t, m, key("enter"))

	assert.Empty(t, m.notice)
	assert.False(t, m.noticeErr)
	assert.Equal(t, before, m.app.Session().Transcript())
	assert.Equal(t, activeBefore, m.app.ActiveSession())
}

func TestNewAndUnknownCommands(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, true)
	m.input.SetValue("Q")
	m = press(t, m, key("enter"))
	require.NotEmpty(t, m.app.Session().Transcript())

	m.input.SetValue("/new")
	m = press(t, m, key("enter"))
	assert.Empty(t, m.app.Session().Transcript())

	m.input.SetValue("/bogus")
	m = press(t, m, key("enter"))
	assert.Contains(t, m.notice, "Unknown command /bogus")
}

func TestLoginForm(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, false)
	m = press(t, m, key("l"))
	require.Equal(t, app.ViewLogin, m.app.View())
	require.Len(t, m.form, 2)

	m.form[0].SetValue("ada@example.com")
	m.form[1].SetValue("wrong")
	m.focusField(1)
	m = press(t, m, key("enter"))

	assert.Equal(t, app.ViewLogin, m.app.View())
	assert.Equal(t, "Invalid email or password", m.notice)

	m.form[1].SetValue("secret")
	m = press(t, m, key("enter"))

	assert.Equal(t, app.ViewChat, m.app.View())
	user, ok := m.app.User()
	require.True(t, ok)
	assert.Equal(t, "Ada", user.Name)
}

func TestLogoutCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, true)

	m.input.SetValue("/logout")
	m = press(t, m, key("enter"))

	assert.Equal(t, app.ViewHome, m.app.View())
	_, ok := m.app.User()
	assert.False(t, ok)
}

func TestLogoutCommandReportsStoreFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	m := newTestModelAt(t, &fakeBackend{}, true, filepath.Join(dir, "state.yaml"))

	// Replace the state directory with a file so the credential cannot be rewritten.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0o600))

	m.input.SetValue("/logout")
	m = press(t, m, key("enter"))

	assert.Equal(t, app.ViewHome, m.app.View())
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "logout")
}

func TestUploadModel(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(good, []byte("%PDF"), 0o600))

	be := &fakeBackend{}
	items := []UploadItem{
		{Path: good, Title: "A"},
		{Path: filepath.Join(dir, "missing.pdf"), Title: "B"},
	}
	m := newUploadModel(context.Background(), be, items)

	var model tea.Model = m
	for range items {
		um := model.(uploadModel)
		model, _ = model.Update(uploadDoneMsg(UploadOne(context.Background(), be, um.items[len(um.outcomes)])))
	}

	final := model.(uploadModel)
	require.True(t, final.done)
	require.Len(t, final.outcomes, 2)
	assert.NoError(t, final.outcomes[0].Err)
	assert.Equal(t, "job-A", final.outcomes[0].Result.JobID)
	assert.Error(t, final.outcomes[1].Err)

	summary := plain(final.summary())
	assert.Contains(t, summary, "✓ A (job job-A, completed)")
	assert.Contains(t, summary, "✗ B")
	assert.True(t, strings.HasSuffix(summary, "\n"))
}
