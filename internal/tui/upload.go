package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Uploader sends one document to the backend.
type Uploader interface {
	Upload(ctx context.Context, file models.FileBlob, title string) (*client.UploadResult, error)
}

// UploadItem is one file of a batch upload.
type UploadItem struct {
	Path  string
	Title string
}

// UploadOutcome is the result of uploading one item.
type UploadOutcome struct {
	Item   UploadItem
	Result *client.UploadResult
	Err    error
}

// UploadOne opens item and uploads it.
func UploadOne(ctx context.Context, up Uploader, item UploadItem) UploadOutcome {
	blob, f, err := models.OpenFile(item.Path)
	if err != nil {
		return UploadOutcome{Item: item, Err: err}
	}
	defer f.Close()

	result, err := up.Upload(ctx, blob, item.Title)
	return UploadOutcome{Item: item, Result: result, Err: err}
}

// uploadDoneMsg carries the outcome of the current item.
type uploadDoneMsg UploadOutcome

// uploadModel is the bubbletea model for batch upload progress.
type uploadModel struct {
	ctx      context.Context
	uploader Uploader
	items    []UploadItem
	outcomes []UploadOutcome
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
}

func newUploadModel(ctx context.Context, up Uploader, items []UploadItem) uploadModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return uploadModel{
		ctx:      ctx,
		uploader: up,
		items:    items,
		progress: prog,
		theme:    DefaultTheme,
	}
}

// Init starts the first upload.
func (m uploadModel) Init() tea.Cmd {
	if len(m.items) == 0 {
		return tea.Quit
	}
	return tea.Batch(m.next(), m.progress.Init())
}

// Update handles messages and returns the updated model.
func (m uploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case uploadDoneMsg:
		m.outcomes = append(m.outcomes, UploadOutcome(msg))
		cmd := m.progress.SetPercent(float64(len(m.outcomes)) / float64(len(m.items)))
		if len(m.outcomes) == len(m.items) {
			m.done = true
			return m, tea.Quit
		}
		return m, tea.Batch(cmd, m.next())

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// next uploads the next pending item off the update loop.
func (m uploadModel) next() tea.Cmd {
	item := m.items[len(m.outcomes)]
	ctx, up := m.ctx, m.uploader
	return func() tea.Msg {
		return uploadDoneMsg(UploadOne(ctx, up, item))
	}
}

// View renders the progress display.
func (m uploadModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m uploadModel) renderContent() string {
	if m.done || m.quitting {
		return m.summary()
	}

	current := m.items[len(m.outcomes)]
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", current.Title))
	counts := fmt.Sprintf("%d/%d files", len(m.outcomes), len(m.items))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop after the current file")

	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.View(), counts, hint)
}

// summary lists every outcome once the batch has finished.
func (m uploadModel) summary() string {
	var b strings.Builder
	for _, o := range m.outcomes {
		b.WriteString(FormatOutcome(o, m.theme))
		b.WriteString("\n")
	}
	if m.quitting && len(m.outcomes) < len(m.items) {
		b.WriteString(m.theme.hintStyle().Render(
			fmt.Sprintf("Stopped: %d of %d files not uploaded.", len(m.items)-len(m.outcomes), len(m.items))))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatOutcome renders one upload result line.
func FormatOutcome(o UploadOutcome, theme Theme) string {
	if o.Err != nil {
		return theme.errorStyle().Render("✗ "+o.Item.Title) + " " + theme.hintStyle().Render(o.Err.Error())
	}
	line := theme.successStyle().Render("✓ " + o.Item.Title)
	if o.Result != nil && o.Result.JobID != "" {
		line += " " + theme.hintStyle().Render(fmt.Sprintf("(job %s, %s)", o.Result.JobID, o.Result.Status))
	}
	return line
}

// RunUploads uploads items one after another with an interactive progress bar.
// Items after a Ctrl+C are skipped and missing from the returned outcomes.
func RunUploads(ctx context.Context, up Uploader, items []UploadItem) ([]UploadOutcome, error) {
	p := tea.NewProgram(newUploadModel(ctx, up, items), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := finalModel.(uploadModel); ok {
		return m.outcomes, nil
	}
	return nil, nil
}
