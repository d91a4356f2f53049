package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.txt", "nested/deep/c.pdf")

	t.Run("plain path", func(t *testing.T) {
		paths, err := expandPaths([]string{filepath.Join(dir, "a.pdf")})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.pdf")}, paths)
	})

	t.Run("recursive glob", func(t *testing.T) {
		paths, err := expandPaths([]string{filepath.Join(dir, "**", "*.pdf")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.pdf"),
			filepath.Join(dir, "nested", "deep", "c.pdf"),
		}, paths)
	})

	t.Run("duplicates removed", func(t *testing.T) {
		paths, err := expandPaths([]string{
			filepath.Join(dir, "a.pdf"),
			filepath.Join(dir, "*.pdf"),
		})
		require.NoError(t, err)
		assert.Len(t, paths, 1)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := expandPaths([]string{filepath.Join(dir, "*.docx")})
		assert.ErrorContains(t, err, "no files match")
	})
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"manual.pdf", "manual"},
		{"/docs/Q3 Report.PDF", "Q3 Report"},
		{"archive.tar.pdf", "archive.tar"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFromPath(tt.path))
		})
	}
}

func TestPrintTranscript(t *testing.T) {
	msgs := []models.Message{
		models.UserMessage("What is the refund window?"),
		models.BotMessage("Refunds are accepted within **30 days**.", []models.Source{
			{DocTitle: "Policy", Page: 4, Score: 0.91},
			{DocTitle: "FAQ", Page: 1, Score: 0.5},
		}),
	}

	var buf bytes.Buffer
	printTranscript(&buf, msgs, 80)
	out := buf.String()

	assert.Contains(t, out, "What is the refund window?")
	assert.Contains(t, out, "30 days")
	assert.Contains(t, out, "[1] Policy, p. 4")
	assert.Contains(t, out, "[2] FAQ, p. 1")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Policy")), bytes.Index(buf.Bytes(), []byte("FAQ")))
}

func TestPrintMessageWithoutSources(t *testing.T) {
	var buf bytes.Buffer
	printMessage(&buf, models.BotMessage("No sources here.", nil), 80)
	assert.NotContains(t, buf.String(), "Sources:")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", displayName("Ada", "ada@example.com"))
	assert.Equal(t, "ada@example.com", displayName("", "ada@example.com"))
}

func TestExportMarkdown(t *testing.T) {
	session := &models.Session{
		ID: "s1",
		Messages: []models.Message{
			models.UserMessage("What is the refund window?"),
			models.BotMessage("30 days.", []models.Source{{DocTitle: "Policy", Page: 4, Score: 0.91}}),
		},
	}

	out, err := exportMarkdown(session)
	require.NoError(t, err)
	text := string(out)

	assert.True(t, bytes.HasPrefix(out, []byte("---\nid: s1\n")))
	assert.Contains(t, text, "\ntitle: ")
	assert.Contains(t, text, "messages: 2")
	assert.Contains(t, text, "# What is the refund window?")
	assert.Contains(t, text, "## You\n\nWhat is the refund window?")
	assert.Contains(t, text, "## Assistant\n\n30 days.")
	assert.Contains(t, text, "1. Policy, p. 4 (score 0.91)")
}

func TestExportMarkdownKeepsStoredTitle(t *testing.T) {
	out, err := exportMarkdown(&models.Session{ID: "s2", Title: "Refunds"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "# Refunds\n")
}

func TestAskHelpDescribesSessionSave(t *testing.T) {
	assert.Contains(t, askCmd.Long, "its id is sent with the save")
	assert.Contains(t, askCmd.Long, "always\ninserts stores the continued chat as a new record")
	assert.NotContains(t, askCmd.Long, "appended")
}
