package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportChat string

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export saved chats to Markdown files",
	Long: `Export saved chats to Markdown files for backup or sharing.

Each chat is written to <path>/<id>.md with its metadata in frontmatter.

Examples:
  kbchat export ./chats
  kbchat export ./chats --chat 6651f0c2`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportChat, "chat", "", "export a single chat by id")
}

// exportFrontmatter is the metadata header of an exported chat.
type exportFrontmatter struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Messages  int       `yaml:"messages"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	exportPath := args[0]
	ctx := cmd.Context()

	s, err := getServices()
	if err != nil {
		return err
	}
	if err := requireLogin(s, "export chats"); err != nil {
		return errors.New(chat.Notice(err))
	}

	ids := []string{exportChat}
	if exportChat == "" {
		entries, err := s.client.ListHistory(ctx)
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No chats to export.")
		return nil
	}

	if err := os.MkdirAll(exportPath, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exporting %d chats...\n", len(ids))

	exported := 0
	for _, id := range ids {
		session, err := s.client.GetHistory(ctx, id)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to fetch chat %s: %v\n", id, err)
			continue
		}
		if session.ID == "" {
			session.ID = id
		}

		content, err := exportMarkdown(session)
		if err != nil {
			return err
		}
		filename := filepath.Join(exportPath, id+".md")
		if err := os.WriteFile(filename, content, 0o644); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to write %s: %v\n", filename, err)
			continue
		}
		exported++

		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  Exported: %s\n", filename)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nExported %d chats to %s\n", exported, exportPath)
	return nil
}

// exportMarkdown renders a chat as Markdown with YAML frontmatter.
func exportMarkdown(session *models.Session) ([]byte, error) {
	title := session.Title
	if title == "" {
		title = chat.SessionTitle(session.Messages)
	}

	meta, err := yaml.Marshal(exportFrontmatter{
		ID:        session.ID,
		Title:     title,
		Messages:  len(session.Messages),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n", title)

	for _, msg := range session.Messages {
		if msg.IsUser {
			fmt.Fprintf(&buf, "\n## You\n\n%s\n", msg.Text)
			continue
		}
		fmt.Fprintf(&buf, "\n## Assistant\n\n%s\n", msg.Text)
		if len(msg.Sources) > 0 {
			buf.WriteString("\nSources:\n\n")
			for i, src := range msg.Sources {
				fmt.Fprintf(&buf, "%d. %s, p. %d (score %.2f)\n", i+1, src.DocTitle, src.Page, src.Score)
			}
		}
	}
	return buf.Bytes(), nil
}
