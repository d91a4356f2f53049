package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/tui"
	"github.com/spf13/cobra"
)

var uploadTitle string

var uploadCmd = &cobra.Command{
	Use:   "upload <file|glob>...",
	Short: "Upload PDF documents",
	Long: `Upload PDF documents so their content can be searched.

Arguments may be file paths or glob patterns (** matches directories
recursively). Each document is titled after its file name unless --title is
given, which is only allowed for a single file. Non-PDF files are skipped.

Examples:
  kbchat upload manual.pdf --title "User Manual"
  kbchat upload "docs/**/*.pdf"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "document title (single file only)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}
	if err := requireLogin(s, "upload documents"); err != nil {
		return errors.New(chat.Notice(err))
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	var items []tui.UploadItem
	for _, p := range paths {
		if !(models.FileBlob{Name: p}).IsPDF() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: not a PDF\n", p)
			continue
		}
		items = append(items, tui.UploadItem{Path: p, Title: titleFromPath(p)})
	}
	if len(items) == 0 {
		return errors.New(chat.NoticeNotPDF)
	}
	if uploadTitle != "" {
		if len(items) > 1 {
			return fmt.Errorf("--title can only be used with a single file (got %d)", len(items))
		}
		items[0].Title = uploadTitle
	}

	ctx := cmd.Context()
	var outcomes []tui.UploadOutcome
	if interactive() && len(items) > 1 {
		outcomes, err = tui.RunUploads(ctx, s.client, items)
		if err != nil {
			return err
		}
	} else {
		for _, item := range items {
			o := tui.UploadOne(ctx, s.client, item)
			fmt.Fprintln(cmd.OutOrStdout(), tui.FormatOutcome(o, tui.DefaultTheme))
			outcomes = append(outcomes, o)
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(items))
	}
	return nil
}

// expandPaths resolves glob patterns. Plain paths are kept as given.
func expandPaths(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// titleFromPath names a document after its file.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
