package cli

import (
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List indexed documents",
	Long: `List the documents indexed on the backend.

Examples:
  kbchat documents
  kbchat documents show 42`,
	Args: cobra.NoArgs,
	RunE: runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one indexed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

func init() {
	documentsCmd.AddCommand(documentsShowCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	docs, err := s.client.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents indexed yet. Use 'kbchat upload' to add one.")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	for _, d := range docs {
		fmt.Fprintf(w, "  %s  %s\n", hintStyle.Render(d.ID), d.Title)
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	doc, err := s.client.GetDocument(cmd.Context(), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("document not found: %s", args[0])
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ID:    %s\n", doc.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Title: %s\n", doc.Title)
	return nil
}
