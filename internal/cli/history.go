package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/history"
	"github.com/spf13/cobra"
)

var historyForce bool

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"chats"},
	Short:   "List saved chats",
	Long: `List, show and delete the chats saved to your account.

Examples:
  kbchat history
  kbchat history show 6651f0c2
  kbchat history delete 6651f0c2 --force`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved chat",
	Long: `Delete a saved chat from your account.

Requires confirmation unless --force is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryDelete,
}

func init() {
	historyDeleteCmd.Flags().BoolVarP(&historyForce, "force", "f", false, "skip confirmation")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}
	if err := requireLogin(s, "view history"); err != nil {
		return errors.New(chat.Notice(err))
	}

	if err := s.panel.Refresh(cmd.Context()); err != nil {
		return err
	}
	entries := s.panel.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved chats.")
		return nil
	}

	w := cmd.OutOrStdout()
	now := time.Now()
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Saved chats (%d)", len(entries))))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", hintStyle.Render(e.ID), history.FormatEntry(e, 48, now))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	if err := s.session.Load(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, chat.ErrLoginRequired) {
			return errors.New(chat.Notice(err))
		}
		if client.IsNotFound(err) {
			return fmt.Errorf("chat not found: %s", args[0])
		}
		return err
	}

	transcript := s.session.Transcript()
	if len(transcript) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "This chat is empty.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render(chat.SessionTitle(transcript)))
	fmt.Fprintln(cmd.OutOrStdout())
	printTranscript(cmd.OutOrStdout(), transcript, outputWidth())
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	s, err := getServices()
	if err != nil {
		return err
	}
	if err := requireLogin(s, "delete chats"); err != nil {
		return errors.New(chat.Notice(err))
	}

	if !historyForce {
		fmt.Fprintf(cmd.OutOrStdout(), "About to delete chat %s\n", id)
		fmt.Fprint(cmd.OutOrStdout(), "\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := s.panel.Delete(cmd.Context(), id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("chat not found or already deleted: %s", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted chat %s\n", id)
	return nil
}
