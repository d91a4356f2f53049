package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/spf13/cobra"
)

var (
	askSession string
	askTopK    int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Ask a question and get an answer generated from your uploaded documents,
with the source passages it was based on.

The question and answer are saved to your history. With --session the saved
chat is loaded first and its id is sent with the save, so a backend that
updates stored chats in place keeps a single record. A backend that always
inserts stores the continued chat as a new record.

Examples:
  kbchat ask "What is the warranty period?"
  kbchat ask "And for spare parts?" --session 65f1c2...`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "load a saved chat and send its id when saving")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK > 0 {
		cfg.TopK = askTopK
	}
	s, err := getServices()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if askSession != "" {
		if err := s.session.Load(ctx, askSession); err != nil {
			if errors.Is(err, chat.ErrLoginRequired) {
				return errors.New(chat.Notice(err))
			}
			return fmt.Errorf("open chat %s: %w", askSession, err)
		}
	}

	err = s.session.Submit(ctx, args[0])
	if errors.Is(err, chat.ErrValidation) || errors.Is(err, chat.ErrLoginRequired) {
		return errors.New(chat.Notice(err))
	}

	// A failed search is recorded as the answer; print it either way.
	transcript := s.session.Transcript()
	if len(transcript) == 0 {
		return err
	}
	printMessage(cmd.OutOrStdout(), transcript[len(transcript)-1], outputWidth())

	if id := s.session.SessionID(); id != "" {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render("Saved as chat "+id))
	}
	return err
}
