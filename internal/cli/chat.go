package cli

import (
	"github.com/raphaelgruber/kbchat/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open the interactive chat in full-screen mode.

Type a question and press enter. Commands start with a slash; type /help
inside the chat for the list. Logs go to the log file while the chat is open.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), s.app, tui.Options{Metrics: s.metrics})
}
