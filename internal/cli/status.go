package cli

import (
	"fmt"
	"io"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend and your session",
	Long: `Check that the backend is reachable and that the stored login is
still accepted, then print request timings.

Examples:
  kbchat status
  kbchat status --api-url http://localhost:8000`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Backend: %s\n", cfg.APIURL)
	healthErr := s.client.Health(ctx)
	if healthErr != nil {
		fmt.Fprintf(w, "  Health: unreachable (%v)\n", healthErr)
	} else {
		fmt.Fprintln(w, "  Health: ok")
	}

	cred, ok := s.creds.Get()
	switch {
	case !ok:
		fmt.Fprintln(w, "  Login:  not logged in")
	case healthErr != nil:
		fmt.Fprintf(w, "  Login:  %s (not verified)\n", displayName(cred.User.Name, cred.User.Email))
	default:
		valid, err := s.client.VerifyToken(ctx, cred.Token)
		switch {
		case err != nil:
			fmt.Fprintf(w, "  Login:  %s (verify failed: %v)\n", displayName(cred.User.Name, cred.User.Email), err)
		case valid:
			fmt.Fprintf(w, "  Login:  %s\n", displayName(cred.User.Name, cred.User.Email))
		default:
			fmt.Fprintf(w, "  Login:  %s (token rejected, run 'kbchat login')\n", displayName(cred.User.Name, cred.User.Email))
		}
	}

	snap := s.metrics.Snapshot()
	if len(snap.Operations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requests:")
		for _, op := range snap.Operations {
			printOpStats(w, op)
		}
	}

	return healthErr
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  %-15s calls %d, errors %d, avg %.1fms, min %dms, max %dms\n",
		op.Name, op.Count, op.Errors, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
