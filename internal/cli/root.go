// Package cli provides the command-line interface for kbchat.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/raphaelgruber/kbchat/internal/app"
	"github.com/raphaelgruber/kbchat/internal/chat"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/config"
	"github.com/raphaelgruber/kbchat/internal/credentials"
	"github.com/raphaelgruber/kbchat/internal/history"
	"github.com/raphaelgruber/kbchat/internal/kvstore"
	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	apiURL  string

	// Global config and logger
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error

	deps     *services
	depsOnce sync.Once
	depsErr  error
)

// services are the components shared by all commands.
type services struct {
	kv      *kvstore.Store
	creds   *credentials.Store
	metrics *metrics.Collector
	client  *client.Client
	session *chat.Controller
	panel   *history.Panel
	app     *app.App
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kbchat",
	Short: "Chat with your documents",
	Long: `kbchat is a terminal client for a document question-answering service.

Upload PDFs, ask questions in plain language and get answers with cited
source passages. Conversations are saved to your account and can be
resumed later.

Run without arguments in a terminal to open the interactive chat.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		// The chat UI owns the terminal, so it logs to the file only.
		if usesTUI(cmd) {
			logger, closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
		} else {
			logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !interactive() {
			return cmd.Help()
		}
		return runChat(cmd, args)
	},
}

// getServices builds the shared components on first use.
func getServices() (*services, error) {
	depsOnce.Do(func() {
		kv, err := kvstore.Open(cfg.StateFile)
		if err != nil {
			depsErr = fmt.Errorf("open state file: %w", err)
			return
		}

		creds := credentials.NewStore(kv, logger)
		collector := metrics.NewCollector()
		c := client.New(cfg.APIURL, client.Options{
			Tokens:      creds,
			Timeout:     cfg.ClientTimeout,
			SlowRequest: cfg.SlowRequest,
			Logger:      logger,
			Metrics:     collector,
		})
		session := chat.NewController(c, creds, chat.Options{TopK: cfg.TopK, Logger: logger})
		panel := history.NewPanel(c, creds, session, logger)

		deps = &services{
			kv:      kv,
			creds:   creds,
			metrics: collector,
			client:  c,
			session: session,
			panel:   panel,
			app: app.New(app.Deps{
				Auth:    c,
				Creds:   creds,
				Session: session,
				Panel:   panel,
				Logger:  logger,
			}),
		}
	})
	return deps, depsErr
}

// usesTUI reports whether cmd takes over the terminal.
func usesTUI(cmd *cobra.Command) bool {
	if cmd.Name() == "chat" {
		return true
	}
	return !cmd.HasParent() && interactive()
}

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// requireLogin fails with a login-required error for action when signed out.
func requireLogin(s *services, action string) error {
	if _, ok := s.creds.Get(); !ok {
		return &chat.LoginRequiredError{Action: action}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend URL (overrides KBCHAT_API_URL)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(chatCmd)
}
