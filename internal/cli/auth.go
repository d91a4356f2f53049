package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authEmail    string
	authPassword string
	authName     string
	whoamiVerify bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your account",
	Long: `Sign in and store the access token for later commands.

The password is read from the terminal without echo unless --password is given.

Examples:
  kbchat login --email ada@example.com
  echo "$PASSWORD" | kbchat login --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:     "register",
	Aliases: []string{"signup"},
	Short:   "Create an account",
	Long: `Create an account and sign in.

Examples:
  kbchat register --name Ada --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the signed-in user.

With --verify the stored token is checked against the backend.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prompted when omitted)")
	}
	registerCmd.Flags().StringVarP(&authName, "name", "n", "", "display name")
	whoamiCmd.Flags().BoolVar(&whoamiVerify, "verify", false, "check the token with the backend")
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	email, err := promptValue(cmd, in, "Email", authEmail)
	if err != nil {
		return err
	}
	password, err := promptPassword(cmd, in, authPassword)
	if err != nil {
		return err
	}

	if err := s.app.Login(cmd.Context(), email, password); err != nil {
		return authError(err)
	}

	user, _ := s.app.User()
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(user.Name, user.Email))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	name, err := promptValue(cmd, in, "Name", authName)
	if err != nil {
		return err
	}
	email, err := promptValue(cmd, in, "Email", authEmail)
	if err != nil {
		return err
	}
	password, err := promptPassword(cmd, in, authPassword)
	if err != nil {
		return err
	}

	if err := s.app.Register(cmd.Context(), email, password, name); err != nil {
		return authError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Account created. Signed in as %s\n", displayName(name, email))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}
	if err := s.app.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	s, err := getServices()
	if err != nil {
		return err
	}

	cred, ok := s.creds.Get()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", displayName(cred.User.Name, cred.User.Email), cred.User.Email)
	if !whoamiVerify {
		return nil
	}

	valid, err := s.client.VerifyToken(cmd.Context(), cred.Token)
	if err != nil {
		return err
	}
	if valid {
		fmt.Fprintln(cmd.OutOrStdout(), "Token: valid")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Token: rejected by the server, run 'kbchat login' again")
	}
	return nil
}

// promptValue returns flagValue, or asks for it on the terminal.
func promptValue(cmd *cobra.Command, in *bufio.Reader, label, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command, in *bufio.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return promptValue(cmd, in, "Password", "")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// authError turns a backend rejection into a readable message.
func authError(err error) error {
	var se *client.StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return errors.New(se.Detail)
	}
	return err
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
