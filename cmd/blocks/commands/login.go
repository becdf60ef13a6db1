package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/blocks-sdk/internal/auth"
	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		accessToken  string
		refreshToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long: `Store an access token used as the bearer token for every block.

Without --token the token is read from the terminal without echo, or from
standard input when it is not a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				token, err := promptToken(cmd)
				if err != nil {
					return err
				}

				accessToken = token
			}

			token, err := auth.NewToken(accessToken, refreshToken)
			if err != nil {
				return err
			}

			manager, closeStore, err := newTokenManager(loadConfig())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := manager.SetToken(cmd.Context(), token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}

			out := cmd.OutOrStdout()
			if token.ExpiresAt.IsZero() {
				_, _ = fmt.Fprintln(out, "Logged in")
			} else {
				_, _ = fmt.Fprintf(out, "Logged in, token expires at %s\n", token.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "token", "", "access token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := newTokenManager(loadConfig())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := manager.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func promptToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

		raw, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", constants.ErrEmptyToken
	}

	return line, nil
}
