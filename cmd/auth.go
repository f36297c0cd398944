package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the login session",
	}

	cmd.AddCommand(
		newAuthLoginCmd(app),
		newAuthLogoutCmd(app),
		newAuthStatusCmd(app),
		newAuthRegisterCmd(app),
	)

	return cmd
}

func newAuthLoginCmd(app *app) *cobra.Command {
	var email string
	var password string
	var passwordStdin bool
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password, or store an issued token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status domain.LoginStatus
			var err error

			switch {
			case token != "":
				if email != "" || password != "" || passwordStdin {
					return errors.New("--token cannot be combined with --email or --password")
				}
				status, err = app.auth.LoginWithToken(cmd.Context(), token)
			default:
				if email == "" {
					return errors.New("--email is required unless --token is set")
				}
				if passwordStdin {
					password, err = readPassword(cmd.InOrStdin())
					if err != nil {
						return err
					}
				}
				status, err = app.auth.Login(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			writeLoginStatus(cmd.OutOrStdout(), status, app.now())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&token, "token", "", "Store an already issued access token")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func newAuthLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.auth.Logout(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := app.auth.Status(cmd.Context())
			if err != nil {
				return err
			}

			writeLoginStatus(cmd.OutOrStdout(), status, app.now())
			return nil
		},
	}
}

func newAuthRegisterCmd(app *app) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := app.auth.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s (id %d)\n", user.Email, user.ID)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "run `px auth login --email "+user.Email+"` to sign in")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func writeLoginStatus(w io.Writer, status domain.LoginStatus, now time.Time) {
	if !status.LoggedIn {
		_, _ = fmt.Fprintln(w, color.YellowString("not logged in"))
		return
	}

	email := status.Email
	if email == "" {
		email = "(unknown email)"
	}
	_, _ = fmt.Fprintf(w, "account: %s\n", color.New(color.Bold).Sprint(email))
	if status.Subject != "" {
		_, _ = fmt.Fprintf(w, "subject: %s\n", status.Subject)
	}

	switch {
	case status.ExpiresAt.IsZero():
		_, _ = fmt.Fprintln(w, "expires: never")
	case status.Expired:
		_, _ = fmt.Fprintln(w, color.RedString("expires: expired at %s", status.ExpiresAt.Format(time.RFC3339)))
	default:
		remaining := status.ExpiresAt.Sub(now).Round(time.Minute)
		_, _ = fmt.Fprintf(w, "expires: %s (in %s)\n", status.ExpiresAt.Format(time.RFC3339), remaining)
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
