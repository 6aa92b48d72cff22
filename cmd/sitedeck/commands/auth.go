package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command. The password is read from
// stdin so it never appears in the process list or shell history.
func NewLoginCommand(global *globalOptions) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Example: `  echo "$SITEDECK_PASSWORD" | sitedeck login --email admin@example.com --password-stdin`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			password, err := readLine(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.authn.Login(ctx, strings.TrimSpace(email), password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			u, _ := a.authn.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// NewLogoutCommand creates the logout command, which forgets stored tokens.
func NewLogoutCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.authn.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.requireUser()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email: %s\n", u.Email)
			if u.Name != "" {
				fmt.Fprintf(out, "Name:  %s\n", u.Name)
			}
			if u.Role != "" {
				fmt.Fprintf(out, "Role:  %s\n", u.Role)
			}
			return nil
		},
	}
}

func readLine(cmd *cobra.Command) (string, error) {
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", fmt.Errorf("no password on stdin")
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}
