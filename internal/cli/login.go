package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the access token",
		Long:  "Logs in with email and password. The password is read from HAMS_PASSWORD or the first line of stdin when --password is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("HAMS_PASSWORD")
			}
			if password == "" {
				var err error
				password, err = readLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
			}
			return runLogin(cmd.Context(), cmd.OutOrStdout(), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(ctx context.Context, w io.Writer, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.session.Login(ctx, email, password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("login failed: wrong email or password")
		}
		return err
	}

	if isJSON() {
		return printJSON(w, e.session.User())
	}
	fmt.Fprintf(w, "✓ Logged in as %s.\n", e.session.Username())
	return nil
}

func readLine(r io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
