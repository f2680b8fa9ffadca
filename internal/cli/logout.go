package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout())
		},
	}
}

func runLogout(w io.Writer) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.session.LoggedIn() {
		fmt.Fprintln(w, "Not logged in.")
		return nil
	}
	if err := e.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Logged out. Token removed.")
	return nil
}
