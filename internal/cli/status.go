package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks whether the saved token is still valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

type statusReport struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	LoggedIn  bool   `json:"logged_in"`
	User      string `json:"user,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runStatus(ctx context.Context, w io.Writer) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	report := statusReport{Server: e.cfg.ServerURL}
	if err := e.client.Health(ctx); err != nil {
		report.Error = err.Error()
	} else {
		report.Reachable = true
	}

	if report.Reachable && e.session.LoggedIn() {
		err := e.session.Validate(ctx)
		switch {
		case err == nil:
			report.LoggedIn = true
			report.User = e.session.Username()
		case errors.Is(err, api.ErrUnauthorized):
			report.Error = "saved token was rejected and has been removed"
		default:
			report.Error = err.Error()
		}
	}

	if isJSON() {
		return printJSON(w, report)
	}

	fmt.Fprintf(w, "Server:  %s\n", report.Server)
	switch {
	case !report.Reachable:
		fmt.Fprintf(w, "Status:  ✗ cannot reach server (%s)\n", report.Error)
	case report.LoggedIn:
		fmt.Fprintf(w, "Status:  ✓ connected as %s\n", report.User)
	case report.Error != "":
		fmt.Fprintf(w, "Status:  ✗ %s\n", report.Error)
		fmt.Fprintln(w, "\nRun 'hams login' to re-authenticate.")
	default:
		fmt.Fprintln(w, "Status:  ✓ connected, not logged in")
		fmt.Fprintln(w, "\nRun 'hams login' to authenticate.")
	}
	return nil
}
