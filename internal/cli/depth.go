package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newDepthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depth",
		Short: "Show or change the maximum comment depth",
		Long:  fmt.Sprintf("Comments at the maximum depth cannot be replied to. The setting ranges from %d to %d.", api.MinCommentDepth, api.MaxCommentDepth),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the maximum comment depth",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDepth(cmd.Context(), cmd.OutOrStdout(), 0)
			},
		},
		&cobra.Command{
			Use:   "set <n>",
			Short: "Set the maximum comment depth",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid depth: %s", args[0])
				}
				if n != api.ClampCommentDepth(n) {
					return fmt.Errorf("depth must be between %d and %d", api.MinCommentDepth, api.MaxCommentDepth)
				}
				return runDepth(cmd.Context(), cmd.OutOrStdout(), n)
			},
		},
	)
	return cmd
}

// runDepth prints the setting, first saving n when it is non-zero.
func runDepth(ctx context.Context, w io.Writer, n int) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	var depth int
	if n != 0 {
		depth, err = e.client.SetCommentDepth(ctx, n)
	} else {
		depth, err = e.client.GetCommentDepth(ctx)
	}
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, api.CommentDepthSetting{MaxCommentDepth: depth})
	}
	fmt.Fprintf(w, "Max comment depth: %d\n", depth)
	return nil
}
