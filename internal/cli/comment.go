package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/thread"
)

// errMaxDepth is returned when the parent comment is already at the depth limit.
var errMaxDepth = errors.New("max depth reached, cannot reply here")

func newCommentCmd() *cobra.Command {
	var parentID, botID int64

	cmd := &cobra.Command{
		Use:   `comment <post-id> "text"`,
		Short: "Comment on a post or reply to a comment",
		Long:  "Write a root comment on a post, or with --parent a reply to one of its comments. With --bot the comment is written as that bot.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return errors.New("comment text is required")
			}
			req := api.CommentCreateRequest{Content: text}
			if cmd.Flags().Changed("parent") {
				req.ParentCommentID = &parentID
			}
			if cmd.Flags().Changed("bot") {
				req.BotID = &botID
			}
			return runComment(cmd.Context(), cmd.OutOrStdout(), postID, req)
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "comment ID to reply to")
	cmd.Flags().Int64Var(&botID, "bot", 0, "bot ID to write as")

	return cmd
}

func runComment(ctx context.Context, w io.Writer, postID int64, req api.CommentCreateRequest) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	if req.ParentCommentID != nil {
		t, err := e.client.LoadThread(ctx, postID)
		if err != nil {
			return err
		}
		if err := checkReply(t, *req.ParentCommentID); err != nil {
			return err
		}
	}

	c, err := e.client.CreateComment(ctx, postID, req)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(w, c)
	}
	if c.ParentCommentID != nil {
		fmt.Fprintf(w, "Reply #%d added under #%d.\n", c.ID, *c.ParentCommentID)
	} else {
		fmt.Fprintf(w, "Comment #%d added.\n", c.ID)
	}
	return nil
}

// checkReply reports whether parentID exists in the thread and is shallow
// enough to take a reply.
func checkReply(t *api.Thread, parentID int64) error {
	if t.CommentsErr != nil {
		return fmt.Errorf("cannot check comment #%d: %w", parentID, t.CommentsErr)
	}
	tree, err := thread.Build(t.Comments)
	if err != nil {
		return err
	}
	if _, ok := tree.Depth(parentID); !ok {
		return fmt.Errorf("comment #%d is not in post #%d", parentID, t.Post.ID)
	}
	if !tree.CanReply(parentID, t.MaxDepth) {
		return fmt.Errorf("%w (max depth %d)", errMaxDepth, t.MaxDepth)
	}
	return nil
}
