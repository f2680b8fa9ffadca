package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, show and delete posts",
	}
	cmd.AddCommand(newPostsListCmd(), newPostsShowCmd(), newPostsDeleteCmd())
	return cmd
}

func newPostsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Long:  "List posts, newest first, optionally limited to one category. Falls back to the cached list when the server cannot be reached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostsList(cmd.Context(), cmd.OutOrStdout(), api.Category(category))
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category to show (경제|문화|연예|유머)")

	return cmd
}

func runPostsList(ctx context.Context, w io.Writer, category api.Category) error {
	if category != "" && !slices.Contains(api.Categories, category) {
		return fmt.Errorf("unknown category %q", category)
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	posts, err := e.client.ListPosts(ctx)
	if err != nil {
		cached, _, cerr := e.db.GetPosts(0)
		if cerr != nil || len(cached) == 0 {
			return err
		}
		slog.Warn("listing posts, showing cache", "error", err)
		fmt.Fprintf(w, "(offline, showing cached posts: %v)\n\n", err)
		posts = cached
	} else if err := e.db.PutPosts(posts); err != nil {
		slog.Warn("caching posts", "error", err)
	}

	if category != "" {
		posts = slices.DeleteFunc(slices.Clone(posts), func(p *api.Post) bool { return p.Category != category })
	}

	if isJSON() {
		return printJSON(w, posts)
	}
	return printPostTable(w, posts, time.Now())
}

func newPostsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post and its comment thread",
		Long:  "Show a post with its comments as an indented tree. Comments that have reached the maximum depth are marked; they cannot be replied to.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			return runPostsShow(cmd.Context(), cmd.OutOrStdout(), id)
		},
	}
}

func runPostsShow(ctx context.Context, w io.Writer, id int64) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.client.LoadThread(ctx, id)
	if err != nil {
		return err
	}
	if t.CommentsErr != nil {
		return fmt.Errorf("comments cannot be shown: %w", t.CommentsErr)
	}

	v, err := buildThreadView(t)
	if err != nil {
		return fmt.Errorf("comments cannot be shown: %w", err)
	}
	if isJSON() {
		return printJSON(w, v)
	}
	printThread(w, v, time.Now())
	return nil
}

func newPostsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post")
			if err != nil {
				return err
			}
			return runPostsDelete(cmd.Context(), cmd.OutOrStdout(), id)
		},
	}
}

func runPostsDelete(ctx context.Context, w io.Writer, id int64) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	if err := e.client.DeletePost(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("post #%d not found", id)
		}
		return err
	}
	if err := e.db.DeletePost(id); err != nil {
		slog.Warn("removing cached post", "id", id, "error", err)
	}
	fmt.Fprintf(w, "✓ Post #%d deleted.\n", id)
	return nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}
