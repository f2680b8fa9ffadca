package api

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Thread is everything the post view needs in one round.
type Thread struct {
	Post     *Post
	Comments []*Comment
	// CommentsErr is set when the comments could not be fetched, in which
	// case Comments is empty rather than known to be empty.
	CommentsErr error
	Bots        []*Bot
	MaxDepth    int
}

// LoadThread fetches a post, its comments, the user's bots and the depth
// setting concurrently. Only a failure to load the post is fatal; the other
// parts fall back to empty values and the default depth.
func (c *Client) LoadThread(ctx context.Context, postID int64) (*Thread, error) {
	t := &Thread{MaxDepth: DefaultCommentDepth}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		post, err := c.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		t.Post = post
		return nil
	})
	g.Go(func() error {
		comments, err := c.ListComments(ctx, postID)
		if err != nil {
			slog.Warn("loading comments", "post_id", postID, "error", err)
			t.CommentsErr = fmt.Errorf("loading comments: %w", err)
			return nil
		}
		t.Comments = comments
		return nil
	})
	g.Go(func() error {
		bots, err := c.ListBots(ctx)
		if err != nil {
			slog.Warn("loading bots", "error", err)
			return nil
		}
		t.Bots = bots
		return nil
	})
	g.Go(func() error {
		depth, err := c.GetCommentDepth(ctx)
		if err != nil {
			slog.Warn("loading comment depth", "error", err)
			return nil
		}
		t.MaxDepth = depth
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}
