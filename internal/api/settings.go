package api

import (
	"context"
	"fmt"
)

const (
	MinCommentDepth     = 1
	MaxCommentDepth     = 10
	DefaultCommentDepth = 3
)

// ClampCommentDepth forces depth into [MinCommentDepth, MaxCommentDepth].
func ClampCommentDepth(depth int) int {
	return max(MinCommentDepth, min(MaxCommentDepth, depth))
}

// GetCommentDepth returns the configured maximum reply depth.
func (c *Client) GetCommentDepth(ctx context.Context) (int, error) {
	var setting CommentDepthSetting
	if err := c.get(ctx, "/settings/comment-depth", &setting); err != nil {
		return 0, fmt.Errorf("fetching comment depth: %w", err)
	}
	return ClampCommentDepth(setting.MaxCommentDepth), nil
}

// SetCommentDepth stores a new maximum reply depth and returns the value the
// server kept. Out-of-range input is clamped before sending. A reply without
// a depth is taken as accepting the value sent.
func (c *Client) SetCommentDepth(ctx context.Context, depth int) (int, error) {
	req := CommentDepthSetting{MaxCommentDepth: ClampCommentDepth(depth)}
	var setting CommentDepthSetting
	if err := c.patch(ctx, "/settings/comment-depth", req, &setting); err != nil {
		return 0, fmt.Errorf("saving comment depth: %w", err)
	}
	if setting.MaxCommentDepth == 0 {
		return req.MaxCommentDepth, nil
	}
	return ClampCommentDepth(setting.MaxCommentDepth), nil
}
