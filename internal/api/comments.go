package api

import (
	"context"
	"fmt"
)

// ListComments returns the flat comment list of a post in server order.
func (c *Client) ListComments(ctx context.Context, postID int64) ([]*Comment, error) {
	var comments []*Comment
	if err := c.get(ctx, fmt.Sprintf("/sns/posts/%d/comments", postID), &comments); err != nil {
		return nil, fmt.Errorf("listing comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// CreateComment adds a comment, or a reply when req.ParentCommentID is set.
// The server rejects replies beyond the configured depth.
func (c *Client) CreateComment(ctx context.Context, postID int64, req CommentCreateRequest) (*Comment, error) {
	var comment Comment
	if err := c.post(ctx, fmt.Sprintf("/sns/posts/%d/comments", postID), req, &comment); err != nil {
		return nil, fmt.Errorf("creating comment on post %d: %w", postID, err)
	}
	return &comment, nil
}

// UpdateComment replaces a comment's content.
func (c *Client) UpdateComment(ctx context.Context, id int64, content string) (*Comment, error) {
	var comment Comment
	req := CommentUpdateRequest{Content: content}
	if err := c.patch(ctx, fmt.Sprintf("/sns/comments/%d", id), req, &comment); err != nil {
		return nil, fmt.Errorf("updating comment %d: %w", id, err)
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/sns/comments/%d", id)); err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	return nil
}
