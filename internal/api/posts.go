package api

import (
	"context"
	"fmt"
)

// ListPosts returns the user's posts, newest first.
func (c *Client) ListPosts(ctx context.Context) ([]*Post, error) {
	var posts []*Post
	if err := c.get(ctx, "/sns/posts", &posts); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := c.get(ctx, fmt.Sprintf("/sns/posts/%d", id), &post); err != nil {
		return nil, fmt.Errorf("fetching post %d: %w", id, err)
	}
	return &post, nil
}

// CreatePost publishes a post.
func (c *Client) CreatePost(ctx context.Context, req PostCreateRequest) (*Post, error) {
	var post Post
	if err := c.post(ctx, "/sns/posts", req, &post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &post, nil
}

// UpdatePost patches a post.
func (c *Client) UpdatePost(ctx context.Context, id int64, req PostUpdateRequest) (*Post, error) {
	var post Post
	if err := c.patch(ctx, fmt.Sprintf("/sns/posts/%d", id), req, &post); err != nil {
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}
	return &post, nil
}

// DeletePost removes a post and its comments.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/sns/posts/%d", id)); err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	return nil
}

// FilterPosts returns the posts in category. An empty category matches all.
func FilterPosts(posts []*Post, category Category) []*Post {
	if category == "" {
		return posts
	}
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p != nil && p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
