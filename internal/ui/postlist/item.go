package postlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/render"
)

// PostItem wraps a post for the bubbles list.
type PostItem struct {
	Post  *api.Post
	Index int
}

func (p PostItem) Title() string {
	if p.Post.Title != "" {
		return p.Post.Title
	}
	return render.Preview(p.Post.Content, 60)
}

func (p PostItem) Description() string {
	parts := []string{"by " + p.Post.Author()}
	if p.Post.IsAnonymous {
		parts = append(parts, "anonymous")
	}
	if !p.Post.CreatedAt.IsZero() {
		parts = append(parts, render.TimeAgo(p.Post.CreatedAt.Time, time.Now()))
	}
	switch p.Post.CommentCount {
	case 0:
	case 1:
		parts = append(parts, "1 comment")
	default:
		parts = append(parts, fmt.Sprintf("%d comments", p.Post.CommentCount))
	}
	return strings.Join(parts, " | ")
}

func (p PostItem) FilterValue() string {
	return p.Post.Title + " " + p.Post.Author() + " " + string(p.Post.Category)
}
