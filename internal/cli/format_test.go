package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/thread"
	"github.com/fragmede/hams/internal/ui/messages"
)

func comment(id int64, parent int64) *api.Comment {
	c := &api.Comment{ID: id, PostID: 1, Content: "text " + string(rune('a'+id))}
	if parent != 0 {
		p := parent
		c.ParentCommentID = &p
	}
	return c
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"hangul", "가나다라마바사", 5, "가나..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.input, tt.max))
		})
	}
}

func TestBuildThreadViewDropsDangling(t *testing.T) {
	th := &api.Thread{
		Post:     &api.Post{ID: 1},
		MaxDepth: 2,
		Comments: []*api.Comment{comment(1, 0), comment(2, 1), comment(3, 42), comment(4, 2)},
	}

	v, err := buildThreadView(th)
	require.NoError(t, err)

	var ids []int64
	for _, c := range v.Comments {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)
	assert.True(t, v.Comments[0].CanReply)
	assert.False(t, v.Comments[1].CanReply)
	assert.Equal(t, 3, v.Comments[2].Depth)
}

func TestBuildThreadViewRejectsCycle(t *testing.T) {
	th := &api.Thread{
		Post:     &api.Post{ID: 1},
		MaxDepth: 3,
		Comments: []*api.Comment{comment(1, 2), comment(2, 1)},
	}

	_, err := buildThreadView(th)
	var malformed *thread.MalformedThreadError
	assert.True(t, errors.As(err, &malformed))
}

func TestPrintThreadEmpty(t *testing.T) {
	var buf bytes.Buffer
	printThread(&buf, threadView{Post: &api.Post{ID: 3, Title: "quiet", Category: api.CategoryCulture, IsAnonymous: true}, MaxDepth: 3}, time.Now())

	out := buf.String()
	assert.Contains(t, out, "#3 [문화] quiet")
	assert.Contains(t, out, "by anonymous")
	assert.Contains(t, out, "No comments.")
}

func TestPrintPostTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPostTable(&buf, nil, time.Now()))
	assert.Equal(t, "No posts found.\n", buf.String())

	buf.Reset()
	bot := "alpha"
	posts := []*api.Post{
		{ID: 1, Title: "first", Category: api.CategoryHumor, CommentCount: 2, BotName: &bot},
		{ID: 2, Title: "second", Category: api.CategoryEconomy, IsAnonymous: true},
	}
	require.NoError(t, printPostTable(&buf, posts, time.Now()))
	out := buf.String()
	assert.Contains(t, out, "alpha (bot)")
	assert.Contains(t, out, "anonymous")
	assert.Contains(t, out, "Total: 2 posts")
}

func TestFeedPrinter(t *testing.T) {
	var buf bytes.Buffer
	emit := feedPrinter(&buf, map[int64]string{1: "alpha"}, false)

	emit(messages.ConnectionMsg{State: messages.ConnConnected})
	emit(messages.ActivityMsg{Log: api.ActivityLog{ID: 1, BotID: 1, JobType: "post", ResultStatus: "success", Message: "wrote a post"}})
	emit(messages.ActivityMsg{Log: api.ActivityLog{ID: 2, BotID: 9, JobType: "comment", ResultStatus: "failed", Message: "quota"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "-- live", lines[0])
	assert.Contains(t, lines[1], "✓ alpha [post] wrote a post")
	assert.Contains(t, lines[2], "✗ bot #9 [comment] quota")
}

func TestFeedPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	emit := feedPrinter(&buf, nil, true)

	emit(messages.ConnectionMsg{State: messages.ConnConnected})
	emit(messages.ActivityMsg{Log: api.ActivityLog{ID: 4, ResultStatus: "success"}})

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(out, `{"id":4`), out)
	assert.NotContains(t, out, "\n")
}
