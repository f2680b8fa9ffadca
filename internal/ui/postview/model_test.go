package postview

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/ui/messages"
)

func ptr(v int64) *int64 { return &v }

func comment(id int64, parent *int64) *api.Comment {
	return &api.Comment{ID: id, PostID: 7, ParentCommentID: parent, Content: "comment body"}
}

func keyPress(k string) tea.KeyMsg {
	if k == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func loaded(t *testing.T, client *api.Client, maxDepth int, comments ...*api.Comment) Model {
	t.Helper()
	m := New(7, config.Default(), client, nil)
	m.SetSize(100, 60)
	m, _ = m.Update(messages.ThreadLoadedMsg{
		PostID: 7,
		Thread: &api.Thread{
			Post:     &api.Post{ID: 7, Title: "오늘의 경제", Category: api.CategoryEconomy, Content: "post body"},
			Comments: comments,
			MaxDepth: maxDepth,
		},
	})
	return m
}

// scenario is [1, 1->2, 3, 2->4].
func scenario() []*api.Comment {
	return []*api.Comment{comment(1, nil), comment(2, ptr(1)), comment(3, nil), comment(4, ptr(2))}
}

func rowIDs(m Model) []int64 {
	var out []int64
	for _, r := range m.Rows() {
		out = append(out, r.Comment.ID)
	}
	return out
}

func press(t *testing.T, m Model, k string) (Model, tea.Msg) {
	t.Helper()
	m, cmd := m.Update(keyPress(k))
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestThreadRowsFollowTree(t *testing.T) {
	m := loaded(t, nil, 3, scenario()...)
	assert.Equal(t, []int64{1, 2, 4, 3}, rowIDs(m))

	depths := map[int64]int{}
	for _, r := range m.Rows() {
		depths[r.Comment.ID] = r.Depth
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 2, 4: 3, 3: 1}, depths)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "오늘의 경제")
	assert.Contains(t, view, "4 comments | max depth 3")
}

func TestIgnoresOtherPosts(t *testing.T) {
	m := loaded(t, nil, 3, scenario()...)
	m, _ = m.Update(messages.ThreadLoadedMsg{PostID: 99, Thread: &api.Thread{}})
	assert.Len(t, m.Rows(), 4)
}

func TestReplyGatedByDepth(t *testing.T) {
	m := loaded(t, nil, 2, scenario()...)

	m, msg := press(t, m, "r")
	open, ok := msg.(messages.OpenReplyMsg)
	require.True(t, ok, "depth 1 accepts replies under max depth 2")
	assert.Equal(t, int64(7), open.PostID)
	assert.Equal(t, int64(1), open.Parent.ID)

	m, _ = press(t, m, "j")
	row, _ := m.Selected()
	require.Equal(t, int64(2), row.Comment.ID)
	_, msg = press(t, m, "r")
	st, ok := msg.(messages.StatusMsg)
	require.True(t, ok, "depth 2 is at the ceiling")
	assert.True(t, st.IsError)
	assert.Contains(t, st.Text, "max depth 2")

	m, _ = m.Update(messages.DepthSavedMsg{Depth: 3})
	_, msg = press(t, m, "r")
	assert.IsType(t, messages.OpenReplyMsg{}, msg)
}

func TestRootCommentIgnoresDepth(t *testing.T) {
	m := loaded(t, nil, 1, scenario()...)
	_, msg := press(t, m, "c")
	open, ok := msg.(messages.OpenReplyMsg)
	require.True(t, ok)
	assert.Nil(t, open.Parent)
}

func TestCollapse(t *testing.T) {
	m := loaded(t, nil, 3, scenario()...)

	m, _ = press(t, m, " ")
	assert.Equal(t, []int64{1, 3}, rowIDs(m))
	row, _ := m.Selected()
	assert.True(t, row.Collapsed)
	assert.Equal(t, 2, row.Descendants)
	assert.Contains(t, ansi.Strip(m.View()), "[+2]")

	m, _ = press(t, m, " ")
	assert.Equal(t, []int64{1, 2, 4, 3}, rowIDs(m))

	m, _ = press(t, m, "z")
	assert.Equal(t, []int64{1, 3}, rowIDs(m))
	m, _ = press(t, m, "z")
	assert.Equal(t, []int64{1, 2, 4, 3}, rowIDs(m))
}

func TestParentAndSiblingNavigation(t *testing.T) {
	m := loaded(t, nil, 5, scenario()...)

	m, _ = press(t, m, "]")
	row, _ := m.Selected()
	assert.Equal(t, int64(3), row.Comment.ID)

	m, _ = press(t, m, "g")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "j")
	row, _ = m.Selected()
	require.Equal(t, int64(4), row.Comment.ID)

	m, _ = press(t, m, "[")
	row, _ = m.Selected()
	assert.Equal(t, int64(2), row.Comment.ID)
}

func TestMalformedThreadIsReported(t *testing.T) {
	m := loaded(t, nil, 3, comment(1, ptr(2)), comment(2, ptr(1)))
	assert.Empty(t, m.Rows())
	assert.Contains(t, ansi.Strip(m.View()), "Comments cannot be shown")
}

func TestCommentLoadFailureIsReported(t *testing.T) {
	m := New(7, config.Default(), nil, nil)
	m.SetSize(100, 60)
	m, _ = m.Update(messages.ThreadLoadedMsg{
		PostID: 7,
		Thread: &api.Thread{
			Post:        &api.Post{ID: 7, Title: "t", Content: "post body"},
			CommentsErr: errors.New("loading comments: HTTP 502"),
			MaxDepth:    3,
		},
	})

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Comments cannot be shown: loading comments: HTTP 502")
	assert.NotContains(t, view, "No comments yet")
}

func TestDanglingParentHidden(t *testing.T) {
	m := loaded(t, nil, 3, comment(1, nil), comment(5, ptr(42)))
	assert.Equal(t, []int64{1}, rowIDs(m))
}

func TestEditRequiresOwnership(t *testing.T) {
	mine := comment(1, nil)
	mine.CanEdit = true
	m := loaded(t, nil, 3, mine, comment(2, nil))

	_, msg := press(t, m, "e")
	edit, ok := msg.(messages.OpenEditCommentMsg)
	require.True(t, ok)
	assert.Equal(t, int64(1), edit.Comment.ID)

	m, _ = press(t, m, "j")
	_, msg = press(t, m, "e")
	st, ok := msg.(messages.StatusMsg)
	require.True(t, ok)
	assert.True(t, st.IsError)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deleted = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mine := comment(1, nil)
	mine.CanEdit = true
	m := loaded(t, api.NewClient(srv.URL, time.Second), 3, mine, comment(2, ptr(1)))

	m, msg := press(t, m, "x")
	st, ok := msg.(messages.StatusMsg)
	require.True(t, ok)
	assert.Contains(t, st.Text, "1 replies")
	assert.Empty(t, deleted)

	_, msg = press(t, m, "x")
	del, ok := msg.(messages.CommentDeletedMsg)
	require.True(t, ok)
	assert.NoError(t, del.Err)
	assert.Equal(t, int64(1), del.CommentID)
	assert.Equal(t, "DELETE /sns/comments/1", deleted)
}

func TestDeleteCancelledByOtherKey(t *testing.T) {
	mine := comment(1, nil)
	mine.CanEdit = true
	m := loaded(t, nil, 3, mine)

	m, _ = press(t, m, "x")
	m, _ = press(t, m, "k")
	_, msg := press(t, m, "x")
	assert.IsType(t, messages.StatusMsg{}, msg, "confirmation starts over")
}
