package postview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/render"
	"github.com/fragmede/hams/internal/thread"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

const (
	scrollStep = 3
	maxIndent  = 30
)

type commentOffset struct {
	startLine int
	endLine   int
}

// Model is the post detail / comment tree view.
type Model struct {
	viewport    viewport.Model
	postID      int64
	post        *api.Post
	tree        *thread.Tree
	treeErr     error
	rows        []thread.Row
	offsets     []commentOffset
	bodyLines   int
	selectedIdx int
	collapse    thread.CollapseState
	maxDepth    int
	stale       bool
	// pendingDelete is the comment awaiting a second delete key press.
	pendingDelete int64
	client        *api.Client
	cache         *cache.DB
	cfg           config.Config
	loading       bool
	width         int
	height        int
}

// New creates a post view for postID. Call Init to load it.
func New(postID int64, cfg config.Config, client *api.Client, db *cache.DB) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")

	return Model{
		viewport: vp,
		postID:   postID,
		collapse: make(thread.CollapseState),
		maxDepth: api.DefaultCommentDepth,
		client:   client,
		cache:    db,
		cfg:      cfg,
		loading:  true,
	}
}

// Init loads the post, its comments and the reply depth setting.
func (m Model) Init() tea.Cmd {
	return loadThread(m.postID, m.client, m.cache, m.cfg)
}

func loadThread(postID int64, client *api.Client, db *cache.DB, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		t, err := client.LoadThread(ctx, postID)
		if err != nil {
			if !errors.Is(err, api.ErrNotFound) {
				if p, cerr := db.GetPost(postID); cerr == nil && p != nil {
					slog.Warn("loading thread failed, serving cached post", "post_id", postID, "error", err)
					return messages.ThreadLoadedMsg{
						PostID: postID,
						Thread: &api.Thread{Post: p, MaxDepth: api.DefaultCommentDepth},
						Stale:  true,
					}
				}
			}
			return messages.ThreadLoadedMsg{PostID: postID, Err: err}
		}
		if len(t.Bots) > 0 {
			if err := db.PutBots(t.Bots); err != nil {
				slog.Warn("caching bots", "error", err)
			}
		}
		return messages.ThreadLoadedMsg{PostID: postID, Thread: t}
	}
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.resizeViewport()
	m.rebuildContent()
}

func (m *Model) resizeViewport() {
	headerLines := strings.Count(m.renderHeader(), "\n") + 1
	m.viewport.Height = max(m.height-headerLines, 1)
}

// PostID returns the ID of the post being shown.
func (m Model) PostID() int64 {
	return m.postID
}

// Post returns the loaded post, or nil while loading.
func (m Model) Post() *api.Post {
	return m.post
}

// Rows returns the visible comment rows in display order.
func (m Model) Rows() []thread.Row {
	return m.rows
}

// Selected returns the highlighted row.
func (m Model) Selected() (thread.Row, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.rows) {
		return thread.Row{}, false
	}
	return m.rows[m.selectedIdx], true
}

// MaxDepth returns the reply depth ceiling in effect.
func (m Model) MaxDepth() int {
	return m.maxDepth
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ThreadLoadedMsg:
		if msg.PostID != m.postID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.post = nil
			m.viewport.SetContent("Error loading post: " + msg.Err.Error())
			return m, nil
		}
		m.post = msg.Thread.Post
		m.maxDepth = msg.Thread.MaxDepth
		m.stale = msg.Stale
		m.tree, m.treeErr = thread.Build(msg.Thread.Comments)
		if m.treeErr == nil && msg.Thread.CommentsErr != nil {
			m.treeErr = msg.Thread.CommentsErr
		}
		if m.treeErr != nil {
			slog.Error("rebuilding comment thread", "post_id", m.postID, "error", m.treeErr)
		}
		m.resizeViewport()
		m.rebuildRows()
		m.rebuildContent()
		return m, nil

	case messages.DepthSavedMsg:
		if msg.Err == nil {
			m.maxDepth = msg.Depth
			m.rebuildRows()
			m.rebuildContent()
		}
		return m, nil

	case messages.CommentSavedMsg:
		if msg.Err == nil && msg.PostID == m.postID {
			cmd := m.Refresh()
			return m, cmd
		}
		return m, nil

	case messages.CommentDeletedMsg:
		if msg.PostID != m.postID {
			return m, nil
		}
		if msg.Err != nil {
			return m, status("delete failed: "+msg.Err.Error(), true)
		}
		cmd := m.Refresh()
		return m, tea.Batch(cmd, status("comment deleted", false))

	case tea.KeyMsg:
		key := msg.String()
		if key != "x" {
			m.pendingDelete = 0
		}
		switch key {
		case "j", "down":
			if off, ok := m.selectedOffset(); ok && off.endLine >= m.viewport.YOffset+m.viewport.Height {
				// Long comment: scroll within it before moving on.
				m.viewport.SetYOffset(m.viewport.YOffset + scrollStep)
				return m, nil
			}
			if m.selectedIdx < len(m.rows)-1 {
				m.selectedIdx++
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "k", "up":
			if off, ok := m.selectedOffset(); ok && off.startLine < m.viewport.YOffset {
				m.viewport.SetYOffset(max(m.viewport.YOffset-scrollStep, off.startLine))
				return m, nil
			}
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.rebuildContent()
				m.scrollToCursor()
			} else {
				m.viewport.GotoTop()
			}
			return m, nil
		case "enter", " ":
			if row, ok := m.Selected(); ok && row.Descendants > 0 {
				id := row.Comment.ID
				m.collapse[id] = !m.collapse[id]
				m.rebuildRows()
				m.rebuildContent()
			}
			return m, nil
		case "z":
			m.toggleFoldAll()
			return m, nil
		case "[":
			if idx := thread.ParentIndex(m.rows, m.selectedIdx); idx >= 0 {
				m.selectedIdx = idx
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "]":
			if idx := thread.NextSiblingIndex(m.rows, m.selectedIdx); idx >= 0 {
				m.selectedIdx = idx
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "g", "home":
			m.selectedIdx = 0
			m.rebuildContent()
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			if len(m.rows) > 0 {
				m.selectedIdx = len(m.rows) - 1
				m.rebuildContent()
				m.viewport.GotoBottom()
			}
			return m, nil
		case "ctrl+d", "pgdown":
			m.viewport.HalfPageDown()
			return m, nil
		case "ctrl+u", "pgup":
			m.viewport.HalfPageUp()
			return m, nil
		case "ctrl+r":
			cmd := m.Refresh()
			return m, cmd
		case "c":
			if m.post == nil {
				return m, nil
			}
			postID := m.postID
			return m, func() tea.Msg { return messages.OpenReplyMsg{PostID: postID} }
		case "r":
			return m, m.reply()
		case "e":
			row, ok := m.Selected()
			if !ok {
				return m, nil
			}
			if !row.Comment.CanEdit {
				return m, status("you can only edit your own comments", true)
			}
			c := row.Comment
			return m, func() tea.Msg { return messages.OpenEditCommentMsg{Comment: c} }
		case "E":
			if m.post == nil {
				return m, nil
			}
			if !m.post.CanEdit {
				return m, status("you can only edit your own posts", true)
			}
			p := m.post
			return m, func() tea.Msg { return messages.OpenComposeMsg{Post: p} }
		case "x":
			cmd := m.deleteSelected()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Refresh reloads the thread from the server.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	return loadThread(m.postID, m.client, m.cache, m.cfg)
}

// reply opens the composer under the selected comment when it is still
// shallower than the depth ceiling.
func (m Model) reply() tea.Cmd {
	row, ok := m.Selected()
	if !ok {
		return nil
	}
	if !row.CanReply {
		return status(fmt.Sprintf("max depth %d reached, cannot reply here", m.maxDepth), true)
	}
	postID, parent := m.postID, row.Comment
	return func() tea.Msg { return messages.OpenReplyMsg{PostID: postID, Parent: parent} }
}

func (m *Model) deleteSelected() tea.Cmd {
	row, ok := m.Selected()
	if !ok {
		return nil
	}
	c := row.Comment
	if !c.CanEdit {
		return status("you can only delete your own comments", true)
	}
	if m.pendingDelete != c.ID {
		m.pendingDelete = c.ID
		msg := "press x again to delete this comment"
		if row.Descendants > 0 {
			msg = fmt.Sprintf("press x again to delete this comment and %d replies", row.Descendants)
		}
		return status(msg, false)
	}
	m.pendingDelete = 0
	client, postID := m.client, m.postID
	return func() tea.Msg {
		err := client.DeleteComment(context.Background(), c.ID)
		return messages.CommentDeletedMsg{PostID: postID, CommentID: c.ID, Err: err}
	}
}

func (m *Model) toggleFoldAll() {
	if m.tree == nil {
		return
	}
	// Collapse everything if anything with replies is open, else expand all.
	anyExpanded := false
	for _, row := range m.rows {
		if row.Descendants > 0 && !m.collapse[row.Comment.ID] {
			anyExpanded = true
			break
		}
	}
	for id := range m.tree.DepthOf {
		if m.tree.Descendants(id) > 0 {
			m.collapse[id] = anyExpanded
		}
	}
	m.rebuildRows()
	m.rebuildContent()
	if anyExpanded {
		m.selectedIdx = 0
		m.viewport.GotoTop()
	}
}

// View renders the post view.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View())
}

func (m *Model) rebuildRows() {
	if m.tree == nil {
		m.rows = nil
		m.selectedIdx = 0
		return
	}
	m.rows = m.tree.Flatten(m.collapse, m.maxDepth)
	m.selectedIdx = max(min(m.selectedIdx, len(m.rows)-1), 0)
}

func (m *Model) selectedOffset() (commentOffset, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.offsets) {
		return commentOffset{}, false
	}
	return m.offsets[m.selectedIdx], true
}

func (m *Model) rebuildContent() {
	if m.post == nil {
		m.offsets = nil
		if m.loading {
			m.viewport.SetContent("  Loading...")
		}
		return
	}
	st := theme.Current()
	availWidth := max(m.width-4, 20)

	var sb strings.Builder
	lineCount := 0
	writeLine := func(s string) {
		sb.WriteString(s + "\n")
		lineCount++
	}

	for _, line := range strings.Split(render.ContentToText(m.post.Content, availWidth), "\n") {
		writeLine("  " + line)
	}
	writeLine("")
	writeLine(st.Meta.Render(strings.Repeat("─", max(m.width, 1))))
	m.bodyLines = lineCount

	switch {
	case m.treeErr != nil:
		writeLine(st.Error.Render("  Comments cannot be shown: " + m.treeErr.Error()))
	case m.stale:
		writeLine(st.Dim.Render("  Offline: comments are not available."))
	case len(m.rows) == 0:
		writeLine(st.Dim.Render("  No comments yet. Press c to write one."))
	}

	m.offsets = make([]commentOffset, len(m.rows))
	now := time.Now()
	for i, row := range m.rows {
		start := lineCount
		indent := min((row.Depth-1)*2, maxIndent)
		indentStr := strings.Repeat(" ", indent)

		selected := i == m.selectedIdx
		barColor := st.DepthColor(row.Depth)
		if selected {
			barColor = st.Palette.Accent
		}
		bar := lipgloss.NewStyle().Foreground(barColor).Render("│")

		c := row.Comment
		header := st.Author.Render(c.Author())
		if !c.CreatedAt.IsZero() {
			header += " " + st.Meta.Render(render.TimeAgo(c.CreatedAt.Time, now))
		}
		if c.UpdatedAt.After(c.CreatedAt.Time) {
			header += " " + st.Meta.Render("(edited)")
		}
		if row.Collapsed {
			header += " " + st.Meta.Render(fmt.Sprintf("[+%d]", row.Descendants))
		}
		if !row.CanReply {
			header += " " + st.Dim.Render("max depth")
		}
		if row.Depth > maxIndent/2 {
			header += " " + st.Meta.Render(fmt.Sprintf("[d:%d]", row.Depth))
		}

		headerLine := indentStr + bar + " " + header
		if selected {
			headerLine = st.Selected.Render(headerLine)
		}
		writeLine(headerLine)

		if !row.Collapsed {
			body := render.ContentToText(c.Content, max(availWidth-indent-4, 20))
			for _, line := range strings.Split(body, "\n") {
				bodyLine := indentStr + bar + " " + line
				if selected {
					bodyLine = st.Selected.Render(bodyLine)
				}
				writeLine(bodyLine)
			}
		}
		writeLine("")
		m.offsets[i] = commentOffset{startLine: start, endLine: lineCount - 1}
	}

	m.viewport.SetContent(sb.String())
}

func (m *Model) scrollToCursor() {
	off, ok := m.selectedOffset()
	if !ok {
		return
	}
	if off.startLine < m.viewport.YOffset || off.startLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(off.startLine)
	}
}

func (m Model) renderHeader() string {
	st := theme.Current()
	if m.post == nil {
		return st.Header.Render("Loading...")
	}

	meta := fmt.Sprintf("[%s] by %s", m.post.Category, m.post.Author())
	if m.post.IsAnonymous {
		meta += " | anonymous"
	}
	if !m.post.CreatedAt.IsZero() {
		meta += " | " + render.TimeAgo(m.post.CreatedAt.Time, time.Now())
	}
	count := m.post.CommentCount
	if m.tree != nil {
		count = m.tree.Len()
	}
	meta += fmt.Sprintf(" | %d comments | max depth %d", count, m.maxDepth)
	if m.stale {
		meta += " | cached"
	}

	hint := "j/k:move  [:parent  ]:sibling  space:collapse  z:fold all  c:comment  r:reply  e:edit  x:delete  E:edit post"
	return lipgloss.JoinVertical(lipgloss.Left,
		st.Header.Render(m.post.Title),
		st.Meta.Padding(0, 1).Render(meta),
		st.Hint.Render(hint),
	)
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}
