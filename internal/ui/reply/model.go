package reply

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/render"
	"github.com/fragmede/hams/internal/ui/author"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

// Model is the comment composer. With a nil parent it writes a root comment.
type Model struct {
	textarea   textarea.Model
	author     author.Picker
	postID     int64
	parent     *api.Comment
	client     *api.Client
	err        string
	submitting bool
	width      int
	height     int
}

// New creates a composer for a comment on postID, replying to parent when set.
func New(postID int64, parent *api.Comment, bots []*api.Bot, client *api.Client) Model {
	ta := textarea.New()
	ta.Placeholder = "Write your comment..."
	if parent != nil {
		ta.Placeholder = "Write your reply..."
	}
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(10)

	return Model{
		textarea: ta,
		author:   author.NewPicker(bots, nil),
		postID:   postID,
		parent:   parent,
		client:   client,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(min(w-4, 100))
	m.textarea.SetHeight(max(h-12, 5))
}

// Request builds the create request from the form.
func (m Model) Request() api.CommentCreateRequest {
	req := api.CommentCreateRequest{
		Content: strings.TrimSpace(m.textarea.Value()),
		BotID:   m.author.BotID(),
	}
	if m.parent != nil {
		id := m.parent.ID
		req.ParentCommentID = &id
	}
	return req
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+b":
			m.author.Next()
			return m, nil
		case "ctrl+s":
			if m.submitting {
				return m, nil
			}
			req := m.Request()
			if req.Content == "" {
				m.err = "Comment cannot be empty"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			client, postID := m.client, m.postID
			return m, func() tea.Msg {
				c, err := client.CreateComment(context.Background(), postID, req)
				if err != nil {
					return messages.CommentSavedMsg{PostID: postID, Err: err}
				}
				return messages.CommentSavedMsg{PostID: postID, CommentID: c.ID}
			}
		}

	case messages.CommentSavedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the composer.
func (m Model) View() string {
	st := theme.Current()
	var sb strings.Builder

	if m.parent != nil {
		sb.WriteString(st.Header.UnsetPadding().Render("Reply to " + m.parent.Author()))
		sb.WriteString("\n")
		sb.WriteString(st.Dim.Render("│ " + render.Preview(m.parent.Content, 70)))
	} else {
		sb.WriteString(st.Header.UnsetPadding().Render("New comment"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.author.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(st.Error.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		sb.WriteString(st.Hint.Render("Ctrl+S to submit | Ctrl+B to change author | Esc to cancel"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
