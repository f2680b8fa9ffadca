package edit

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

// Model is the comment edit view.
type Model struct {
	textarea   textarea.Model
	comment    *api.Comment
	client     *api.Client
	err        string
	submitting bool
	width      int
	height     int
}

// New creates an edit form pre-filled with the comment's content.
func New(comment *api.Comment, client *api.Client) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit your comment..."
	ta.SetValue(comment.Content)
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(10)

	return Model{
		textarea: ta,
		comment:  comment,
		client:   client,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(min(w-4, 100))
	m.textarea.SetHeight(max(h-8, 5))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+s" {
			if m.submitting {
				return m, nil
			}
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				m.err = "Comment cannot be empty"
				return m, nil
			}
			if text == strings.TrimSpace(m.comment.Content) {
				m.err = "Nothing changed"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			client, c := m.client, m.comment
			return m, func() tea.Msg {
				_, err := client.UpdateComment(context.Background(), c.ID, text)
				return messages.CommentSavedMsg{PostID: c.PostID, CommentID: c.ID, Err: err}
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

// View renders the edit form.
func (m Model) View() string {
	st := theme.Current()
	var sb strings.Builder

	sb.WriteString(st.Header.UnsetPadding().Render("Edit Comment"))
	sb.WriteString("\n\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(st.Error.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Saving...")
	} else {
		sb.WriteString(st.Hint.Render("Ctrl+S to save | Esc to cancel"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
