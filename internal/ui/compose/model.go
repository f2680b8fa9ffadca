package compose

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/author"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

var labelWidth = lipgloss.NewStyle().Width(11)

type field int

const (
	fieldCategory field = iota
	fieldTitle
	fieldContent
	fieldAnonymous
	fieldAuthor
	fieldCount
)

const maxTitleLength = 200

// Model is the post editor. It creates a post, or edits one when opened
// with an existing post.
type Model struct {
	titleInput   textinput.Model
	contentInput textarea.Model
	categoryIdx  int
	anonymous    bool
	author       author.Picker
	focused      field
	original     *api.Post
	client       *api.Client
	err          string
	submitting   bool
	width        int
	height       int
}

// New creates the editor. A nil post composes a new one.
func New(post *api.Post, bots []*api.Bot, client *api.Client) Model {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = maxTitleLength
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "What's on your mind?"
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(8)

	m := Model{
		titleInput:   ti,
		contentInput: ta,
		original:     post,
		client:       client,
	}
	if post != nil {
		m.titleInput.SetValue(post.Title)
		m.contentInput.SetValue(post.Content)
		m.anonymous = post.IsAnonymous
		for i, c := range api.Categories {
			if c == post.Category {
				m.categoryIdx = i
			}
		}
		m.author = author.NewPicker(bots, post.BotID)
	} else {
		m.author = author.NewPicker(bots, nil)
	}
	m.setFocus(fieldTitle)
	return m
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	fw := min(w-16, 80)
	m.titleInput.Width = fw
	m.contentInput.SetWidth(fw)
	m.contentInput.SetHeight(max(h-16, 4))
}

func (m *Model) setFocus(f field) {
	m.focused = f
	m.titleInput.Blur()
	m.contentInput.Blur()
	switch f {
	case fieldTitle:
		m.titleInput.Focus()
	case fieldContent:
		m.contentInput.Focus()
	}
}

// Category returns the selected category.
func (m Model) Category() api.Category {
	return api.Categories[m.categoryIdx]
}

// CreateRequest builds a create request from the form.
func (m Model) CreateRequest() api.PostCreateRequest {
	return api.PostCreateRequest{
		Category:    m.Category(),
		Title:       strings.TrimSpace(m.titleInput.Value()),
		Content:     strings.TrimSpace(m.contentInput.Value()),
		IsAnonymous: m.anonymous,
		BotID:       m.author.BotID(),
	}
}

// UpdateRequest builds a patch holding only the fields that changed.
func (m Model) UpdateRequest() api.PostUpdateRequest {
	var req api.PostUpdateRequest
	if m.original == nil {
		return req
	}
	if c := m.Category(); c != m.original.Category {
		req.Category = &c
	}
	if t := strings.TrimSpace(m.titleInput.Value()); t != m.original.Title {
		req.Title = &t
	}
	if c := strings.TrimSpace(m.contentInput.Value()); c != m.original.Content {
		req.Content = &c
	}
	if m.anonymous != m.original.IsAnonymous {
		a := m.anonymous
		req.IsAnonymous = &a
	}
	if b := m.author.BotID(); !sameBot(b, m.original.BotID) {
		req.BotID = b
	}
	return req
}

func sameBot(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			m.setFocus((m.focused + 1) % fieldCount)
			return m, nil
		case "shift+tab":
			m.setFocus((m.focused + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+s":
			return m.submit()
		}

		switch m.focused {
		case fieldCategory:
			switch msg.String() {
			case "left", "h":
				m.categoryIdx = (m.categoryIdx + len(api.Categories) - 1) % len(api.Categories)
			case "right", "l", " ":
				m.categoryIdx = (m.categoryIdx + 1) % len(api.Categories)
			}
			return m, nil
		case fieldAnonymous:
			switch msg.String() {
			case " ", "enter", "left", "right":
				m.anonymous = !m.anonymous
			}
			return m, nil
		case fieldAuthor:
			switch msg.String() {
			case "left", "h":
				m.author.Prev()
			case "right", "l", " ":
				m.author.Next()
			}
			return m, nil
		}

	case messages.PostSavedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focused {
	case fieldTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case fieldContent:
		m.contentInput, cmd = m.contentInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	req := m.CreateRequest()
	if req.Title == "" || req.Content == "" {
		m.err = "Title and content are required"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	client := m.client

	if m.original == nil {
		return m, func() tea.Msg {
			p, err := client.CreatePost(context.Background(), req)
			return messages.PostSavedMsg{Post: p, Err: err}
		}
	}

	id, patch := m.original.ID, m.UpdateRequest()
	return m, func() tea.Msg {
		p, err := client.UpdatePost(context.Background(), id, patch)
		return messages.PostSavedMsg{Post: p, Err: err}
	}
}

// View renders the editor.
func (m Model) View() string {
	st := theme.Current()
	label := func(f field, s string) string {
		l := labelWidth.Inherit(st.Label).Render(s)
		if m.focused == f {
			return st.Focused.Render("▸ ") + l
		}
		return "  " + l
	}

	var cats []string
	for i, c := range api.Categories {
		if i == m.categoryIdx {
			cats = append(cats, st.BarActive.Render(string(c)))
		} else {
			cats = append(cats, st.Meta.Padding(0, 1).Render(string(c)))
		}
	}
	anon := "[ ] anonymous"
	if m.anonymous {
		anon = "[x] anonymous"
	}

	var sb strings.Builder
	title := "New Post"
	if m.original != nil {
		title = "Edit Post"
	}
	sb.WriteString(st.Header.UnsetPadding().Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(label(fieldCategory, "Category") + strings.Join(cats, " ") + "\n\n")
	sb.WriteString(label(fieldTitle, "Title") + m.titleInput.View() + "\n\n")
	sb.WriteString(label(fieldContent, "Content") + "\n" + m.contentInput.View() + "\n\n")
	sb.WriteString(label(fieldAnonymous, "Visibility") + anon + "\n\n")
	sb.WriteString(label(fieldAuthor, "") + m.author.View() + "\n\n")

	if m.err != "" {
		sb.WriteString(st.Error.Render(m.err))
		sb.WriteString("\n")
	}
	if m.submitting {
		sb.WriteString("Saving...")
	} else {
		sb.WriteString(st.Hint.Render("Tab: next field | ←/→: change | Ctrl+S: save | Esc: cancel"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
