package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

type tab struct {
	label    string
	category api.Category
}

// Tabs lists the category filters in order. The empty category shows every post.
var tabs = func() []tab {
	t := []tab{{"전체", ""}}
	for _, c := range api.Categories {
		t = append(t, tab{string(c), c})
	}
	return t
}()

// TabCount is the number of category tabs.
func TabCount() int { return len(tabs) }

// CategoryAt returns the category of tab i.
func CategoryAt(i int) api.Category {
	return tabs[((i%len(tabs))+len(tabs))%len(tabs)].category
}

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	active      api.Category
	username    string
	unreadCount int
	statusText  string
	isError     bool
	offline     bool
	conn        messages.ConnState
}

// New creates a new status bar.
func New() Model {
	return Model{}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetCategory sets the active category tab.
func (m *Model) SetCategory(c api.Category) {
	m.active = c
}

// SetUser sets the logged-in nickname.
func (m *Model) SetUser(username string) {
	m.username = username
}

// SetUnread sets the unread activity count.
func (m *Model) SetUnread(count int) {
	m.unreadCount = count
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// SetOffline marks the post list as served from cache.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// SetConn sets the live activity channel state.
func (m *Model) SetConn(s messages.ConnState) {
	m.conn = s
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	st := theme.Current()

	var tabsStr string
	for _, t := range tabs {
		if t.category == m.active {
			tabsStr += st.BarActive.Render(t.label)
		} else {
			tabsStr += st.BarTab.Render(t.label)
		}
	}

	var right string
	if m.offline {
		right += st.BarAlert.Render("OFFLINE")
	}
	if m.username != "" {
		right += st.Bar.Padding(0, 1).Render(m.conn.String())
	}
	if m.unreadCount > 0 {
		right += st.BarBadge.Render(fmt.Sprintf(" %d ", m.unreadCount))
	}
	if m.username != "" {
		right += st.BarUser.Render(m.username)
	} else {
		right += st.Bar.Padding(0, 1).Render("L:login")
	}
	if m.statusText != "" {
		if m.isError {
			right += st.BarAlert.Render(m.statusText)
		} else {
			right += st.Bar.Padding(0, 1).Render(m.statusText)
		}
	}

	gap := max(m.width-lipgloss.Width(tabsStr)-lipgloss.Width(right), 0)
	mid := st.Bar.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, tabsStr, mid, right)
}
