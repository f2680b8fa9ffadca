package postlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/ui/theme"
)

var indexStyle = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)

type Delegate struct{}

func (d Delegate) Height() int                             { return 2 }
func (d Delegate) Spacing() int                            { return 1 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d Delegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(PostItem)
	if !ok {
		return
	}
	st := theme.Current()

	idx := indexStyle.Foreground(st.Palette.Accent).Render(fmt.Sprintf("%d.", item.Index+1))
	cat := st.Category.Render("[" + string(item.Post.Category) + "]")

	var title, desc string
	if index == m.Index() {
		title = st.Author.Render(item.Title())
		desc = st.Label.UnsetBold().Render(item.Description())
	} else {
		title = st.Label.Render(item.Title())
		desc = st.Meta.Render(item.Description())
	}

	fmt.Fprintf(w, "%s %s %s\n     %s", idx, cat, title, desc)
}
