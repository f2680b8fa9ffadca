package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Help     key.Binding
	Enter    key.Binding
	Refresh  key.Binding
	Login    key.Binding
	Logout   key.Binding
	Activity key.Binding
	Bots     key.Binding
	Theme    key.Binding
	NewPost  key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Reply    key.Binding
	Comment  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Collapse key.Binding
	FoldAll  key.Binding
	Parent   key.Binding
	NextSib  key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab4     key.Binding
	Tab5     key.Binding
	Submit   key.Binding
	Filter   key.Binding
}

var Keys = KeyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
	Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Logout:   key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "logout")),
	Activity: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activity")),
	Bots:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bots")),
	Theme:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
	NewPost:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	Reply:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reply")),
	Comment:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
	PageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "page up")),
	PageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "page down")),
	Home:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	End:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Collapse: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "collapse")),
	FoldAll:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "fold all")),
	Parent:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "parent")),
	NextSib:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next sibling")),
	NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next category")),
	PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous category")),
	Tab1:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
	Tab2:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "경제")),
	Tab3:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "문화")),
	Tab4:     key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "연예")),
	Tab5:     key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "유머")),
	Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
}

// ShortHelp lists the bindings shown in the help overlay.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Back, k.Refresh, k.NewPost, k.Activity, k.Bots, k.Theme, k.Help, k.Quit}
}

// FullHelp groups bindings into help overlay columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Enter, k.Back, k.Refresh, k.Filter, k.NextTab, k.PrevTab},
		{k.NewPost, k.Edit, k.Delete, k.Comment, k.Reply, k.Submit},
		{k.Collapse, k.FoldAll, k.Parent, k.NextSib},
		{k.Activity, k.Bots, k.Theme, k.Login, k.Logout, k.Quit},
	}
}
