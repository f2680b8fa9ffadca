package postlist

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/ui/messages"
)

// Model is the post list view.
type Model struct {
	list     list.Model
	posts    []*api.Post
	category api.Category
	client   *api.Client
	cache    *cache.DB
	cfg      config.Config
	loading  bool
	stale    bool
	// pendingDelete is the post awaiting a second delete key press.
	pendingDelete int64
	width         int
	height        int
}

// New creates a new post list model.
func New(cfg config.Config, client *api.Client, db *cache.DB) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = categoryTitle("")
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:   l,
		client: client,
		cache:  db,
		cfg:    cfg,
	}
}

// Init loads the post list.
func (m Model) Init() tea.Cmd {
	return m.loadPosts(false)
}

// Refresh reloads the list from the server.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	m.list.Title = categoryTitle(m.category) + " (refreshing...)"
	return m.loadPosts(true)
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// Category returns the active category filter.
func (m Model) Category() api.Category {
	return m.category
}

// Selected returns the highlighted post, if any.
func (m Model) Selected() *api.Post {
	if item, ok := m.list.SelectedItem().(PostItem); ok {
		return item.Post
	}
	return nil
}

// Filtering reports whether the list filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PostsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.posts = msg.Posts
		m.stale = msg.Stale
		m.applyFilter()
		return m, nil

	case messages.SwitchCategoryMsg:
		m.category = msg.Category
		m.pendingDelete = 0
		m.applyFilter()
		m.list.ResetSelected()
		return m, nil

	case messages.PostDeletedMsg:
		if msg.Err == nil {
			m.posts = removePost(m.posts, msg.PostID)
			m.applyFilter()
		}
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		key := msg.String()
		if key != "x" {
			m.pendingDelete = 0
		}
		switch key {
		case "enter":
			if p := m.Selected(); p != nil {
				return m, func() tea.Msg { return messages.OpenPostMsg{PostID: p.ID} }
			}
		case "r", "ctrl+r":
			cmd := m.Refresh()
			return m, cmd
		case "n":
			return m, func() tea.Msg { return messages.OpenComposeMsg{} }
		case "e":
			p := m.Selected()
			if p == nil {
				return m, nil
			}
			if !p.CanEdit {
				return m, status("you can only edit your own posts", true)
			}
			return m, func() tea.Msg { return messages.OpenComposeMsg{Post: p} }
		case "x":
			p := m.Selected()
			if p == nil {
				return m, nil
			}
			if !p.CanEdit {
				return m, status("you can only delete your own posts", true)
			}
			if m.pendingDelete != p.ID {
				m.pendingDelete = p.ID
				return m, status("press x again to delete this post", false)
			}
			m.pendingDelete = 0
			return m, deletePost(m.client, m.cache, p.ID)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the post list.
func (m Model) View() string {
	return m.list.View()
}

func (m *Model) applyFilter() {
	visible := api.FilterPosts(m.posts, m.category)
	items := make([]list.Item, 0, len(visible))
	for i, p := range visible {
		items = append(items, PostItem{Post: p, Index: i})
	}
	m.list.SetItems(items)

	title := categoryTitle(m.category)
	if m.stale {
		title += " (cached)"
	}
	m.list.Title = title
}

func (m Model) loadPosts(force bool) tea.Cmd {
	client := m.client
	db := m.cache
	cfg := m.cfg

	return func() tea.Msg {
		if !force {
			cached, fresh, err := db.GetPosts(cfg.PostListTTL)
			if err != nil {
				slog.Warn("reading cached posts", "error", err)
			}
			if fresh {
				return messages.PostsLoadedMsg{Posts: cached}
			}
		}
		return fetchAndCache(client, db, cfg)
	}
}

func fetchAndCache(client *api.Client, db *cache.DB, cfg config.Config) messages.PostsLoadedMsg {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	posts, err := client.ListPosts(ctx)
	if err != nil {
		// Fall back to whatever the cache still holds, however old.
		cached, _, cerr := db.GetPosts(0)
		if cerr == nil && cached != nil {
			slog.Warn("listing posts failed, serving cache", "error", err)
			return messages.PostsLoadedMsg{Posts: cached, Stale: true}
		}
		return messages.PostsLoadedMsg{Err: err}
	}
	if err := db.PutPosts(posts); err != nil {
		slog.Warn("caching posts", "error", err)
	}
	return messages.PostsLoadedMsg{Posts: posts}
}

func deletePost(client *api.Client, db *cache.DB, id int64) tea.Cmd {
	return func() tea.Msg {
		err := client.DeletePost(context.Background(), id)
		if err == nil {
			if cerr := db.DeletePost(id); cerr != nil {
				slog.Warn("evicting deleted post", "post_id", id, "error", cerr)
			}
		}
		return messages.PostDeletedMsg{PostID: id, Err: err}
	}
}

func removePost(posts []*api.Post, id int64) []*api.Post {
	out := posts[:0:0]
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}

func categoryTitle(c api.Category) string {
	if c == "" {
		return "HAMS · 전체"
	}
	return "HAMS · " + string(c)
}
