package activity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/render"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

const historyLimit = 200

// Model is the bot activity feed.
type Model struct {
	entries      []messages.ActivityEntry
	selectedIdx  int
	offset       int
	failuresOnly bool
	client       *api.Client
	db           *cache.DB
	cfg          config.Config
	err          error
	width        int
	height       int
}

// New creates the activity feed.
func New(cfg config.Config, client *api.Client, db *cache.DB) Model {
	return Model{client: client, db: db, cfg: cfg}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Load reads the feed history from the cache.
func (m Model) Load() tea.Cmd {
	db := m.db
	return func() tea.Msg {
		return loadEntries(db)
	}
}

// Refresh pulls recent entries from the server into the cache, then reloads.
func (m Model) Refresh() tea.Cmd {
	client, db, cfg := m.client, m.db, m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		logs, err := client.ListActivityLogs(ctx, api.MaxActivityLimit)
		if err != nil {
			return messages.ActivityLoadedMsg{Err: err}
		}
		for _, l := range logs {
			if _, err := db.AddActivity(l); err != nil {
				slog.Warn("caching activity", "id", l.ID, "error", err)
			}
		}
		return loadEntries(db)
	}
}

// MarkRead clears the unread flags, both locally and in the cache.
func (m *Model) MarkRead() {
	for i := range m.entries {
		m.entries[i].Read = true
	}
	if err := m.db.MarkActivityRead(); err != nil {
		slog.Warn("marking activity read", "error", err)
	}
}

func loadEntries(db *cache.DB) messages.ActivityLoadedMsg {
	rows, err := db.RecentActivity(historyLimit)
	if err != nil {
		return messages.ActivityLoadedMsg{Err: err}
	}
	names := db.BotNames()
	entries := make([]messages.ActivityEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, messages.ActivityEntry{
			Log:     r.ActivityLog,
			BotName: names[r.BotID],
			Read:    r.Read,
		})
	}
	return messages.ActivityLoadedMsg{Entries: entries}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ActivityLoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
			m.clampSelection()
		}
		return m, nil

	case messages.ActivityMsg:
		if slices.ContainsFunc(m.entries, func(e messages.ActivityEntry) bool { return e.Log.ID == msg.Log.ID }) {
			return m, nil
		}
		entry := messages.ActivityEntry{Log: msg.Log, BotName: m.db.BotNames()[msg.Log.BotID]}
		m.entries = append([]messages.ActivityEntry{entry}, m.entries...)
		if len(m.entries) > historyLimit {
			m.entries = m.entries[:historyLimit]
		}
		if m.selectedIdx > 0 {
			m.selectedIdx++
		}
		m.clampSelection()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.selectedIdx++
		case "k", "up":
			m.selectedIdx--
		case "g", "home":
			m.selectedIdx = 0
		case "G", "end":
			m.selectedIdx = len(m.visible()) - 1
		case "f":
			m.failuresOnly = !m.failuresOnly
			m.selectedIdx = 0
		case "r", "ctrl+r":
			return m, m.Refresh()
		}
		m.clampSelection()
	}
	return m, nil
}

// Entries returns the entries shown under the current filter.
func (m Model) Entries() []messages.ActivityEntry {
	return m.visible()
}

// UnreadCount returns the number of unread entries.
func (m Model) UnreadCount() int {
	count := 0
	for _, e := range m.entries {
		if !e.Read {
			count++
		}
	}
	return count
}

func (m Model) visible() []messages.ActivityEntry {
	if !m.failuresOnly {
		return m.entries
	}
	var out []messages.ActivityEntry
	for _, e := range m.entries {
		if !succeeded(e.Log.ResultStatus) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) clampSelection() {
	n := len(m.visible())
	m.selectedIdx = max(min(m.selectedIdx, n-1), 0)

	// Each entry takes two lines; keep the selection on screen.
	rows := max((m.height-4)/2, 1)
	if m.selectedIdx < m.offset {
		m.offset = m.selectedIdx
	}
	if m.selectedIdx >= m.offset+rows {
		m.offset = m.selectedIdx - rows + 1
	}
}

func succeeded(status string) bool {
	return status == "success"
}

// View renders the activity feed.
func (m Model) View() string {
	st := theme.Current()
	var sb strings.Builder

	title := "Bot Activity"
	if m.failuresOnly {
		title += " (failures)"
	}
	sb.WriteString(st.Title.Render(title))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(st.Error.Render("  " + m.err.Error()))
		sb.WriteString("\n")
	}

	entries := m.visible()
	if len(entries) == 0 {
		sb.WriteString("\n  No activity yet.\n")
		sb.WriteString(st.Hint.Render("\n  r:refresh  f:failures only"))
		return sb.String()
	}

	now := time.Now()
	rows := max((m.height-4)/2, 1)
	end := min(m.offset+rows, len(entries))
	for i := m.offset; i < end; i++ {
		e := entries[i]
		var line strings.Builder
		if !e.Read {
			line.WriteString(st.Unread.Render("● "))
		} else {
			line.WriteString("  ")
		}

		name := e.BotName
		if name == "" {
			name = fmt.Sprintf("bot #%d", e.Log.BotID)
		}
		line.WriteString(st.Author.Render(name))
		line.WriteString(" " + st.Meta.Render(e.Log.JobType))
		if succeeded(e.Log.ResultStatus) {
			line.WriteString(" " + st.Success.Render(e.Log.ResultStatus))
		} else {
			line.WriteString(" " + st.Error.Render(e.Log.ResultStatus))
		}
		if !e.Log.ExecutedAt.IsZero() {
			line.WriteString(" " + st.Meta.Render(render.TimeAgo(e.Log.ExecutedAt.Time, now)))
		}
		line.WriteString("\n    ")
		line.WriteString(render.Preview(e.Log.Message, max(m.width-8, 20)))

		entry := line.String()
		if i == m.selectedIdx {
			entry = st.Selected.Padding(0, 1).Render(entry)
		} else {
			entry = " " + entry
		}
		sb.WriteString(entry + "\n")
	}
	sb.WriteString(st.Hint.Render("  j/k:move  r:refresh  f:failures only  esc:back"))
	return sb.String()
}
