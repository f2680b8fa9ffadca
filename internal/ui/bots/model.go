package bots

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/render"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

type jobsLoadedMsg struct {
	BotID int64
	Jobs  []*api.BotJob
	Err   error
}

// Model is the bot management view. It also holds the reply depth setting.
type Model struct {
	bots        []*api.Bot
	selectedIdx int
	maxDepth    int
	// pendingDepth differs from maxDepth while an edit is unsaved.
	pendingDepth  int
	pendingDelete int64
	jobs          map[int64][]*api.BotJob
	showJobs      bool
	form          *Form
	loading       bool
	err           string
	client        *api.Client
	cache         *cache.DB
	cfg           config.Config
	width         int
	height        int
}

// New creates the bots view.
func New(cfg config.Config, client *api.Client, db *cache.DB) Model {
	return Model{
		maxDepth:     api.DefaultCommentDepth,
		pendingDepth: api.DefaultCommentDepth,
		jobs:         make(map[int64][]*api.BotJob),
		loading:      true,
		client:       client,
		cache:        db,
		cfg:          cfg,
	}
}

// Init loads the bots and the depth setting.
func (m Model) Init() tea.Cmd {
	return load(m.client, m.cache, m.cfg, false)
}

func load(client *api.Client, db *cache.DB, cfg config.Config, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		msg := messages.BotsLoadedMsg{MaxDepth: api.DefaultCommentDepth}
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if !force {
				if cached, fresh, err := db.GetBots(cfg.BotListTTL); err == nil && fresh {
					msg.Bots = cached
					return nil
				}
			}
			bots, err := client.ListBots(ctx)
			if err != nil {
				return err
			}
			if err := db.PutBots(bots); err != nil {
				slog.Warn("caching bots", "error", err)
			}
			msg.Bots = bots
			return nil
		})
		g.Go(func() error {
			depth, err := client.GetCommentDepth(ctx)
			if err != nil {
				slog.Warn("loading comment depth", "error", err)
				return nil
			}
			msg.MaxDepth = depth
			return nil
		})
		msg.Err = g.Wait()
		return msg
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.SetSize(w, h)
	}
}

// Bots returns the loaded bots.
func (m Model) Bots() []*api.Bot {
	return m.bots
}

// Editing reports whether the create form has focus.
func (m Model) Editing() bool {
	return m.form != nil
}

func (m Model) selected() *api.Bot {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.bots) {
		return nil
	}
	return m.bots[m.selectedIdx]
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.BotsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.bots = msg.Bots
		m.maxDepth = msg.MaxDepth
		m.pendingDepth = msg.MaxDepth
		m.selectedIdx = max(min(m.selectedIdx, len(m.bots)-1), 0)
		return m, nil

	case messages.BotSavedMsg:
		if m.form != nil {
			if msg.Err != nil {
				f, cmd := m.form.Update(msg)
				m.form = &f
				return m, cmd
			}
			m.form = nil
		}
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.upsert(msg.Bot)
		return m, m.persist()

	case messages.BotDeletedMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		for i, b := range m.bots {
			if b.ID == msg.BotID {
				m.bots = append(m.bots[:i:i], m.bots[i+1:]...)
				break
			}
		}
		m.selectedIdx = max(min(m.selectedIdx, len(m.bots)-1), 0)
		return m, m.persist()

	case messages.DepthSavedMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			m.pendingDepth = m.maxDepth
			return m, nil
		}
		m.maxDepth = msg.Depth
		m.pendingDepth = msg.Depth
		return m, nil

	case jobsLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.jobs[msg.BotID] = msg.Jobs
		return m, nil
	}

	if m.form != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.form = nil
			return m, nil
		}
		f, cmd := m.form.Update(msg)
		m.form = &f
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	key := k.String()
	if key != "x" {
		m.pendingDelete = 0
	}
	switch key {
	case "j", "down":
		m.selectedIdx = min(m.selectedIdx+1, max(len(m.bots)-1, 0))
	case "k", "up":
		m.selectedIdx = max(m.selectedIdx-1, 0)
	case "r", "ctrl+r":
		m.loading = true
		return m, load(m.client, m.cache, m.cfg, true)
	case "n":
		f := NewForm(m.client, m.cfg)
		f.SetSize(m.width, m.height)
		m.form = &f
		return m, nil
	case "enter":
		m.showJobs = !m.showJobs
		if b := m.selected(); b != nil && m.showJobs {
			return m, loadJobs(m.client, b.ID)
		}
	case " ":
		if b := m.selected(); b != nil {
			client, id, active := m.client, b.ID, !b.IsActive
			return m, func() tea.Msg {
				bot, err := client.SetBotActive(context.Background(), id, active)
				return messages.BotSavedMsg{Bot: bot, Err: err}
			}
		}
	case "x":
		b := m.selected()
		if b == nil {
			return m, nil
		}
		if m.pendingDelete != b.ID {
			m.pendingDelete = b.ID
			return m, status(fmt.Sprintf("press x again to delete %s", b.Name), false)
		}
		m.pendingDelete = 0
		client, id := m.client, b.ID
		return m, func() tea.Msg {
			return messages.BotDeletedMsg{BotID: id, Err: client.DeleteBot(context.Background(), id)}
		}
	case "+", "=":
		m.pendingDepth = api.ClampCommentDepth(m.pendingDepth + 1)
	case "-":
		m.pendingDepth = api.ClampCommentDepth(m.pendingDepth - 1)
	case "s":
		if m.pendingDepth == m.maxDepth {
			return m, nil
		}
		client, depth := m.client, m.pendingDepth
		return m, func() tea.Msg {
			saved, err := client.SetCommentDepth(context.Background(), depth)
			return messages.DepthSavedMsg{Depth: saved, Err: err}
		}
	}
	return m, nil
}

func (m *Model) upsert(bot *api.Bot) {
	if bot == nil {
		return
	}
	for i, b := range m.bots {
		if b.ID == bot.ID {
			m.bots[i] = bot
			return
		}
	}
	m.bots = append(m.bots, bot)
	m.selectedIdx = len(m.bots) - 1
}

// persist writes the current list to the cache and announces it so other
// views pick up the change.
func (m Model) persist() tea.Cmd {
	bots := append([]*api.Bot(nil), m.bots...)
	db, depth := m.cache, m.maxDepth
	return func() tea.Msg {
		if err := db.PutBots(bots); err != nil {
			slog.Warn("caching bots", "error", err)
		}
		return messages.BotsLoadedMsg{Bots: bots, MaxDepth: depth}
	}
}

func loadJobs(client *api.Client, botID int64) tea.Cmd {
	return func() tea.Msg {
		jobs, err := client.ListBotJobs(context.Background(), botID)
		return jobsLoadedMsg{BotID: botID, Jobs: jobs, Err: err}
	}
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return messages.StatusMsg{Text: text, IsError: isError} }
}

// View renders the bot list or the create form.
func (m Model) View() string {
	if m.form != nil {
		return m.form.View()
	}
	st := theme.Current()
	var sb strings.Builder

	sb.WriteString(st.Title.Render("Bots"))
	sb.WriteString("\n")

	depth := fmt.Sprintf("Max reply depth: %d", m.maxDepth)
	if m.pendingDepth != m.maxDepth {
		depth += st.Focused.Render(fmt.Sprintf(" → %d (s to save)", m.pendingDepth))
	}
	sb.WriteString(st.Label.Render(depth))
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(st.Error.Render(m.err))
		sb.WriteString("\n\n")
	}

	switch {
	case m.loading && len(m.bots) == 0:
		sb.WriteString("  Loading bots...\n")
	case len(m.bots) == 0:
		sb.WriteString("  No bots yet. Press n to create one.\n")
	}

	for i, b := range m.bots {
		state := st.Success.Render("active")
		if !b.IsActive {
			state = st.Dim.Render("paused")
		}
		line := fmt.Sprintf("%s %s %s", st.Author.Render(b.Name), st.Meta.Render(fmt.Sprintf("%s/%s", b.AIProvider, b.AIModel)), state)
		if !b.HasAPIKey {
			line += " " + st.Error.Render("no api key")
		}
		detail := st.Meta.Render("topic: " + render.Preview(b.Topic, 40) + " | persona: " + render.Preview(b.Persona, 40))
		entry := line + "\n   " + detail
		if i == m.selectedIdx {
			entry = st.Selected.Padding(0, 1).Render(entry)
		} else {
			entry = " " + entry
		}
		sb.WriteString(entry + "\n")

		if i == m.selectedIdx && m.showJobs {
			sb.WriteString(m.jobsView(b.ID))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(st.Hint.Render("j/k:move  space:pause/resume  enter:jobs  n:new  x:delete  +/-:depth  s:save depth  r:refresh"))
	return sb.String()
}

func (m Model) jobsView(botID int64) string {
	st := theme.Current()
	jobs, ok := m.jobs[botID]
	if !ok {
		return st.Dim.Render("     loading jobs...") + "\n"
	}
	if len(jobs) == 0 {
		return st.Dim.Render("     no scheduled jobs") + "\n"
	}
	var sb strings.Builder
	for _, j := range jobs {
		line := fmt.Sprintf("     %s every %ds, %s", j.JobType, j.IntervalSeconds, j.Status)
		if j.RetryCount > 0 {
			line += fmt.Sprintf(", retry %d/%d", j.RetryCount, j.MaxRetries)
		}
		if j.LastError != nil {
			line += ": " + render.Preview(*j.LastError, 50)
		}
		sb.WriteString(st.Meta.Render(line) + "\n")
	}
	return sb.String()
}
