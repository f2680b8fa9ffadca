package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/auth"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/monitor"
	"github.com/fragmede/hams/internal/ui/activity"
	"github.com/fragmede/hams/internal/ui/bots"
	"github.com/fragmede/hams/internal/ui/compose"
	"github.com/fragmede/hams/internal/ui/edit"
	"github.com/fragmede/hams/internal/ui/login"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/postlist"
	"github.com/fragmede/hams/internal/ui/postview"
	"github.com/fragmede/hams/internal/ui/reply"
	"github.com/fragmede/hams/internal/ui/statusbar"
	"github.com/fragmede/hams/internal/ui/theme"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewPostList ViewType = iota
	ViewPost
	ViewLogin
	ViewReply
	ViewEditComment
	ViewCompose
	ViewActivity
	ViewBots
	ViewHelp
)

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	postList  postlist.Model
	postView  postview.Model
	loginForm login.Model
	replyForm reply.Model
	editForm  edit.Model
	compose   compose.Model
	activity  activity.Model
	botsView  bots.Model
	statusBar statusbar.Model
	help      help.Model

	// Shared state
	ctx     context.Context
	cfg     config.Config
	client  *api.Client
	cache   *cache.DB
	session *auth.Session
	monitor *monitor.Monitor
	// bots offered as authors in the composers.
	bots []*api.Bot

	width  int
	height int

	// Receives monitor messages; the tea.Program in production.
	program monitor.Sink
}

// NewApp creates the root application model. The session should already be
// hydrated so the saved theme applies from the first frame.
func NewApp(ctx context.Context, cfg config.Config, session *auth.Session, db *cache.DB, mon *monitor.Monitor) *App {
	client := session.Client()
	theme.Set(session.Theme() == auth.ThemeDark)

	h := help.New()
	h.ShowAll = true

	return &App{
		activeView: ViewPostList,
		postList:   postlist.New(cfg, client, db),
		activity:   activity.New(cfg, client, db),
		botsView:   bots.New(cfg, client, db),
		statusBar:  statusbar.New(),
		help:       h,
		ctx:        ctx,
		cfg:        cfg,
		client:     client,
		cache:      db,
		session:    session,
		monitor:    mon,
	}
}

// SetProgram stores the tea.Program reference for the background monitor.
func (a *App) SetProgram(p monitor.Sink) {
	a.program = p
}

// ActiveView returns the view currently on screen.
func (a *App) ActiveView() ViewType {
	return a.activeView
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetUnread(a.cache.UnreadActivityCount())
	return tea.Batch(a.postList.Init(), a.tryRestoreSession())
}

func (a *App) tryRestoreSession() tea.Cmd {
	if !a.session.LoggedIn() {
		return nil
	}
	session, ctx, timeout := a.session, a.ctx, a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := session.Validate(ctx)
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return messages.StatusMsg{Text: "Session expired, press L to log in", IsError: true}
		case err != nil:
			// Offline: keep the token and let the monitor retry.
			return messages.SessionRestoredMsg{}
		}
		return messages.SessionRestoredMsg{Username: session.Username()}
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetSize(msg.Width)
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	// View transitions.
	case messages.OpenPostMsg:
		a.pushView(ViewPost)
		a.postView = postview.New(msg.PostID, a.cfg, a.client, a.cache)
		a.postView.SetSize(a.width, a.contentHeight())
		return a, a.postView.Init()

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.OpenLoginMsg:
		a.openLogin()
		return a, nil

	case messages.OpenReplyMsg:
		if !a.session.LoggedIn() {
			a.openLogin()
			return a, nil
		}
		a.pushView(ViewReply)
		a.replyForm = reply.New(msg.PostID, msg.Parent, a.bots, a.client)
		a.replyForm.SetSize(a.width, a.contentHeight())
		return a, nil

	case messages.OpenEditCommentMsg:
		a.pushView(ViewEditComment)
		a.editForm = edit.New(msg.Comment, a.client)
		a.editForm.SetSize(a.width, a.contentHeight())
		return a, nil

	case messages.OpenComposeMsg:
		if !a.session.LoggedIn() {
			a.openLogin()
			return a, nil
		}
		a.pushView(ViewCompose)
		a.compose = compose.New(msg.Post, a.bots, a.client)
		a.compose.SetSize(a.width, a.contentHeight())
		return a, nil

	case messages.OpenActivityMsg:
		return a, a.openActivity()

	case messages.OpenBotsMsg:
		return a, a.openBots()

	case messages.ShowHelpMsg:
		a.pushView(ViewHelp)
		return a, nil

	case messages.SwitchCategoryMsg:
		return a, a.switchCategory(msg.Category)

	// Data messages go to the view that owns them, wherever it is in the stack.
	case messages.PostsLoadedMsg:
		a.statusBar.SetOffline(msg.Stale)
		var cmd tea.Cmd
		a.postList, cmd = a.postList.Update(msg)
		return a, cmd

	case messages.PostDeletedMsg:
		var cmd tea.Cmd
		a.postList, cmd = a.postList.Update(msg)
		if msg.Err != nil {
			a.statusBar.SetStatus("Delete failed: "+msg.Err.Error(), true)
		} else {
			a.statusBar.SetStatus("Post deleted", false)
		}
		return a, cmd

	case messages.ThreadLoadedMsg:
		if msg.Err == nil && msg.Thread != nil && len(msg.Thread.Bots) > 0 {
			a.bots = msg.Thread.Bots
		}
		return a, a.updatePostView(msg)

	case messages.CommentSavedMsg:
		if msg.Err != nil {
			return a, a.updateActive(msg)
		}
		if a.activeView == ViewReply || a.activeView == ViewEditComment {
			a.goBack()
		}
		a.statusBar.SetStatus("Comment saved", false)
		return a, a.updatePostView(msg)

	case messages.CommentDeletedMsg:
		return a, a.updatePostView(msg)

	case messages.PostSavedMsg:
		if msg.Err != nil {
			return a, a.updateActive(msg)
		}
		if a.activeView == ViewCompose {
			a.goBack()
		}
		a.statusBar.SetStatus("Post saved", false)
		cmds := []tea.Cmd{a.postList.Refresh()}
		if msg.Post != nil && a.postView.PostID() == msg.Post.ID {
			cmds = append(cmds, a.postView.Refresh())
		}
		return a, tea.Batch(cmds...)

	case messages.BotsLoadedMsg:
		if msg.Err == nil {
			a.bots = msg.Bots
		}
		var cmd tea.Cmd
		a.botsView, cmd = a.botsView.Update(msg)
		return a, cmd

	case messages.BotSavedMsg, messages.BotDeletedMsg, messages.ModelsLoadedMsg:
		var cmd tea.Cmd
		a.botsView, cmd = a.botsView.Update(msg)
		return a, cmd

	case messages.DepthSavedMsg:
		var cmd tea.Cmd
		a.botsView, cmd = a.botsView.Update(msg)
		if msg.Err == nil {
			a.statusBar.SetStatus("Max comment depth saved", false)
		}
		return a, tea.Batch(cmd, a.updatePostView(msg))

	case messages.ActivityLoadedMsg:
		var cmd tea.Cmd
		a.activity, cmd = a.activity.Update(msg)
		return a, cmd

	case messages.ActivityMsg:
		a.statusBar.SetUnread(msg.Unread)
		var cmd tea.Cmd
		a.activity, cmd = a.activity.Update(msg)
		return a, cmd

	case messages.ConnectionMsg:
		a.statusBar.SetConn(msg.State)
		if errors.Is(msg.Err, api.ErrUnauthorized) && a.session.LoggedIn() {
			// The token is dead; drop it so L opens the login form again.
			return a, a.expireSession()
		}
		return a, nil

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil

	case messages.SessionRestoredMsg:
		return a, a.onLogin(msg.Username)

	case messages.LoginResultMsg:
		var cmd tea.Cmd
		a.loginForm, cmd = a.loginForm.Update(msg)
		if msg.Err != nil {
			return a, cmd
		}
		if a.activeView == ViewLogin {
			a.goBack()
		}
		return a, tea.Batch(cmd, a.onLogin(msg.Username))

	case messages.LoggedOutMsg:
		// Cancel rather than Stop: the loop may be blocked sending to us.
		a.monitor.Cancel()
		a.bots = nil
		a.statusBar.SetUser("")
		a.statusBar.SetConn(messages.ConnDisconnected)
		if msg.Expired {
			a.statusBar.SetStatus("Session expired, press L to log in", true)
		} else {
			a.statusBar.SetStatus("Logged out", false)
		}
		return a, a.postList.Refresh()

	case messages.ThemeChangedMsg:
		// Views with pre-rendered content pick up the new palette on resize.
		a.resize()
		return a, nil
	}

	return a, a.updateActive(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return a.quit(), true
	}
	a.statusBar.SetStatus("", false)

	if a.typing() {
		if key.Matches(msg, Keys.Back) && a.activeView != ViewBots {
			return a.goBack(), true
		}
		return nil, false
	}

	if a.activeView == ViewHelp {
		return a.goBack(), true
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if a.activeView == ViewPostList {
			return a.quit(), true
		}
		return a.goBack(), true
	case key.Matches(msg, Keys.Back):
		if a.activeView == ViewPostList {
			return nil, false
		}
		return a.goBack(), true
	case key.Matches(msg, Keys.Help):
		a.pushView(ViewHelp)
		return nil, true
	case key.Matches(msg, Keys.NextTab):
		return a.switchCategory(statusbar.CategoryAt(a.categoryIndex() + 1)), true
	case key.Matches(msg, Keys.PrevTab):
		return a.switchCategory(statusbar.CategoryAt(a.categoryIndex() - 1)), true
	case key.Matches(msg, Keys.Tab1):
		return a.switchCategory(statusbar.CategoryAt(0)), true
	case key.Matches(msg, Keys.Tab2):
		return a.switchCategory(statusbar.CategoryAt(1)), true
	case key.Matches(msg, Keys.Tab3):
		return a.switchCategory(statusbar.CategoryAt(2)), true
	case key.Matches(msg, Keys.Tab4):
		return a.switchCategory(statusbar.CategoryAt(3)), true
	case key.Matches(msg, Keys.Tab5):
		return a.switchCategory(statusbar.CategoryAt(4)), true
	case key.Matches(msg, Keys.Login):
		if !a.session.LoggedIn() {
			a.openLogin()
		}
		return nil, true
	case key.Matches(msg, Keys.Logout):
		if !a.session.LoggedIn() {
			return nil, true
		}
		return a.logout(), true
	case key.Matches(msg, Keys.Activity):
		if a.activeView == ViewActivity {
			return nil, false
		}
		return a.openActivity(), true
	case key.Matches(msg, Keys.Bots):
		if a.activeView == ViewBots {
			return nil, true
		}
		return a.openBots(), true
	case key.Matches(msg, Keys.Theme):
		return a.toggleTheme(), true
	}
	return nil, false
}

// typing reports whether the active view is taking text input, in which
// case only esc and ctrl+c are global.
func (a *App) typing() bool {
	switch a.activeView {
	case ViewLogin, ViewReply, ViewEditComment, ViewCompose:
		return true
	case ViewBots:
		return a.botsView.Editing()
	case ViewPostList:
		return a.postList.Filtering()
	}
	return false
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.activeView {
	case ViewPostList:
		a.postList, cmd = a.postList.Update(msg)
		a.statusBar.SetCategory(a.postList.Category())
	case ViewPost:
		a.postView, cmd = a.postView.Update(msg)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewReply:
		a.replyForm, cmd = a.replyForm.Update(msg)
	case ViewEditComment:
		a.editForm, cmd = a.editForm.Update(msg)
	case ViewCompose:
		a.compose, cmd = a.compose.Update(msg)
	case ViewActivity:
		a.activity, cmd = a.activity.Update(msg)
	case ViewBots:
		a.botsView, cmd = a.botsView.Update(msg)
	}
	return cmd
}

// updatePostView forwards msg to the post view if one has been opened.
func (a *App) updatePostView(msg tea.Msg) tea.Cmd {
	if a.postView.PostID() == 0 {
		return nil
	}
	var cmd tea.Cmd
	a.postView, cmd = a.postView.Update(msg)
	return cmd
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewPostList:
		content = a.postList.View()
	case ViewPost:
		content = a.postView.View()
	case ViewLogin:
		content = a.loginForm.View()
	case ViewReply:
		content = a.replyForm.View()
	case ViewEditComment:
		content = a.editForm.View()
	case ViewCompose:
		content = a.compose.View()
	case ViewActivity:
		content = a.activity.View()
	case ViewBots:
		content = a.botsView.View()
	case ViewHelp:
		content = a.helpView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) helpView() string {
	st := theme.Current()
	a.help.Width = a.width
	body := st.Title.Render("Keys") + "\n\n" + a.help.View(Keys) + "\n\n" + st.Hint.Render("Press any key to close")
	return lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center, body)
}

func (a *App) contentHeight() int {
	return max(a.height-1, 1) // Reserve 1 line for status bar.
}

// resize applies the window size to the views that exist.
func (a *App) resize() {
	h := a.contentHeight()
	a.postList.SetSize(a.width, h)
	a.activity.SetSize(a.width, h)
	a.botsView.SetSize(a.width, h)
	if a.postView.PostID() != 0 {
		a.postView.SetSize(a.width, h)
	}
	switch a.activeView {
	case ViewLogin:
		a.loginForm.SetSize(a.width, h)
	case ViewReply:
		a.replyForm.SetSize(a.width, h)
	case ViewEditComment:
		a.editForm.SetSize(a.width, h)
	case ViewCompose:
		a.compose.SetSize(a.width, h)
	}
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if a.activeView == ViewActivity {
		a.activity.MarkRead()
		a.statusBar.SetUnread(0)
	}
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	} else {
		a.activeView = ViewPostList
	}
	a.resize()
	return nil
}

func (a *App) openLogin() {
	a.pushView(ViewLogin)
	a.loginForm = login.New(a.session)
	a.loginForm.SetSize(a.width, a.contentHeight())
}

func (a *App) openActivity() tea.Cmd {
	a.pushView(ViewActivity)
	a.activity.SetSize(a.width, a.contentHeight())
	if !a.session.LoggedIn() {
		return a.activity.Load()
	}
	return a.activity.Refresh()
}

func (a *App) openBots() tea.Cmd {
	if !a.session.LoggedIn() {
		a.openLogin()
		return nil
	}
	a.pushView(ViewBots)
	a.botsView.SetSize(a.width, a.contentHeight())
	return a.botsView.Init()
}

func (a *App) categoryIndex() int {
	current := a.postList.Category()
	for i := range statusbar.TabCount() {
		if statusbar.CategoryAt(i) == current {
			return i
		}
	}
	return 0
}

func (a *App) switchCategory(c api.Category) tea.Cmd {
	if a.activeView != ViewPostList {
		a.activeView = ViewPostList
		a.previousViews = nil
		a.resize()
	}
	var cmd tea.Cmd
	a.postList, cmd = a.postList.Update(messages.SwitchCategoryMsg{Category: c})
	a.statusBar.SetCategory(c)
	return cmd
}

func (a *App) toggleTheme() tea.Cmd {
	t, err := a.session.ToggleTheme()
	dark := t == auth.ThemeDark
	theme.Set(dark)
	if err != nil {
		a.statusBar.SetStatus(err.Error(), true)
	}
	return func() tea.Msg { return messages.ThemeChangedMsg{Dark: dark} }
}

// onLogin updates shared state for a validated or restored session.
func (a *App) onLogin(username string) tea.Cmd {
	if username == "" {
		username = "offline"
	}
	a.statusBar.SetUser(username)
	a.statusBar.SetUnread(a.cache.UnreadActivityCount())
	if a.program != nil {
		a.monitor.Start(a.ctx, a.program)
	}
	return tea.Batch(a.postList.Refresh(), a.botsView.Init())
}

func (a *App) logout() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		if err := session.Logout(); err != nil {
			return messages.StatusMsg{Text: err.Error(), IsError: true}
		}
		return messages.LoggedOutMsg{}
	}
}

func (a *App) expireSession() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		if err := session.Logout(); err != nil {
			return messages.StatusMsg{Text: err.Error(), IsError: true}
		}
		return messages.LoggedOutMsg{Expired: true}
	}
}

func (a *App) quit() tea.Cmd {
	a.monitor.Cancel()
	return tea.Quit
}
