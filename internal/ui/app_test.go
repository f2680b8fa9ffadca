package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/auth"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/monitor"
	"github.com/fragmede/hams/internal/storage"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

func newTestApp(t *testing.T, token string) *App {
	t.Helper()
	return newTestAppAt(t, "http://127.0.0.1:1", token)
}

func newTestAppAt(t *testing.T, serverURL, token string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.ServerURL = serverURL
	cfg.RequestTimeout = 100 * time.Millisecond
	cfg.ReconnectMin = 10 * time.Millisecond
	cfg.ReconnectMax = 40 * time.Millisecond

	db, err := cache.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	client.SetToken(token)
	session := auth.NewSession(client, storage.NewMemory())
	t.Cleanup(func() { theme.Set(false) })

	a := NewApp(t.Context(), cfg, session, db, monitor.New(cfg, client, db))
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

func press(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(a *App, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, m := range msgs {
		_, cmd = a.Update(m)
	}
	return cmd
}

func TestOpenPostAndBack(t *testing.T) {
	a := newTestApp(t, "")

	cmd := send(a, messages.OpenPostMsg{PostID: 7})
	assert.NotNil(t, cmd, "opening a post loads its thread")
	assert.Equal(t, ViewPost, a.ActiveView())
	assert.Equal(t, int64(7), a.postView.PostID())

	send(a, press("esc"))
	assert.Equal(t, ViewPostList, a.ActiveView())
}

func TestComposersRequireLogin(t *testing.T) {
	a := newTestApp(t, "")

	send(a, messages.OpenReplyMsg{PostID: 7})
	assert.Equal(t, ViewLogin, a.ActiveView())
	send(a, press("esc"))

	send(a, messages.OpenComposeMsg{})
	assert.Equal(t, ViewLogin, a.ActiveView())
	send(a, press("esc"))

	send(a, press("b"))
	assert.Equal(t, ViewLogin, a.ActiveView())
}

func TestReplyReturnsToPostOnSave(t *testing.T) {
	a := newTestApp(t, "tok")
	bots := []*api.Bot{{ID: 5, Name: "alpha"}}

	send(a, messages.OpenPostMsg{PostID: 7})
	send(a, messages.ThreadLoadedMsg{PostID: 7, Thread: &api.Thread{Post: &api.Post{ID: 7, Title: "t"}, Bots: bots, MaxDepth: 3}})
	assert.Equal(t, bots, a.bots, "thread bots become the composer authors")

	parent := &api.Comment{ID: 1, PostID: 7, Content: "root"}
	send(a, messages.OpenReplyMsg{PostID: 7, Parent: parent})
	require.Equal(t, ViewReply, a.ActiveView())

	send(a, messages.CommentSavedMsg{PostID: 7, Err: assert.AnError})
	assert.Equal(t, ViewReply, a.ActiveView(), "a failed save keeps the composer open")

	cmd := send(a, messages.CommentSavedMsg{PostID: 7, CommentID: 10})
	assert.Equal(t, ViewPost, a.ActiveView())
	assert.NotNil(t, cmd, "the thread reloads after a save")
	assert.Contains(t, ansi.Strip(a.View()), "Comment saved")
}

func TestTypingViewsSwallowGlobalKeys(t *testing.T) {
	a := newTestApp(t, "")

	send(a, press("L"))
	require.Equal(t, ViewLogin, a.ActiveView())

	send(a, press("q"))
	assert.Equal(t, ViewLogin, a.ActiveView())

	send(a, press("esc"))
	assert.Equal(t, ViewPostList, a.ActiveView())
}

func TestCategoryKeys(t *testing.T) {
	a := newTestApp(t, "")

	send(a, press("3"))
	assert.Equal(t, api.CategoryCulture, a.postList.Category())

	send(a, press("tab"))
	assert.Equal(t, api.CategoryEntertainment, a.postList.Category())

	send(a, messages.OpenPostMsg{PostID: 7})
	send(a, press("1"))
	assert.Equal(t, ViewPostList, a.ActiveView(), "switching category returns to the list")
	assert.Equal(t, api.Category(""), a.postList.Category())
	assert.Empty(t, a.previousViews)
}

func TestThemeToggle(t *testing.T) {
	a := newTestApp(t, "")
	require.False(t, theme.Current().Dark)

	cmd := send(a, press("T"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ThemeChangedMsg{Dark: true}, cmd())
	assert.True(t, theme.Current().Dark)
	assert.Equal(t, auth.ThemeDark, a.session.Theme())

	send(a, press("T"))
	assert.False(t, theme.Current().Dark)
}

func TestHelpOverlay(t *testing.T) {
	a := newTestApp(t, "")

	send(a, press("?"))
	require.Equal(t, ViewHelp, a.ActiveView())
	view := ansi.Strip(a.View())
	assert.Contains(t, view, "fold all")
	assert.Contains(t, view, "next sibling")

	send(a, press("j"))
	assert.Equal(t, ViewPostList, a.ActiveView())
}

func TestActivityUnreadClearedOnLeave(t *testing.T) {
	a := newTestApp(t, "")
	added, err := a.cache.AddActivity(&api.ActivityLog{ID: 1, BotID: 5, JobType: "post", ResultStatus: "success", Message: "hello"})
	require.NoError(t, err)
	require.True(t, added)

	send(a, messages.ActivityMsg{Log: api.ActivityLog{ID: 1, Message: "hello"}, Unread: 1})
	assert.Len(t, a.activity.Entries(), 1)

	cmd := send(a, press("a"))
	require.Equal(t, ViewActivity, a.ActiveView())
	require.NotNil(t, cmd)
	send(a, cmd())
	assert.Len(t, a.activity.Entries(), 1)

	send(a, press("esc"))
	assert.Equal(t, ViewPostList, a.ActiveView())
	assert.Zero(t, a.cache.UnreadActivityCount())
}

func TestSessionRestoreAndLogout(t *testing.T) {
	a := newTestApp(t, "tok")

	send(a, messages.SessionRestoredMsg{Username: "tester"})
	assert.Contains(t, ansi.Strip(a.View()), "tester")

	send(a, messages.ConnectionMsg{State: messages.ConnConnected})
	assert.Contains(t, ansi.Strip(a.View()), "live")

	cmd := send(a, press("O"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, messages.LoggedOutMsg{}, msg)
	assert.False(t, a.session.LoggedIn())

	send(a, msg)
	view := ansi.Strip(a.View())
	assert.NotContains(t, view, "tester")
	assert.Contains(t, view, "Logged out")
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, "")

	send(a, messages.OpenPostMsg{PostID: 7})
	cmd := send(a, press("q"))
	assert.Equal(t, ViewPostList, a.ActiveView(), "q goes back from a sub view")
	assert.Nil(t, cmd)

	cmd = send(a, press("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

// newFeedServer accepts the activity feed only for token "tok" and logs in
// owner@hams.local with password "pw".
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var upgrader websocket.Upgrader
	reply := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("GET /activity-logs", func(w http.ResponseWriter, r *http.Request) {
		reply(w, `[]`)
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply(w, `{"access_token":"tok","token_type":"bearer"}`)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply(w, `{"id":1,"email":"owner@hams.local","nickname":"tester"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func waitConn(t *testing.T, msgs <-chan tea.Msg, match func(messages.ConnectionMsg) bool) messages.ConnectionMsg {
	t.Helper()
	for {
		select {
		case msg := <-msgs:
			if c, ok := msg.(messages.ConnectionMsg); ok && match(c) {
				return c
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the activity feed")
		}
	}
}

func TestRejectedFeedAllowsLoginAgain(t *testing.T) {
	srv := newFeedServer(t)
	a := newTestAppAt(t, srv.URL, "wrong")
	msgs := make(chan tea.Msg, 64)
	a.SetProgram(monitor.SinkFunc(func(msg tea.Msg) {
		select {
		case msgs <- msg:
		default:
		}
	}))
	t.Cleanup(a.monitor.Stop)

	send(a, messages.SessionRestoredMsg{Username: "tester"})
	rejected := waitConn(t, msgs, func(c messages.ConnectionMsg) bool {
		return errors.Is(c.Err, api.ErrUnauthorized)
	})

	cmd := send(a, rejected)
	require.NotNil(t, cmd, "a rejected feed clears the session")
	out := cmd()
	assert.Equal(t, messages.LoggedOutMsg{Expired: true}, out)
	assert.False(t, a.session.LoggedIn())

	send(a, out)
	assert.Contains(t, ansi.Strip(a.View()), "Session expired")

	send(a, press("L"))
	require.Equal(t, ViewLogin, a.ActiveView(), "L opens the login form once the token is gone")

	require.NoError(t, a.session.Login(t.Context(), "owner@hams.local", "pw"))
	send(a, messages.LoginResultMsg{Username: "tester"})
	assert.Equal(t, ViewPostList, a.ActiveView())

	waitConn(t, msgs, func(c messages.ConnectionMsg) bool {
		return c.State == messages.ConnConnected
	})
	assert.Equal(t, messages.ConnConnected, a.monitor.State())
}

func TestLogoutThenLoginKeepsNewFeed(t *testing.T) {
	srv := newFeedServer(t)
	a := newTestAppAt(t, srv.URL, "tok")
	msgs := make(chan tea.Msg, 64)
	a.SetProgram(monitor.SinkFunc(func(msg tea.Msg) {
		select {
		case msgs <- msg:
		default:
		}
	}))
	t.Cleanup(a.monitor.Stop)

	send(a, messages.SessionRestoredMsg{Username: "tester"})
	waitConn(t, msgs, func(c messages.ConnectionMsg) bool { return c.State == messages.ConnConnected })

	// Logging straight back in must not be undone by the logout.
	send(a, messages.LoggedOutMsg{})
	assert.Equal(t, messages.ConnDisconnected, a.monitor.State())
	send(a, messages.SessionRestoredMsg{Username: "tester"})

	waitConn(t, msgs, func(c messages.ConnectionMsg) bool { return c.State == messages.ConnConnected })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, messages.ConnConnected, a.monitor.State())
	select {
	case <-a.monitor.Done():
		t.Fatal("the new feed was stopped")
	default:
	}
}
