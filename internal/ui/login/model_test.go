package login

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/auth"
	"github.com/fragmede/hams/internal/storage"
	"github.com/fragmede/hams/internal/ui/messages"
)

func newSession(t *testing.T) (*auth.Session, *storage.Memory) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if body["email"] != "owner@hams.local" || body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"email":"owner@hams.local","nickname":"tester"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := storage.NewMemory()
	return auth.NewSession(api.NewClient(srv.URL, time.Second), store), store
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func fill(m Model, email, password string) Model {
	m = typeText(m, email)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	return typeText(m, password)
}

// loginResult runs a submit command and returns the login outcome from it.
func loginResult(t *testing.T, cmd tea.Cmd) messages.LoginResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if res, ok := c().(messages.LoginResultMsg); ok {
				return res
			}
		}
		t.Fatal("submit did not produce a login result")
	}
	res, ok := msg.(messages.LoginResultMsg)
	require.True(t, ok, "unexpected message %T", msg)
	return res
}

func TestSubmitRequiresBothFields(t *testing.T) {
	session, _ := newSession(t)

	m := New(session)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, ansi.Strip(m.View()), "Email and password required")

	m = typeText(New(session), "owner@hams.local")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "a missing password is not sent")
	assert.False(t, session.LoggedIn())
}

func TestSubmitLogsIn(t *testing.T) {
	session, store := newSession(t)

	m := fill(New(session), "owner@hams.local", "pw")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, ansi.Strip(m.View()), "Logging in")

	_, again := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again, "enter is ignored while a login is in flight")

	res := loginResult(t, cmd)
	require.NoError(t, res.Err)
	assert.Equal(t, "tester", res.Username)
	assert.True(t, session.LoggedIn())

	token, ok, err := store.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	m, _ = m.Update(res)
	assert.NotContains(t, ansi.Strip(m.View()), "Logging in")
}

func TestSubmitRejected(t *testing.T) {
	session, store := newSession(t)

	m := fill(New(session), "owner@hams.local", "nope")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	res := loginResult(t, cmd)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, api.ErrUnauthorized)
	assert.False(t, session.LoggedIn())
	_, ok, _ := store.Get(storage.KeyAccessToken)
	assert.False(t, ok)

	m, _ = m.Update(res)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "invalid credentials")
	assert.Empty(t, m.passwordInput.Value(), "the password is cleared for another try")
	assert.Equal(t, "owner@hams.local", m.emailInput.Value())
}
