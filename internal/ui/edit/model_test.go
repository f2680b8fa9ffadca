package edit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/messages"
)

func TestUnchangedIsRejected(t *testing.T) {
	m := New(&api.Comment{ID: 3, PostID: 7, Content: "same"}, nil)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Nothing changed")
}

func TestSaveSendsPatch(t *testing.T) {
	var method, path, content string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		content = body["content"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Comment{ID: 3, PostID: 7, Content: content})
	}))
	defer srv.Close()

	m := New(&api.Comment{ID: 3, PostID: 7, Content: "old"}, api.NewClient(srv.URL, time.Second))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" text")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.CommentSavedMsg{PostID: 7, CommentID: 3}, cmd())
	assert.Equal(t, "PATCH", method)
	assert.Equal(t, "/sns/comments/3", path)
	assert.Equal(t, "old text", content)
}
