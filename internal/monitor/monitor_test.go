package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/ui/messages"
)

type feedServer struct {
	*httptest.Server
	upgrader websocket.Upgrader
	conns    atomic.Int32
	backlog  []api.ActivityLog
	// frames are written on each connection, indexed by connection number.
	frames [][]string
}

func newFeedServer(t *testing.T, backlog []api.ActivityLog, frames ...[]string) *feedServer {
	t.Helper()
	fs := &feedServer{backlog: backlog, frames: frames}
	mux := http.NewServeMux()
	mux.HandleFunc("/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fs.backlog)
	})
	mux.HandleFunc("/ws/activity-logs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := int(fs.conns.Add(1)) - 1
		if n < len(fs.frames) {
			for _, f := range fs.frames[n] {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
					return
				}
			}
		}
		if n >= len(fs.frames)-1 {
			// The last scripted connection and any later one stay open
			// until the client leaves.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func testMonitor(t *testing.T, srv *httptest.Server, token string, db *cache.DB) *Monitor {
	t.Helper()
	cfg := config.Default()
	cfg.ServerURL = srv.URL
	cfg.ReconnectMin = 10 * time.Millisecond
	cfg.ReconnectMax = 40 * time.Millisecond
	cfg.RequestTimeout = time.Second
	cfg.ActivityBacklog = 10

	client := api.NewClient(srv.URL, time.Second)
	client.SetToken(token)
	return New(cfg, client, db)
}

type recorder chan tea.Msg

func (r recorder) Send(msg tea.Msg) { r <- msg }

func (r recorder) nextActivity(t *testing.T) messages.ActivityMsg {
	t.Helper()
	for {
		select {
		case msg := <-r:
			if a, ok := msg.(messages.ActivityMsg); ok {
				return a
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for activity")
		}
	}
}

func (r recorder) waitState(t *testing.T, want messages.ConnState) messages.ConnectionMsg {
	t.Helper()
	for {
		select {
		case msg := <-r:
			if c, ok := msg.(messages.ConnectionMsg); ok && c.State == want {
				return c
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func frame(id int64, msg string) string {
	data, _ := json.Marshal(map[string]any{
		"type": "activity_log",
		"data": map[string]any{
			"id": id, "bot_id": 1, "job_id": 2, "job_type": "post",
			"result_status": "success", "message": msg,
			"executed_at": "2025-03-01T10:00:00",
		},
	})
	return string(data)
}

func TestBackfillThenLive(t *testing.T) {
	backlog := []api.ActivityLog{{ID: 2, Message: "second"}, {ID: 1, Message: "first"}}
	srv := newFeedServer(t, backlog, []string{
		`{"type":"ping"}`,
		`not json`,
		frame(2, "second again"),
		frame(3, "third"),
	})
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	m := testMonitor(t, srv.Server, "tok", db)
	rec := make(recorder, 64)
	m.Start(context.Background(), rec)
	defer m.Stop()

	rec.waitState(t, messages.ConnConnected)
	assert.Equal(t, "first", rec.nextActivity(t).Log.Message, "backlog replayed oldest first")
	assert.Equal(t, "second", rec.nextActivity(t).Log.Message)
	third := rec.nextActivity(t)
	assert.Equal(t, int64(3), third.Log.ID, "duplicate 2 is dropped")
	assert.Equal(t, 3, third.Unread)
	assert.Equal(t, 2025, third.Log.ExecutedAt.Year())

	assert.Equal(t, 3, db.UnreadActivityCount())
	assert.Equal(t, messages.ConnConnected, m.State())
}

func TestReconnects(t *testing.T) {
	srv := newFeedServer(t, nil,
		[]string{frame(1, "before drop")},
		[]string{frame(1, "replayed"), frame(2, "after reconnect")},
	)
	m := testMonitor(t, srv.Server, "tok", nil)
	rec := make(recorder, 64)
	m.Start(context.Background(), rec)
	defer m.Stop()

	assert.Equal(t, int64(1), rec.nextActivity(t).Log.ID)
	rec.waitState(t, messages.ConnDisconnected)
	rec.waitState(t, messages.ConnConnected)
	got := rec.nextActivity(t)
	assert.Equal(t, int64(2), got.Log.ID)
	assert.Equal(t, 2, got.Unread)
	assert.GreaterOrEqual(t, srv.conns.Load(), int32(2))
}

func TestRejectedTokenStops(t *testing.T) {
	srv := newFeedServer(t, nil, []string{})
	m := testMonitor(t, srv.Server, "wrong", nil)
	rec := make(recorder, 64)
	m.Start(context.Background(), rec)

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("monitor kept retrying a rejected token")
	}
	msg := rec.waitState(t, messages.ConnDisconnected)
	assert.True(t, errors.Is(msg.Err, api.ErrUnauthorized))
	assert.Zero(t, srv.conns.Load())
	m.Stop()
}

func TestRestartAfterRejectedToken(t *testing.T) {
	srv := newFeedServer(t, nil, []string{frame(1, "hello")})
	m := testMonitor(t, srv.Server, "wrong", nil)
	rec := make(recorder, 64)
	m.Start(context.Background(), rec)

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("monitor kept retrying a rejected token")
	}

	m.client.SetToken("tok")
	m.Start(context.Background(), rec)
	defer m.Stop()

	rec.waitState(t, messages.ConnConnected)
	assert.Equal(t, int64(1), rec.nextActivity(t).Log.ID)
	assert.Equal(t, int32(1), srv.conns.Load())
	assert.Equal(t, messages.ConnConnected, m.State())
}

func TestCancelThenStartKeepsNewLoop(t *testing.T) {
	srv := newFeedServer(t, nil, []string{frame(1, "hello")})
	m := testMonitor(t, srv.Server, "tok", nil)
	first := make(recorder, 64)
	m.Start(context.Background(), first)
	first.waitState(t, messages.ConnConnected)

	done := m.Cancel()
	require.NotNil(t, done)
	assert.Equal(t, messages.ConnDisconnected, m.State())

	second := make(recorder, 64)
	m.Start(context.Background(), second)
	defer m.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled loop did not exit")
	}
	second.waitState(t, messages.ConnConnected)
	assert.Equal(t, messages.ConnConnected, m.State(), "the old loop's exit does not touch the new loop")

	for {
		select {
		case msg := <-first:
			if c, ok := msg.(messages.ConnectionMsg); ok {
				assert.NotEqual(t, messages.ConnDisconnected, c.State, "cancelled loop reported after Cancel")
			}
			continue
		default:
		}
		break
	}
	select {
	case <-m.Done():
		t.Fatal("new loop exited")
	default:
	}
}

func TestCancelBeforeStart(t *testing.T) {
	srv := newFeedServer(t, nil)
	m := testMonitor(t, srv.Server, "tok", nil)
	assert.Nil(t, m.Cancel())
	m.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	srv := newFeedServer(t, nil, []string{})
	m := testMonitor(t, srv.Server, "tok", nil)
	m.Start(context.Background(), SinkFunc(func(tea.Msg) {}))
	m.Stop()
	m.Stop()
	assert.Equal(t, messages.ConnDisconnected, m.State())
}

func TestEndpointCarriesToken(t *testing.T) {
	srv := newFeedServer(t, nil)
	m := testMonitor(t, srv.Server, "a b", nil)
	u, err := m.endpoint()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "ws://"))
	assert.Contains(t, u, "/ws/activity-logs?token=a+b")

	m.client.SetToken("")
	_, err = m.endpoint()
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}
