package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/ui/messages"
)

const eventActivityLog = "activity_log"

// Sink receives monitor messages. *tea.Program satisfies it.
type Sink interface {
	Send(msg tea.Msg)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg tea.Msg)

func (f SinkFunc) Send(msg tea.Msg) { f(msg) }

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Monitor keeps a websocket open to the activity feed and forwards new
// entries to a sink. Entries are deduplicated by ID and persisted in the
// cache when one is available.
type Monitor struct {
	client *api.Client
	cache  *cache.DB
	cfg    config.Config
	dialer *websocket.Dialer

	limiter *rate.Limiter

	mu    sync.Mutex
	sink  Sink
	state messages.ConnState
	seen  map[int64]struct{}
	// gen identifies the current loop. A loop whose generation is stale
	// may still be unwinding but no longer reports anything.
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor. db may be nil, in which case entries are only
// deduplicated in memory.
func New(cfg config.Config, client *api.Client, db *cache.DB) *Monitor {
	return &Monitor{
		client:  client,
		cache:   db,
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout, Proxy: http.ProxyFromEnvironment},
		limiter: rate.NewLimiter(rate.Every(cfg.ReconnectMin), 1),
		seen:    make(map[int64]struct{}),
		state:   messages.ConnDisconnected,
	}
}

// Start runs the connection loop in the background until ctx is done, Stop
// is called or the server rejects the token. Calling Start on a running
// monitor does nothing; after the loop has exited Start begins a new one.
func (m *Monitor) Start(ctx context.Context, sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	m.gen++
	ctx, m.cancel = context.WithCancel(ctx)
	m.sink = sink
	m.done = make(chan struct{})
	m.limiter.SetLimit(rate.Every(m.cfg.ReconnectMin))
	go m.loop(ctx, m.gen, m.done)
}

// Cancel halts the connection loop without waiting for it. Once Cancel
// returns the old loop starts no further sends, and it is safe to call from
// the goroutine the sink delivers to. The returned channel is closed once the
// loop has exited, or nil if the monitor was never started.
func (m *Monitor) Cancel() <-chan struct{} {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.gen++
	m.state = messages.ConnDisconnected
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return done
}

// Stop halts the connection loop and waits for it to exit.
func (m *Monitor) Stop() {
	if done := m.Cancel(); done != nil {
		<-done
	}
}

// Done is closed when the loop exits, either from Stop or because the
// server rejected the token.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// State returns the current connection state.
func (m *Monitor) State() messages.ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(gen uint64, s messages.ConnState, err error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	changed := m.state != s
	m.state = s
	m.mu.Unlock()
	if changed || err != nil {
		m.send(gen, messages.ConnectionMsg{State: s, Err: err})
	}
}

func (m *Monitor) send(gen uint64, msg tea.Msg) {
	m.mu.Lock()
	sink := m.sink
	current := m.gen == gen
	m.mu.Unlock()
	if sink != nil && current {
		sink.Send(msg)
	}
}

// exit releases the loop's slot so a later Start can run again.
func (m *Monitor) exit(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen && m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Monitor) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	defer m.exit(gen)
	defer m.setState(gen, messages.ConnDisconnected, nil)

	backoff := m.cfg.ReconnectMin
	for {
		if err := m.limiter.Wait(ctx); err != nil {
			return
		}
		m.setState(gen, messages.ConnConnecting, nil)

		start := time.Now()
		err := m.session(ctx, gen)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, api.ErrUnauthorized) {
			slog.Warn("activity feed rejected token", "error", err)
			m.setState(gen, messages.ConnDisconnected, err)
			return
		}
		slog.Info("activity feed disconnected", "error", err, "uptime", time.Since(start))
		m.setState(gen, messages.ConnDisconnected, err)

		if time.Since(start) > m.cfg.ReconnectMax {
			backoff = m.cfg.ReconnectMin
		} else {
			backoff = min(backoff*2, m.cfg.ReconnectMax)
		}
		m.limiter.SetLimit(rate.Every(backoff))
	}
}

// session dials, backfills and reads until the connection drops.
func (m *Monitor) session(ctx context.Context, gen uint64) error {
	target, err := m.endpoint()
	if err != nil {
		return err
	}

	conn, resp, err := m.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("websocket handshake: %w", api.ErrUnauthorized)
		}
		return fmt.Errorf("dialing activity feed: %w", err)
	}
	defer conn.Close()

	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-closed:
		}
	}()

	slog.Info("activity feed connected")
	m.setState(gen, messages.ConnConnected, nil)
	m.backfill(ctx, gen)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return fmt.Errorf("activity feed closed: %w", api.ErrUnauthorized)
			}
			return err
		}
		m.handle(gen, data)
	}
}

func (m *Monitor) endpoint() (string, error) {
	token := m.client.Token()
	if token == "" {
		return "", api.ErrUnauthorized
	}
	base, err := m.cfg.ActivityURL()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing activity url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// backfill fetches entries that may have been missed while disconnected.
func (m *Monitor) backfill(ctx context.Context, gen uint64) {
	logs, err := m.client.ListActivityLogs(ctx, m.cfg.ActivityBacklog)
	if err != nil {
		slog.Warn("activity backfill failed", "error", err)
		return
	}
	// Oldest first so the sink sees them in order.
	for _, l := range slices.Backward(logs) {
		if l != nil {
			m.deliver(gen, *l)
		}
	}
}

func (m *Monitor) handle(gen uint64, data []byte) {
	var ev event
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.Debug("dropping undecodable event", "error", err)
		return
	}
	if ev.Type != eventActivityLog {
		slog.Debug("dropping event", "type", ev.Type)
		return
	}
	var l api.ActivityLog
	if err := json.Unmarshal(ev.Data, &l); err != nil {
		slog.Debug("dropping malformed activity log", "error", err)
		return
	}
	m.deliver(gen, l)
}

func (m *Monitor) deliver(gen uint64, l api.ActivityLog) {
	m.mu.Lock()
	_, dup := m.seen[l.ID]
	m.seen[l.ID] = struct{}{}
	unread := len(m.seen)
	m.mu.Unlock()
	if dup {
		return
	}

	if m.cache != nil {
		added, err := m.cache.AddActivity(&l)
		if err != nil {
			slog.Warn("caching activity log", "id", l.ID, "error", err)
		} else if !added {
			return
		}
		unread = m.cache.UnreadActivityCount()
	}
	m.send(gen, messages.ActivityMsg{Log: l, Unread: unread})
}
