package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/storage"
)

// ErrNotLoggedIn is returned when an action needs a token and none is set.
var ErrNotLoggedIn = errors.New("not logged in")

// Theme is the persisted colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session manages authentication state: the bearer token on the API client
// and its persisted copy in the store.
type Session struct {
	client *api.Client
	store  storage.Store

	mu    sync.RWMutex
	user  *api.User
	theme Theme
}

// NewSession creates a session around an API client and a store.
func NewSession(client *api.Client, store storage.Store) *Session {
	return &Session{client: client, store: store, theme: ThemeLight}
}

// Hydrate restores the token and theme saved by a previous run. It does not
// contact the server; call Validate for that.
func (s *Session) Hydrate() error {
	token, ok, err := s.store.Get(storage.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("reading saved token: %w", err)
	}
	if ok && token != "" {
		s.client.SetToken(token)
	}

	theme, ok, err := s.store.Get(storage.KeyTheme)
	if err != nil {
		return fmt.Errorf("reading saved theme: %w", err)
	}
	s.mu.Lock()
	if ok && Theme(theme) == ThemeDark {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	s.mu.Unlock()
	return nil
}

// Login authenticates with email and password, then loads the account.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.client.SetToken(resp.AccessToken)

	user, err := s.client.Me(ctx)
	if err != nil {
		s.client.SetToken("")
		return fmt.Errorf("login failed: %w", err)
	}
	if err := s.store.Set(storage.KeyAccessToken, resp.AccessToken); err != nil {
		slog.Warn("saving token", "error", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	slog.Info("logged in", "user_id", user.ID, "nickname", user.Nickname)
	return nil
}

// Logout forgets the token locally. The server keeps no session to revoke.
func (s *Session) Logout() error {
	s.client.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if err := s.store.Remove(storage.KeyAccessToken); err != nil {
		return fmt.Errorf("removing saved token: %w", err)
	}
	return nil
}

// Validate checks the current token against the server. A rejected token is
// cleared; transport errors leave it in place so the client works offline.
func (s *Session) Validate(ctx context.Context) error {
	if s.client.Token() == "" {
		return ErrNotLoggedIn
	}
	user, err := s.client.Me(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		// Stale token, clear it.
		slog.Info("saved token rejected, clearing")
		if lerr := s.Logout(); lerr != nil {
			slog.Warn("clearing token", "error", lerr)
		}
		return err
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// LoggedIn reports whether a token is set.
func (s *Session) LoggedIn() bool {
	return s.client.Token() != ""
}

// User returns the validated account, or nil.
func (s *Session) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Username returns the account nickname, or "" before validation.
func (s *Session) Username() string {
	if u := s.User(); u != nil {
		return u.Nickname
	}
	return ""
}

// Theme returns the current theme.
func (s *Session) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// ToggleTheme switches between light and dark and persists the choice.
func (s *Session) ToggleTheme() (Theme, error) {
	s.mu.Lock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	theme := s.theme
	s.mu.Unlock()

	if err := s.store.Set(storage.KeyTheme, string(theme)); err != nil {
		return theme, fmt.Errorf("saving theme: %w", err)
	}
	return theme, nil
}

// Client returns the API client carrying the session token.
func (s *Session) Client() *api.Client {
	return s.client
}
