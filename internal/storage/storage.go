// Package storage persists small session values such as the access token
// and theme. The backend depends on where the client runs: a writable config
// directory gets a durable store, anything else falls back to memory.
package storage

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
)

// Well-known keys.
const (
	KeyAccessToken = "hams_access_token"
	KeyTheme       = "hams_theme"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	Close() error
}

// Open picks the backend named by cfg.StorageBackend. db, when non-nil, is
// the shared cache database used by the sqlite backend; the returned store
// does not close it.
func Open(cfg config.Config, db *cache.DB) (Store, error) {
	backend := cfg.StorageBackend
	if backend == config.StorageAuto || backend == "" {
		backend = config.StorageSQLite
		if err := checkWritable(cfg.CacheDir); err != nil {
			slog.Warn("cache directory not writable, session will not persist",
				"dir", cfg.CacheDir, "error", err)
			backend = config.StorageMemory
		}
	}

	switch backend {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageSQLite:
		if db != nil {
			return NewSQLite(db, false), nil
		}
		owned, err := cache.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return NewSQLite(owned, true), nil
	case config.StorageBadger:
		return OpenBadger(BadgerConfig{Path: cfg.BadgerDir, SyncWrites: true, Logger: slog.Default()})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
