package storage

import "github.com/fragmede/hams/internal/cache"

// SQLite stores values in the kv table of the cache database.
type SQLite struct {
	db    *cache.DB
	owned bool
}

// NewSQLite wraps db. When owned is set, Close also closes db.
func NewSQLite(db *cache.DB, owned bool) *SQLite {
	return &SQLite{db: db, owned: owned}
}

func (s *SQLite) Get(key string) (string, bool, error) {
	return s.db.GetValue(key)
}

func (s *SQLite) Set(key, value string) error {
	return s.db.SetValue(key, value)
}

func (s *SQLite) Remove(key string) error {
	return s.db.DeleteValue(key)
}

func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
