package cache

import (
	"database/sql"
	"errors"
)

// GetValue reads a key from the kv table.
func (d *DB) GetValue(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetValue writes a key to the kv table.
func (d *DB) SetValue(key, value string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	return err
}

// DeleteValue removes a key. Missing keys are not an error.
func (d *DB) DeleteValue(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
