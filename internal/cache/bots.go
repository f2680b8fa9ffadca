package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fragmede/hams/internal/api"
)

// GetBots returns the cached bot list. Returns (bots, isFresh, error);
// bots is nil on cache miss.
func (d *DB) GetBots(ttl time.Duration) ([]*api.Bot, bool, error) {
	fetchedAt, ok, err := d.listFetchedAt(listBots)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := d.db.Query(`SELECT payload FROM bots ORDER BY position ASC`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	bots := []*api.Bot{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		var b api.Bot
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, false, fmt.Errorf("decoding cached bot: %w", err)
		}
		bots = append(bots, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return bots, time.Since(fetchedAt) < ttl, nil
}

// PutBots replaces the cached bot list.
func (d *DB) PutBots(bots []*api.Bot) error {
	now := time.Now()
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bots`); err != nil {
		return err
	}
	for i, b := range bots {
		if b == nil {
			continue
		}
		payload, err := json.Marshal(b)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO bots (id, position, payload, fetched_at) VALUES (?, ?, ?, ?)`,
			b.ID, i, string(payload), now.Unix()); err != nil {
			return err
		}
	}
	if err := touchList(tx, listBots, now); err != nil {
		return err
	}
	return tx.Commit()
}

// BotNames maps bot IDs to names for labelling activity entries.
func (d *DB) BotNames() map[int64]string {
	names := make(map[int64]string)
	bots, _, err := d.GetBots(0)
	if err != nil {
		return names
	}
	for _, b := range bots {
		names[b.ID] = b.Name
	}
	return names
}
