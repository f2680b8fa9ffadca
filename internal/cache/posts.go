package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fragmede/hams/internal/api"
)

const (
	listPosts = "posts"
	listBots  = "bots"
)

// GetPosts returns the cached post list in server order.
// Returns (posts, isFresh, error). posts is nil on cache miss.
func (d *DB) GetPosts(ttl time.Duration) ([]*api.Post, bool, error) {
	fetchedAt, ok, err := d.listFetchedAt(listPosts)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := d.db.Query(`SELECT payload FROM posts ORDER BY position ASC`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	posts := []*api.Post{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		var p api.Post
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, false, fmt.Errorf("decoding cached post: %w", err)
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	isFresh := time.Since(fetchedAt) < ttl
	return posts, isFresh, nil
}

// GetPost returns one cached post, or nil on a miss.
func (d *DB) GetPost(id int64) (*api.Post, error) {
	var payload string
	err := d.db.QueryRow(`SELECT payload FROM posts WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p api.Post
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decoding cached post %d: %w", id, err)
	}
	return &p, nil
}

// PutPosts replaces the cached post list.
func (d *DB) PutPosts(posts []*api.Post) error {
	now := time.Now()
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM posts`); err != nil {
		return err
	}
	for i, p := range posts {
		if p == nil {
			continue
		}
		payload, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO posts (id, category, position, payload, fetched_at) VALUES (?, ?, ?, ?, ?)`,
			p.ID, string(p.Category), i, string(payload), now.Unix()); err != nil {
			return err
		}
	}
	if err := touchList(tx, listPosts, now); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePost drops a post removed on the server.
func (d *DB) DeletePost(id int64) error {
	_, err := d.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}

func (d *DB) listFetchedAt(listType string) (time.Time, bool, error) {
	var fetchedAt int64
	err := d.db.QueryRow(`SELECT fetched_at FROM list_fetches WHERE list_type = ?`, listType).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(fetchedAt, 0), true, nil
}

func touchList(tx *sql.Tx, listType string, at time.Time) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO list_fetches (list_type, fetched_at) VALUES (?, ?)`, listType, at.Unix())
	return err
}
