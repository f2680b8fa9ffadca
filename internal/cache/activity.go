package cache

import (
	"time"

	"github.com/fragmede/hams/internal/api"
)

// ActivityEntry is an activity log entry as kept locally.
type ActivityEntry struct {
	api.ActivityLog
	ReceivedAt time.Time
	Read       bool
}

// AddActivity stores an entry unless one with the same ID is already cached.
// It reports whether the entry was new.
func (d *DB) AddActivity(l *api.ActivityLog) (bool, error) {
	res, err := d.db.Exec(`INSERT OR IGNORE INTO activity_logs
		(id, bot_id, job_id, job_type, result_status, message, executed_at, received_at, read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		l.ID, l.BotID, l.JobID, l.JobType, l.ResultStatus, l.Message,
		unixNano(l.ExecutedAt.Time), time.Now().UnixNano())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecentActivity returns up to limit entries, newest first.
func (d *DB) RecentActivity(limit int) ([]ActivityEntry, error) {
	rows, err := d.db.Query(`SELECT id, bot_id, job_id, job_type, result_status, message, executed_at, received_at, read
		FROM activity_logs ORDER BY executed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var executedAt, receivedAt int64
		var read int
		if err := rows.Scan(&e.ID, &e.BotID, &e.JobID, &e.JobType, &e.ResultStatus, &e.Message,
			&executedAt, &receivedAt, &read); err != nil {
			return nil, err
		}
		if executedAt != 0 {
			e.ExecutedAt = api.Timestamp{Time: time.Unix(0, executedAt)}
		}
		e.ReceivedAt = time.Unix(0, receivedAt)
		e.Read = read != 0
		result = append(result, e)
	}
	return result, rows.Err()
}

// LatestActivityID returns the highest cached entry ID, or 0.
func (d *DB) LatestActivityID() int64 {
	var id int64
	d.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM activity_logs`).Scan(&id)
	return id
}

// MarkActivityRead marks every cached entry as read.
func (d *DB) MarkActivityRead() error {
	_, err := d.db.Exec(`UPDATE activity_logs SET read = 1 WHERE read = 0`)
	return err
}

// UnreadActivityCount returns the count of unread entries.
func (d *DB) UnreadActivityCount() int {
	var count int
	d.db.QueryRow(`SELECT COUNT(*) FROM activity_logs WHERE read = 0`).Scan(&count)
	return count
}

// PruneActivity keeps only the newest keep entries.
func (d *DB) PruneActivity(keep int) error {
	_, err := d.db.Exec(`DELETE FROM activity_logs WHERE id NOT IN (
		SELECT id FROM activity_logs ORDER BY executed_at DESC, id DESC LIMIT ?)`, keep)
	return err
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
