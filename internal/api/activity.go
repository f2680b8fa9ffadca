package api

import (
	"context"
	"fmt"
)

const MaxActivityLimit = 100

// ListActivityLogs returns the most recent activity entries across the
// user's bots. limit is clamped to [1, 100].
func (c *Client) ListActivityLogs(ctx context.Context, limit int) ([]*ActivityLog, error) {
	limit = max(1, min(MaxActivityLimit, limit))
	var logs []*ActivityLog
	if err := c.get(ctx, fmt.Sprintf("/activity-logs?limit=%d", limit), &logs); err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	return logs, nil
}
