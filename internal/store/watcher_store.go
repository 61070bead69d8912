package store

import (
	"context"
	"fmt"
	"time"
)

// AddWatcher subscribes a user to a task. Re-adding an existing watch is
// a no-op reported as false, not an error.
func (s *SQLiteStore) AddWatcher(ctx context.Context, taskID, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO task_watcher (task_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (task_id, user_id) DO NOTHING`,
		taskID, userID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("adding watcher %d to task %d: %w", userID, taskID, err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// RemoveWatcher unsubscribes a user from a task. Returns false when the
// user was not watching.
func (s *SQLiteStore) RemoveWatcher(ctx context.Context, taskID, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM task_watcher WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("removing watcher %d from task %d: %w", userID, taskID, err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// IsWatching reports whether a user watches a task.
func (s *SQLiteStore) IsWatching(ctx context.Context, taskID, userID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM task_watcher WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("checking watcher %d on task %d: %w", userID, taskID, err)
	}
	return count > 0, nil
}

// GetWatcherIDs returns the ids of all users watching a task.
func (s *SQLiteStore) GetWatcherIDs(ctx context.Context, taskID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT user_id FROM task_watcher WHERE task_id = ?", taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying watchers for task %d: %w", taskID, err)
	}
	return ids, nil
}
