package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cadence-tracker/cadence/internal/model"
)

// CreateTag inserts a new tag.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag *model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	tag.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO tag (name, color, created_at) VALUES (?, ?, ?)",
		tag.Name, tag.Color, tag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", tag.Name, err)
	}

	tag.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading tag id: %w", err)
	}
	return nil
}

// GetTags retrieves all tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, "SELECT * FROM tag ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// TagTask associates a tag with a task. Re-adding an existing
// association is a no-op reported as false, not an error.
func (s *SQLiteStore) TagTask(ctx context.Context, taskID, tagID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO task_tag (task_id, tag_id) VALUES (?, ?)
		ON CONFLICT (task_id, tag_id) DO NOTHING`,
		taskID, tagID,
	)
	if err != nil {
		return false, fmt.Errorf("tagging task %d with tag %d: %w", taskID, tagID, err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// UntagTask removes a tag association. Returns false when the
// association did not exist.
func (s *SQLiteStore) UntagTask(ctx context.Context, taskID, tagID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM task_tag WHERE task_id = ? AND tag_id = ?",
		taskID, tagID,
	)
	if err != nil {
		return false, fmt.Errorf("untagging task %d tag %d: %w", taskID, tagID, err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// GetTagsForTask retrieves the tags associated with a task.
func (s *SQLiteStore) GetTagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT tag.* FROM tag
		JOIN task_tag ON task_tag.tag_id = tag.id
		WHERE task_tag.task_id = ?
		ORDER BY tag.name`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags for task %d: %w", taskID, err)
	}
	return tags, nil
}
