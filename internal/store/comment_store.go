package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cadence-tracker/cadence/internal/model"
)

// CreateComment inserts a new comment on a task.
func (s *SQLiteStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	if strings.TrimSpace(comment.Content) == "" {
		return fmt.Errorf("comment content must not be empty")
	}
	if comment.UUID == "" {
		comment.UUID = uuid.New().String()
	}
	comment.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO comment (uuid, task_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		comment.UUID, comment.TaskID, comment.AuthorID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating comment on task %d: %w", comment.TaskID, err)
	}

	comment.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading comment id: %w", err)
	}
	return nil
}

// GetCommentByUUID retrieves a comment by its external id.
func (s *SQLiteStore) GetCommentByUUID(ctx context.Context, commentUUID string) (*model.Comment, error) {
	var comment model.Comment
	err := s.db.GetContext(ctx, &comment,
		"SELECT * FROM comment WHERE uuid = ?", commentUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting comment %s: %w", commentUUID, err)
	}
	return &comment, nil
}

// GetCommentsForTask retrieves all comments on a task, oldest first.
func (s *SQLiteStore) GetCommentsForTask(ctx context.Context, taskID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := s.db.SelectContext(ctx, &comments,
		"SELECT * FROM comment WHERE task_id = ? ORDER BY created_at ASC, id ASC", taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments for task %d: %w", taskID, err)
	}
	return comments, nil
}

// UpdateCommentContent replaces a comment's content and stamps edited_at.
func (s *SQLiteStore) UpdateCommentContent(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment content must not be empty")
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE comment SET content = ?, edited_at = ? WHERE id = ?",
		content, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating comment %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("comment %d not found", id)
	}
	return nil
}

// DeleteComment removes a comment.
func (s *SQLiteStore) DeleteComment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comment WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("comment %d not found", id)
	}
	return nil
}
