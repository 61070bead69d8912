package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cadence-tracker/cadence/internal/model"
)

// CreateTask inserts a new task. Generates a UUID if one is not set and
// forces the initial status to "new".
func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if task.UUID == "" {
		task.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.Status = model.StatusNew
	task.CreatedAt = now
	task.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO task (
			uuid, title, description, status, owner_id,
			due_date, is_private, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UUID, task.Title, task.Description, task.Status, task.OwnerID,
		task.DueDate, boolToInt(task.IsPrivate), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	task.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task id: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a task by its internal id.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	return s.getTask(ctx, "SELECT * FROM task WHERE id = ?", id)
}

// GetTaskByUUID retrieves a task by its external id.
func (s *SQLiteStore) GetTaskByUUID(ctx context.Context, taskUUID string) (*model.Task, error) {
	return s.getTask(ctx, "SELECT * FROM task WHERE uuid = ?", taskUUID)
}

func (s *SQLiteStore) getTask(ctx context.Context, query string, arg any) (*model.Task, error) {
	var (
		task      model.Task
		isPrivate int
	)
	err := s.db.QueryRowxContext(ctx, query, arg).Scan(
		&task.ID, &task.UUID, &task.Title, &task.Description, &task.Status,
		&task.OwnerID, &task.DueDate, &isPrivate, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	task.IsPrivate = isPrivate != 0
	return &task, nil
}

// UpdateTask updates a task's mutable fields by id. The status column is
// not touched; use TransitionTask for status changes.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	task.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE task SET
			title = ?, description = ?, owner_id = ?,
			due_date = ?, is_private = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.OwnerID,
		task.DueDate, boolToInt(task.IsPrivate), task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d not found", task.ID)
	}
	return nil
}

// TransitionTask applies the status transition table. It returns false
// without error when the move is not allowed, so callers can report the
// rejection instead of failing.
func (s *SQLiteStore) TransitionTask(
	ctx context.Context,
	task *model.Task,
	to model.Status,
) (bool, error) {
	if !model.ValidStatus(to) || !model.CanTransition(task.Status, to) {
		return false, nil
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE task SET status = ?, updated_at = ? WHERE id = ?",
		to, now, task.ID,
	)
	if err != nil {
		return false, fmt.Errorf("transitioning task %d to %s: %w", task.ID, to, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false, fmt.Errorf("task %d not found", task.ID)
	}

	task.Status = to
	task.UpdatedAt = now
	return true, nil
}

// DeleteTask removes a task. Watchers and tag associations cascade;
// activity log entries and attachments are left behind for audit.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM task WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// GetTasks retrieves tasks matching the filter, newest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery("SELECT *", filter, true)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var (
			task      model.Task
			isPrivate int
		)
		err := rows.Scan(
			&task.ID, &task.UUID, &task.Title, &task.Description, &task.Status,
			&task.OwnerID, &task.DueDate, &isPrivate, &task.CreatedAt, &task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		task.IsPrivate = isPrivate != 0
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// CountTasks counts tasks matching the filter.
func (s *SQLiteStore) CountTasks(ctx context.Context, filter TaskFilter) (int, error) {
	filter.Limit = 0
	filter.Offset = 0
	query, args := buildTaskQuery("SELECT COUNT(*)", filter, false)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// buildTaskQuery assembles the WHERE clause shared by GetTasks and
// CountTasks.
func buildTaskQuery(selectClause string, filter TaskFilter, ordered bool) (string, []any) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := selectClause + " FROM task"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if ordered {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}
