package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cadence-tracker/cadence/internal/model"
)

// RecordActivity appends one entry to the activity log and returns the
// persisted record.
func (s *SQLiteStore) RecordActivity(
	ctx context.Context,
	taskID int64,
	action model.ActionKind,
	actorID *int64,
	details model.ActivityDetails,
	skipNotification bool,
) (*model.Activity, error) {
	detailsJSON, err := model.EncodeDetails(details)
	if err != nil {
		return nil, err
	}

	activity := &model.Activity{
		UUID:             uuid.New().String(),
		TaskID:           taskID,
		ActorID:          actorID,
		Action:           action,
		Details:          details,
		LoggedAt:         time.Now().UTC(),
		SkipNotification: skipNotification,
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (
			uuid, task_id, actor_id, action, details, logged_at, skip_notification
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.UUID, activity.TaskID, activity.ActorID, activity.Action,
		detailsJSON, activity.LoggedAt, boolToInt(activity.SkipNotification),
	)
	if err != nil {
		return nil, fmt.Errorf("recording %s activity for task %d: %w", action, taskID, err)
	}

	activity.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading activity id: %w", err)
	}
	return activity, nil
}

// GetActivities returns activity entries for a task, newest first.
func (s *SQLiteStore) GetActivities(
	ctx context.Context,
	taskID int64,
	limit, offset int,
) ([]model.Activity, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM activity_log WHERE task_id = ?
		ORDER BY logged_at DESC, id DESC LIMIT ? OFFSET ?`,
		taskID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activities for task %d: %w", taskID, err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivitiesByDateRange returns activity across all tasks, inclusive
// of both boundary days at day granularity, oldest first.
func (s *SQLiteStore) GetActivitiesByDateRange(
	ctx context.Context,
	start, end time.Time,
) ([]model.Activity, error) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM activity_log
		WHERE logged_at >= ? AND logged_at < ?
		ORDER BY logged_at ASC, id ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activities by date range: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// PatchCommentContent rewrites the cached content field inside the
// "commented" activity referencing the given comment. This is the one
// permitted mutation of the log. Returns false when no matching entry
// exists; that is a report, not an error.
func (s *SQLiteStore) PatchCommentContent(
	ctx context.Context,
	commentUUID, newContent string,
) (bool, error) {
	var (
		id      int64
		details string
	)
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, details FROM activity_log
		WHERE action = ? AND json_extract(details, '$.comment_id') = ?`,
		model.ActionCommented, commentUUID,
	).Scan(&id, &details)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("locating comment activity %s: %w", commentUUID, err)
	}

	var d model.CommentDetails
	if err := json.Unmarshal([]byte(details), &d); err != nil {
		return false, fmt.Errorf("decoding comment activity details: %w", err)
	}
	d.Content = newContent

	updated, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("encoding comment activity details: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE activity_log SET details = ? WHERE id = ?",
		string(updated), id,
	); err != nil {
		return false, fmt.Errorf("patching comment activity %d: %w", id, err)
	}
	return true, nil
}

// scanActivities drains a result set of activity_log rows, decoding the
// details payload by action kind.
func scanActivities(rows *sqlx.Rows) ([]model.Activity, error) {
	var activities []model.Activity
	for rows.Next() {
		var (
			a       model.Activity
			details string
			skip    int
		)
		err := rows.Scan(
			&a.ID, &a.UUID, &a.TaskID, &a.ActorID, &a.Action,
			&details, &a.LoggedAt, &skip,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		a.SkipNotification = skip != 0
		a.Details, err = model.DecodeDetails(a.Action, details)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
