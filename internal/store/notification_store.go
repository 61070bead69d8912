package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadence-tracker/cadence/internal/model"
)

// EnqueueNotification inserts a new outbox row. Every row starts in
// pending with zero retries regardless of what the caller set.
func (s *SQLiteStore) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	if n.UUID == "" {
		n.UUID = uuid.New().String()
	}
	n.Status = model.NotificationPending
	n.Retries = 0
	n.CreatedAt = time.Now().UTC()
	n.SentAt = nil

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_queue (
			uuid, user_id, task_id, channel, subject, body, body_html,
			status, retries, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		n.UUID, n.UserID, n.TaskID, n.Channel, n.Subject, n.Body, n.BodyHTML,
		n.Status, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueueing %s notification for user %d: %w", n.Channel, n.UserID, err)
	}

	n.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading notification id: %w", err)
	}
	return nil
}

// GetPendingNotifications returns up to limit pending rows, oldest
// created first.
func (s *SQLiteStore) GetPendingNotifications(
	ctx context.Context,
	limit int,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM notification_queue WHERE status = ?
		ORDER BY created_at ASC, id ASC LIMIT ?`,
		model.NotificationPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID, &n.UUID, &n.UserID, &n.TaskID, &n.Channel,
			&n.Subject, &n.Body, &n.BodyHTML,
			&n.Status, &n.Retries, &n.CreatedAt, &n.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// GetNotificationByUUID retrieves a single queue row by external id.
func (s *SQLiteStore) GetNotificationByUUID(ctx context.Context, notificationUUID string) (*model.Notification, error) {
	var n model.Notification
	err := s.db.QueryRowxContext(ctx,
		"SELECT * FROM notification_queue WHERE uuid = ?", notificationUUID,
	).Scan(
		&n.ID, &n.UUID, &n.UserID, &n.TaskID, &n.Channel,
		&n.Subject, &n.Body, &n.BodyHTML,
		&n.Status, &n.Retries, &n.CreatedAt, &n.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting notification %s: %w", notificationUUID, err)
	}
	return &n, nil
}

// MarkNotificationSent moves a pending row to the terminal sent state
// and stamps sent_at. Rows already terminal are left untouched.
func (s *SQLiteStore) MarkNotificationSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notification_queue SET status = ?, sent_at = ?
		WHERE id = ? AND status = ?`,
		model.NotificationSent, time.Now().UTC(), id, model.NotificationPending,
	)
	if err != nil {
		return fmt.Errorf("marking notification %d sent: %w", id, err)
	}
	return nil
}

// MarkNotificationFailed increments the retry counter on a pending row.
// When the counter reaches maxRetries the row becomes terminally failed,
// otherwise it stays pending for re-pickup. Returns the resulting
// status. Terminal rows are left untouched.
func (s *SQLiteStore) MarkNotificationFailed(
	ctx context.Context,
	id int64,
	maxRetries int,
) (model.NotificationStatus, error) {
	var retries int
	err := s.db.QueryRowxContext(ctx,
		"SELECT retries FROM notification_queue WHERE id = ? AND status = ?",
		id, model.NotificationPending,
	).Scan(&retries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already terminal (or gone); nothing to transition.
			return s.notificationStatus(ctx, id)
		}
		return "", fmt.Errorf("reading notification %d retries: %w", id, err)
	}

	retries++
	status := model.NotificationPending
	if retries >= maxRetries {
		status = model.NotificationFailed
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE notification_queue SET status = ?, retries = ?
		WHERE id = ? AND status = ?`,
		status, retries, id, model.NotificationPending,
	)
	if err != nil {
		return "", fmt.Errorf("marking notification %d failed: %w", id, err)
	}
	return status, nil
}

// FailNotificationPermanently moves a pending row straight to the
// terminal failed state, bypassing the retry budget. Used when the
// recipient's address or topic cannot be resolved at delivery time.
func (s *SQLiteStore) FailNotificationPermanently(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notification_queue SET status = ?, retries = retries + 1
		WHERE id = ? AND status = ?`,
		model.NotificationFailed, id, model.NotificationPending,
	)
	if err != nil {
		return fmt.Errorf("failing notification %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) notificationStatus(ctx context.Context, id int64) (model.NotificationStatus, error) {
	var status model.NotificationStatus
	err := s.db.QueryRowxContext(ctx,
		"SELECT status FROM notification_queue WHERE id = ?", id,
	).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("reading notification %d status: %w", id, err)
	}
	return status, nil
}

// CountNotificationsByStatus counts queue rows in the given state.
// Exposed for operator visibility into stuck or exhausted deliveries.
func (s *SQLiteStore) CountNotificationsByStatus(
	ctx context.Context,
	status model.NotificationStatus,
) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notification_queue WHERE status = ?", status,
	)
	if err != nil {
		return 0, fmt.Errorf("counting %s notifications: %w", status, err)
	}
	return count, nil
}

// PurgeTerminalNotifications deletes sent/failed rows older than the
// given number of days. Returns the number removed.
func (s *SQLiteStore) PurgeTerminalNotifications(
	ctx context.Context,
	olderThanDays int,
) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM notification_queue
		WHERE status IN (?, ?) AND created_at < ?`,
		model.NotificationSent, model.NotificationFailed, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purging terminal notifications: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading purge count: %w", err)
	}
	return removed, nil
}
