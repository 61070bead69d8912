// Package notify turns activity log entries into per-recipient,
// per-channel notification queue rows.
package notify

import (
	"context"

	"github.com/cadence-tracker/cadence/internal/model"
)

// Directory resolves recipients against the identity source of truth.
// A missing identity is reported as (nil, nil), not an error.
type Directory interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserProperty(ctx context.Context, userID int64, namespace, key string) (string, bool, error)
	SetUserProperty(ctx context.Context, userID int64, namespace, key, value string) error
}

// WatcherSource lists the watchers of a task.
type WatcherSource interface {
	GetWatcherIDs(ctx context.Context, taskID int64) ([]int64, error)
}

// Queue is the durable outbox the pipeline writes into.
type Queue interface {
	EnqueueNotification(ctx context.Context, n *model.Notification) error
}

// EmailEnabled reports whether a user receives email notifications.
// The preference defaults to enabled when unset.
func EmailEnabled(ctx context.Context, dir Directory, userID int64) (bool, error) {
	value, ok, err := dir.GetUserProperty(ctx, userID, model.PropertyNamespaceNotify, model.PropertyEmailEnabled)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return value != "false", nil
}

// PushTopic returns the user's configured push topic, or "" when the
// push channel is not set up for them.
func PushTopic(ctx context.Context, dir Directory, userID int64) (string, error) {
	value, _, err := dir.GetUserProperty(ctx, userID, model.PropertyNamespaceNotify, model.PropertyPushTopic)
	if err != nil {
		return "", err
	}
	return value, nil
}
