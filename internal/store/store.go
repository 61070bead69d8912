package store

import (
	"context"
	"time"

	"github.com/cadence-tracker/cadence/internal/model"
)

// TaskFilter controls filtering and pagination for task queries.
type TaskFilter struct {
	Status  *model.Status
	OwnerID *int64
	Query   *string // search title + description
	Limit   int
	Offset  int
}

// Store defines the persistence interface for tasks, comments, watchers,
// the activity log, the notification queue, and blob/attachment records.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)
	GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	TransitionTask(ctx context.Context, task *model.Task, to model.Status) (bool, error)
	DeleteTask(ctx context.Context, id int64) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	CountTasks(ctx context.Context, filter TaskFilter) (int, error)

	// === Watchers ===

	AddWatcher(ctx context.Context, taskID, userID int64) (bool, error)
	RemoveWatcher(ctx context.Context, taskID, userID int64) (bool, error)
	IsWatching(ctx context.Context, taskID, userID int64) (bool, error)
	GetWatcherIDs(ctx context.Context, taskID int64) ([]int64, error)

	// === Tags ===

	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTags(ctx context.Context) ([]model.Tag, error)
	TagTask(ctx context.Context, taskID, tagID int64) (bool, error)
	UntagTask(ctx context.Context, taskID, tagID int64) (bool, error)
	GetTagsForTask(ctx context.Context, taskID int64) ([]model.Tag, error)

	// === Comments ===

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByUUID(ctx context.Context, uuid string) (*model.Comment, error)
	GetCommentsForTask(ctx context.Context, taskID int64) ([]model.Comment, error)
	UpdateCommentContent(ctx context.Context, id int64, content string) error
	DeleteComment(ctx context.Context, id int64) error

	// === Activity log ===

	RecordActivity(
		ctx context.Context,
		taskID int64,
		action model.ActionKind,
		actorID *int64,
		details model.ActivityDetails,
		skipNotification bool,
	) (*model.Activity, error)
	GetActivities(ctx context.Context, taskID int64, limit, offset int) ([]model.Activity, error)
	GetActivitiesByDateRange(ctx context.Context, start, end time.Time) ([]model.Activity, error)
	PatchCommentContent(ctx context.Context, commentUUID, newContent string) (bool, error)

	// === Notification queue ===

	EnqueueNotification(ctx context.Context, n *model.Notification) error
	GetNotificationByUUID(ctx context.Context, uuid string) (*model.Notification, error)
	GetPendingNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id int64) error
	MarkNotificationFailed(ctx context.Context, id int64, maxRetries int) (model.NotificationStatus, error)
	FailNotificationPermanently(ctx context.Context, id int64) error
	CountNotificationsByStatus(ctx context.Context, status model.NotificationStatus) (int, error)
	PurgeTerminalNotifications(ctx context.Context, olderThanDays int) (int64, error)

	// === Users / identity directory ===

	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUUID(ctx context.Context, uuid string) (*model.User, error)
	SetUserEnabled(ctx context.Context, id int64, enabled bool) error
	GetUserProperty(ctx context.Context, userID int64, namespace, key string) (string, bool, error)
	SetUserProperty(ctx context.Context, userID int64, namespace, key, value string) error

	// === Blobs and attachments ===

	InsertBlob(ctx context.Context, blob *model.FileBlob) (bool, error)
	GetBlobByID(ctx context.Context, id int64) (*model.FileBlob, error)
	GetBlobByHash(ctx context.Context, sha256Hash string) (*model.FileBlob, error)
	DeleteBlob(ctx context.Context, id int64) error
	CreateAttachment(ctx context.Context, a *model.Attachment) error
	GetAttachmentByUUID(ctx context.Context, uuid string) (*model.Attachment, error)
	GetAttachmentsForTask(ctx context.Context, taskID int64) ([]model.Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
	CountAttachmentsForBlob(ctx context.Context, blobID int64) (int, error)
}
