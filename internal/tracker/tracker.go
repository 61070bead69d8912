// Package tracker orchestrates domain actions on tasks: each mutation
// is persisted, appended to the activity log, and fanned out into the
// notification queue. Nothing here performs network IO; the request
// path only writes rows.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cadence-tracker/cadence/internal/blob"
	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/notify"
	"github.com/cadence-tracker/cadence/internal/store"
)

// ErrEditWindowClosed is returned when a comment is edited after the
// configured edit window has elapsed.
var ErrEditWindowClosed = errors.New("comment edit window has closed")

// ErrNotAuthor is returned when someone other than the comment's author
// tries to edit it.
var ErrNotAuthor = errors.New("only the comment author may edit it")

// ErrOwnerCannotUnwatch is returned when the task owner tries to stop
// watching their own task.
var ErrOwnerCannotUnwatch = errors.New("the task owner cannot stop watching")

// Service ties the store, the blob store, and the notification pipeline
// together. Construct one at process start and pass it into the
// request-handling context; there is no ambient global state.
type Service struct {
	store      store.Store
	blobs      *blob.Store
	pipeline   *notify.Pipeline
	baseURL    string
	editWindow time.Duration
}

// NewService creates the tracker service.
func NewService(
	s store.Store,
	blobs *blob.Store,
	pipeline *notify.Pipeline,
	baseURL string,
	editWindow time.Duration,
) *Service {
	return &Service{
		store:      s,
		blobs:      blobs,
		pipeline:   pipeline,
		baseURL:    baseURL,
		editWindow: editWindow,
	}
}

// record appends an activity entry and enqueues its notifications.
func (s *Service) record(
	ctx context.Context,
	task *model.Task,
	action model.ActionKind,
	actorID *int64,
	details model.ActivityDetails,
	skipNotification bool,
) (*model.Activity, error) {
	activity, err := s.store.RecordActivity(ctx, task.ID, action, actorID, details, skipNotification)
	if err != nil {
		return nil, err
	}
	if _, err := s.pipeline.EnqueueForActivity(ctx, activity, task, s.baseURL); err != nil {
		return nil, fmt.Errorf("enqueueing notifications for activity %s: %w", activity.UUID, err)
	}
	return activity, nil
}

// CreateTask creates a task owned by actorID. The creator implicitly
// watches the task.
func (s *Service) CreateTask(ctx context.Context, actorID int64, task *model.Task) error {
	task.OwnerID = actorID
	if err := s.store.CreateTask(ctx, task); err != nil {
		return err
	}
	if _, err := s.store.AddWatcher(ctx, task.ID, actorID); err != nil {
		return err
	}

	_, err := s.record(ctx, task, model.ActionCreated, &actorID,
		model.CreatedDetails{Title: task.Title}, false)
	return err
}

// TaskUpdate carries the optional field edits for UpdateTask. Nil
// pointers leave the field unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	IsPrivate   *bool
}

// UpdateTask applies field edits to a task. The list of actual changes
// is recorded in the activity log; an edit that changes nothing records
// no activity and sends nothing.
func (s *Service) UpdateTask(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	update TaskUpdate,
) ([]model.FieldChange, error) {
	var changes []model.FieldChange

	if update.Title != nil && *update.Title != task.Title {
		changes = append(changes, model.FieldChange{Field: "title", Old: task.Title, New: *update.Title})
		task.Title = *update.Title
	}
	if update.Description != nil && *update.Description != task.Description {
		changes = append(changes, model.FieldChange{
			Field: "description", Old: task.Description, New: *update.Description,
		})
		task.Description = *update.Description
	}
	if update.ClearDue {
		if task.DueDate != nil {
			changes = append(changes, model.FieldChange{Field: "due_date", Old: formatDue(task.DueDate), New: ""})
			task.DueDate = nil
		}
	} else if update.DueDate != nil && !equalDue(task.DueDate, update.DueDate) {
		changes = append(changes, model.FieldChange{
			Field: "due_date", Old: formatDue(task.DueDate), New: formatDue(update.DueDate),
		})
		task.DueDate = update.DueDate
	}
	if update.IsPrivate != nil && *update.IsPrivate != task.IsPrivate {
		changes = append(changes, model.FieldChange{
			Field: "is_private",
			Old:   fmt.Sprintf("%t", task.IsPrivate),
			New:   fmt.Sprintf("%t", *update.IsPrivate),
		})
		task.IsPrivate = *update.IsPrivate
	}

	if len(changes) == 0 {
		return nil, nil
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	_, err := s.record(ctx, task, model.ActionUpdated, &actorID,
		model.UpdatedDetails{Changes: changes}, false)
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// SetStatus moves a task through the status state machine. A disallowed
// transition is reported as false so callers can show "cannot move from
// X to Y"; it is never an error.
func (s *Service) SetStatus(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	to model.Status,
) (bool, error) {
	old := task.Status
	changed, err := s.store.TransitionTask(ctx, task, to)
	if err != nil || !changed {
		return changed, err
	}

	_, err = s.record(ctx, task, model.ActionStatusChanged, &actorID,
		model.StatusChangedDetails{Old: old, New: to}, false)
	if err != nil {
		return true, err
	}
	return true, nil
}

// DeleteTask removes a task. Watchers and tag associations cascade;
// activity and attachments are left for audit.
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	return s.store.DeleteTask(ctx, taskID)
}

// Watch subscribes a user to a task. Re-watching is a no-op success.
func (s *Service) Watch(ctx context.Context, taskID, userID int64) error {
	_, err := s.store.AddWatcher(ctx, taskID, userID)
	return err
}

// Unwatch unsubscribes a user from a task. The owner cannot unwatch
// their own task.
func (s *Service) Unwatch(ctx context.Context, task *model.Task, userID int64) error {
	if task.OwnerID == userID {
		return ErrOwnerCannotUnwatch
	}
	_, err := s.store.RemoveWatcher(ctx, task.ID, userID)
	return err
}

// AddComment creates a comment on a task. The commenter implicitly
// watches the task from then on.
func (s *Service) AddComment(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	content string,
) (*model.Comment, error) {
	comment := &model.Comment{TaskID: task.ID, AuthorID: actorID, Content: content}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	if _, err := s.store.AddWatcher(ctx, task.ID, actorID); err != nil {
		return nil, err
	}

	_, err := s.record(ctx, task, model.ActionCommented, &actorID,
		model.CommentDetails{CommentUUID: comment.UUID, Content: content}, false)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment rewrites a comment's content within the edit window and
// keeps the activity log's cached copy in sync.
func (s *Service) EditComment(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	comment *model.Comment,
	content string,
) error {
	if comment.AuthorID != actorID {
		return ErrNotAuthor
	}
	if s.editWindow > 0 && time.Since(comment.CreatedAt) > s.editWindow {
		return ErrEditWindowClosed
	}

	if err := s.store.UpdateCommentContent(ctx, comment.ID, content); err != nil {
		return err
	}
	comment.Content = content

	// Keep the log's displayed text in sync; a missing log entry is a
	// reportable no-op, not a failure.
	if _, err := s.store.PatchCommentContent(ctx, comment.UUID, content); err != nil {
		return err
	}

	_, err := s.record(ctx, task, model.ActionCommentEdited, &actorID,
		model.CommentDetails{CommentUUID: comment.UUID, Content: content}, false)
	return err
}

// DeleteComment removes a comment. The deletion is logged but sends no
// notifications.
func (s *Service) DeleteComment(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	comment *model.Comment,
) error {
	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		return err
	}

	_, err := s.record(ctx, task, model.ActionCommentDeleted, &actorID,
		model.CommentDetails{CommentUUID: comment.UUID, Content: comment.Content}, true)
	return err
}

// AddAttachment stores an uploaded file (deduplicated by content) and
// attaches it to the task. The uploader implicitly watches the task.
func (s *Service) AddAttachment(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	filename string,
	content []byte,
	mimeType string,
) (*model.Attachment, error) {
	attachment, err := s.blobs.SaveUpload(ctx, task.ID, actorID, filename, content, mimeType)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.AddWatcher(ctx, task.ID, actorID); err != nil {
		return nil, err
	}

	_, err = s.record(ctx, task, model.ActionAttachmentAdded, &actorID,
		model.AttachmentDetails{Filename: attachment.OriginalFilename}, false)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

// DeleteAttachment removes an attachment, releasing its blob reference.
// The deletion is logged but sends no notifications.
func (s *Service) DeleteAttachment(
	ctx context.Context,
	actorID int64,
	task *model.Task,
	attachment *model.Attachment,
) error {
	if err := s.blobs.DeleteAttachment(ctx, attachment); err != nil {
		return err
	}

	_, err := s.record(ctx, task, model.ActionAttachmentDeleted, &actorID,
		model.AttachmentDetails{Filename: attachment.OriginalFilename}, true)
	return err
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func equalDue(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
