package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind identifies the kind of domain event recorded in the
// activity log.
type ActionKind string

// Activity action kinds.
const (
	ActionCreated           ActionKind = "created"
	ActionUpdated           ActionKind = "updated"
	ActionStatusChanged     ActionKind = "status_changed"
	ActionCommented         ActionKind = "commented"
	ActionCommentEdited     ActionKind = "comment_edited"
	ActionCommentDeleted    ActionKind = "comment_deleted"
	ActionAttachmentAdded   ActionKind = "attachment_added"
	ActionAttachmentDeleted ActionKind = "attachment_deleted"
)

// Activity is an immutable audit record of one domain event on a task.
// The only permitted mutation after insert is rewriting the cached
// comment content inside Details when the comment itself is edited.
type Activity struct {
	ID      int64      `json:"-" db:"id"`
	UUID    string     `json:"id" db:"uuid"`
	TaskID  int64      `json:"task_id" db:"task_id"`
	ActorID *int64     `json:"actor_id,omitempty" db:"actor_id"`
	Action  ActionKind `json:"action" db:"action"`
	Details ActivityDetails
	LoggedAt         time.Time `json:"logged_at" db:"logged_at"`
	SkipNotification bool      `json:"skip_notification" db:"skip_notification"`
}

// ActivityDetails is the per-action payload of an activity entry.
// Each action kind carries its own variant; unknown kinds decode to
// GenericDetails.
type ActivityDetails interface {
	actionKind() ActionKind
}

// CreatedDetails accompanies a "created" entry.
type CreatedDetails struct {
	Title string `json:"title"`
}

// UpdatedDetails accompanies an "updated" entry and lists the edited
// fields with their old and new values.
type UpdatedDetails struct {
	Changes []FieldChange `json:"changes"`
}

// StatusChangedDetails accompanies a "status_changed" entry.
type StatusChangedDetails struct {
	Old Status `json:"old"`
	New Status `json:"new"`
}

// CommentDetails accompanies commented, comment_edited, and
// comment_deleted entries. Content is a cached copy of the comment's
// markdown, kept in sync when the comment is edited.
type CommentDetails struct {
	CommentUUID string `json:"comment_id"`
	Content     string `json:"content"`
}

// AttachmentDetails accompanies attachment_added and attachment_deleted
// entries.
type AttachmentDetails struct {
	Filename string `json:"filename"`
}

// GenericDetails is the fallback payload for action kinds this version
// does not recognize.
type GenericDetails struct {
	Fields map[string]any `json:"-"`
}

func (CreatedDetails) actionKind() ActionKind       { return ActionCreated }
func (UpdatedDetails) actionKind() ActionKind       { return ActionUpdated }
func (StatusChangedDetails) actionKind() ActionKind { return ActionStatusChanged }
func (CommentDetails) actionKind() ActionKind       { return ActionCommented }
func (AttachmentDetails) actionKind() ActionKind    { return ActionAttachmentAdded }
func (GenericDetails) actionKind() ActionKind       { return "" }

// EncodeDetails serializes an activity payload to JSON for storage.
// A nil payload encodes as an empty string.
func EncodeDetails(d ActivityDetails) (string, error) {
	if d == nil {
		return "", nil
	}
	var v any = d
	if g, ok := d.(GenericDetails); ok {
		v = g.Fields
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding activity details: %w", err)
	}
	return string(raw), nil
}

// DecodeDetails deserializes an activity payload by action kind.
// Unrecognized kinds produce GenericDetails so the caller can still
// render a fallback description.
func DecodeDetails(action ActionKind, raw string) (ActivityDetails, error) {
	if raw == "" {
		return nil, nil
	}

	var d ActivityDetails
	switch action {
	case ActionCreated:
		d = &CreatedDetails{}
	case ActionUpdated:
		d = &UpdatedDetails{}
	case ActionStatusChanged:
		d = &StatusChangedDetails{}
	case ActionCommented, ActionCommentEdited, ActionCommentDeleted:
		d = &CommentDetails{}
	case ActionAttachmentAdded, ActionAttachmentDeleted:
		d = &AttachmentDetails{}
	default:
		g := GenericDetails{Fields: map[string]any{}}
		if err := json.Unmarshal([]byte(raw), &g.Fields); err != nil {
			return nil, fmt.Errorf("decoding %q details: %w", action, err)
		}
		return g, nil
	}

	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return nil, fmt.Errorf("decoding %q details: %w", action, err)
	}

	switch v := d.(type) {
	case *CreatedDetails:
		return *v, nil
	case *UpdatedDetails:
		return *v, nil
	case *StatusChangedDetails:
		return *v, nil
	case *CommentDetails:
		return *v, nil
	case *AttachmentDetails:
		return *v, nil
	}
	return nil, fmt.Errorf("unreachable details variant for %q", action)
}
