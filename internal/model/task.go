package model

import "time"

// Status is the lifecycle state of a task.
type Status string

// Task status constants.
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusComplete   Status = "complete"
)

// statusTransitions is the directed transition table. A status may only
// move to one of the listed targets; everything else is rejected.
var statusTransitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusOnHold, StatusComplete},
	StatusInProgress: {StatusOnHold, StatusComplete},
	StatusOnHold:     {StatusInProgress, StatusComplete},
	StatusComplete:   {StatusInProgress}, // reopen only
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether a task may move from one status to
// another. Self-transitions are never allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Task is a tracked work item.
type Task struct {
	ID          int64      `json:"-" db:"id"`
	UUID        string     `json:"id" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Status      Status     `json:"status" db:"status"`
	OwnerID     int64      `json:"owner_id" db:"owner_id"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	IsPrivate   bool       `json:"is_private" db:"is_private"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// FieldChange records a single field edit on a task, captured for the
// activity log and the "updated" notification template.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}
