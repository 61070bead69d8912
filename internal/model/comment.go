package model

import "time"

// Comment is a markdown note on a task.
type Comment struct {
	ID        int64      `json:"-" db:"id"`
	UUID      string     `json:"id" db:"uuid"`
	TaskID    int64      `json:"task_id" db:"task_id"`
	AuthorID  int64      `json:"author_id" db:"author_id"`
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty" db:"edited_at"`
}

// Watcher subscribes a user to activity on a task. Created implicitly
// on first interaction or explicitly; the task owner cannot be removed.
type Watcher struct {
	TaskID    int64     `json:"task_id" db:"task_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Tag is a label that can be associated with tasks.
type Tag struct {
	ID        int64     `json:"-" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color,omitempty" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
