package model

import "time"

// Channel is a notification delivery medium.
type Channel string

// Notification channels.
const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// NotificationStatus is the queue state of a notification.
// Sent and failed are terminal; a row never leaves either.
type NotificationStatus string

// Notification queue states.
const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is one durable outbox row: a single message for a single
// recipient on a single channel. Delivery is at-least-once; consumers
// must tolerate duplicates.
type Notification struct {
	ID       int64   `json:"-" db:"id"`
	UUID     string  `json:"id" db:"uuid"`
	UserID   int64   `json:"user_id" db:"user_id"`
	TaskID   *int64  `json:"task_id,omitempty" db:"task_id"`
	Channel  Channel `json:"channel" db:"channel"`
	Subject  string  `json:"subject" db:"subject"`
	Body     string  `json:"body" db:"body"`
	BodyHTML string  `json:"body_html,omitempty" db:"body_html"`
	Status   NotificationStatus `json:"status" db:"status"`
	Retries  int        `json:"retries" db:"retries"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}
