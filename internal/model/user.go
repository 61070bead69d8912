package model

import "time"

// Property namespaces and keys used by the notification pipeline.
// Properties live in the identity directory, not on the user row, so
// preference changes never require a schema migration.
const (
	PropertyNamespaceNotify = "notify"

	// PropertyEmailEnabled holds "true"/"false"; absent means enabled.
	PropertyEmailEnabled = "email_enabled"

	// PropertyPushTopic holds the user's push topic; absent means the
	// push channel is not configured for them.
	PropertyPushTopic = "push_topic"
)

// User is an account in the identity directory.
type User struct {
	ID          int64     `json:"-" db:"id"`
	UUID        string    `json:"id" db:"uuid"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name,omitempty" db:"display_name"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Name returns the user's display name, falling back to their email.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
