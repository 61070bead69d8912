package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cadence-tracker/cadence/internal/model"
)

// CreateUser inserts a new user account.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *model.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user email must not be empty")
	}
	if user.UUID == "" {
		user.UUID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user (uuid, email, display_name, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.UUID, user.Email, user.DisplayName, boolToInt(user.Enabled),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", user.Email, err)
	}

	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	return nil
}

// GetUser retrieves a user by internal id. A missing user is reported as
// (nil, nil): the directory treats absence as "no such recipient", not a
// failure.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, "SELECT * FROM user WHERE id = ?", id)
}

// GetUserByUUID retrieves a user by external id.
func (s *SQLiteStore) GetUserByUUID(ctx context.Context, userUUID string) (*model.User, error) {
	return s.getUser(ctx, "SELECT * FROM user WHERE uuid = ?", userUUID)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		user    model.User
		enabled int
	)
	err := s.db.QueryRowxContext(ctx, query, arg).Scan(
		&user.ID, &user.UUID, &user.Email, &user.DisplayName, &enabled,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	user.Enabled = enabled != 0
	return &user, nil
}

// SetUserEnabled toggles an account's enabled flag.
func (s *SQLiteStore) SetUserEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE user SET enabled = ?, updated_at = ? WHERE id = ?",
		boolToInt(enabled), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting user %d enabled=%t: %w", id, enabled, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user %d not found", id)
	}
	return nil
}

// GetUserProperty looks up a namespaced property for a user. The second
// return value reports whether the property is set.
func (s *SQLiteStore) GetUserProperty(
	ctx context.Context,
	userID int64,
	namespace, key string,
) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `
		SELECT value FROM user_property
		WHERE user_id = ? AND namespace = ? AND key = ?`,
		userID, namespace, key,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting property %s/%s for user %d: %w", namespace, key, userID, err)
	}
	return value, true, nil
}

// SetUserProperty stores a namespaced property, replacing any existing
// value.
func (s *SQLiteStore) SetUserProperty(
	ctx context.Context,
	userID int64,
	namespace, key, value string,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_property (user_id, namespace, key, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, namespace, key) DO UPDATE SET value = excluded.value`,
		userID, namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("setting property %s/%s for user %d: %w", namespace, key, userID, err)
	}
	return nil
}
