package testutil

import (
	"context"
	"testing"

	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestUser inserts an enabled user with the given email and returns it.
func NewTestUser(t *testing.T, s *store.SQLiteStore, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, Enabled: true}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

// NewTestTask inserts a task owned by ownerID and returns it.
func NewTestTask(t *testing.T, s *store.SQLiteStore, ownerID int64, title string) *model.Task {
	t.Helper()

	task := &model.Task{Title: title, OwnerID: ownerID}
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("creating test task %q: %v", title, err)
	}
	return task
}
