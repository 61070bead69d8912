package store_test

import (
	"context"
	"testing"

	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/store"
	"github.com/cadence-tracker/cadence/tests/testutil"
)

func TestCreateTaskForcesNewStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")

	task := &model.Task{Title: "Pre-set status", OwnerID: owner.ID, Status: model.StatusComplete}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if task.Status != model.StatusNew {
		t.Errorf("created status = %s, want new", task.Status)
	}
	if task.UUID == "" {
		t.Error("no uuid assigned")
	}

	got, err := s.GetTaskByUUID(ctx, task.UUID)
	if err != nil {
		t.Fatalf("getting task by uuid: %v", err)
	}
	if got.ID != task.ID || got.Status != model.StatusNew {
		t.Errorf("reloaded task = %+v", got)
	}
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	s := testutil.NewTestStore(t)

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	err := s.CreateTask(context.Background(), &model.Task{Title: "   ", OwnerID: owner.ID})
	if err == nil {
		t.Fatal("blank title accepted")
	}
}

func TestTransitionTaskPersists(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	task := testutil.NewTestTask(t, s, owner.ID, "Lifecycle")

	ok, err := s.TransitionTask(ctx, task, model.StatusInProgress)
	if err != nil {
		t.Fatalf("transitioning: %v", err)
	}
	if !ok {
		t.Fatal("new -> in_progress rejected")
	}
	if task.Status != model.StatusInProgress {
		t.Errorf("in-memory status = %s, want in_progress", task.Status)
	}

	got, err := s.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reloading task: %v", err)
	}
	if got.Status != model.StatusInProgress {
		t.Errorf("stored status = %s, want in_progress", got.Status)
	}
}

func TestTransitionTaskRejectsDisallowedMove(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	task := testutil.NewTestTask(t, s, owner.ID, "Lifecycle")

	if ok, err := s.TransitionTask(ctx, task, model.StatusOnHold); err != nil || !ok {
		t.Fatalf("new -> on_hold: ok=%t err=%v", ok, err)
	}

	// on_hold -> new is not in the table. Rejection is a report, not an
	// error, and the row must be untouched.
	ok, err := s.TransitionTask(ctx, task, model.StatusNew)
	if err != nil {
		t.Fatalf("disallowed transition errored: %v", err)
	}
	if ok {
		t.Error("on_hold -> new accepted")
	}

	got, err := s.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("reloading task: %v", err)
	}
	if got.Status != model.StatusOnHold {
		t.Errorf("stored status = %s, want on_hold", got.Status)
	}
}

func TestGetTasksFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	alice := testutil.NewTestUser(t, s, "alice@example.com")
	bob := testutil.NewTestUser(t, s, "bob@example.com")

	testutil.NewTestTask(t, s, alice.ID, "Ship the quarterly report")
	bobs := testutil.NewTestTask(t, s, bob.ID, "Fix the report generator")
	testutil.NewTestTask(t, s, bob.ID, "Water the plants")

	if ok, err := s.TransitionTask(ctx, bobs, model.StatusInProgress); err != nil || !ok {
		t.Fatalf("transitioning fixture: ok=%t err=%v", ok, err)
	}

	query := "report"
	tasks, err := s.GetTasks(ctx, store.TaskFilter{Query: &query})
	if err != nil {
		t.Fatalf("querying by text: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("text filter matched %d tasks, want 2", len(tasks))
	}

	status := model.StatusInProgress
	tasks, err = s.GetTasks(ctx, store.TaskFilter{OwnerID: &bob.ID, Status: &status})
	if err != nil {
		t.Fatalf("querying by owner+status: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != bobs.ID {
		t.Errorf("owner+status filter = %v, want only task %d", tasks, bobs.ID)
	}

	count, err := s.CountTasks(ctx, store.TaskFilter{OwnerID: &bob.ID})
	if err != nil {
		t.Fatalf("counting by owner: %v", err)
	}
	if count != 2 {
		t.Errorf("owner count = %d, want 2", count)
	}
}
