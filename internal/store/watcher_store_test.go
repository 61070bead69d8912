package store_test

import (
	"context"
	"testing"

	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/tests/testutil"
)

func TestAddWatcherIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	watcher := testutil.NewTestUser(t, s, "watcher@example.com")
	task := testutil.NewTestTask(t, s, owner.ID, "Watched task")

	added, err := s.AddWatcher(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("adding watcher: %v", err)
	}
	if !added {
		t.Error("first add reported no-op")
	}

	added, err = s.AddWatcher(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("re-adding watcher: %v", err)
	}
	if added {
		t.Error("duplicate add reported as new")
	}

	watching, err := s.IsWatching(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("checking watcher: %v", err)
	}
	if !watching {
		t.Error("watcher not present after add")
	}

	ids, err := s.GetWatcherIDs(ctx, task.ID)
	if err != nil {
		t.Fatalf("listing watchers: %v", err)
	}
	if len(ids) != 1 || ids[0] != watcher.ID {
		t.Errorf("watcher ids = %v, want [%d]", ids, watcher.ID)
	}
}

func TestRemoveWatcher(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	watcher := testutil.NewTestUser(t, s, "watcher@example.com")
	task := testutil.NewTestTask(t, s, owner.ID, "Watched task")

	if _, err := s.AddWatcher(ctx, task.ID, watcher.ID); err != nil {
		t.Fatalf("adding watcher: %v", err)
	}

	removed, err := s.RemoveWatcher(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("removing watcher: %v", err)
	}
	if !removed {
		t.Error("remove reported no-op")
	}

	removed, err = s.RemoveWatcher(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("re-removing watcher: %v", err)
	}
	if removed {
		t.Error("second remove reported success")
	}

	watching, err := s.IsWatching(ctx, task.ID, watcher.ID)
	if err != nil {
		t.Fatalf("checking watcher: %v", err)
	}
	if watching {
		t.Error("watcher still present after remove")
	}
}

func TestTagTaskIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	owner := testutil.NewTestUser(t, s, "owner@example.com")
	task := testutil.NewTestTask(t, s, owner.ID, "Tagged task")

	tag := &model.Tag{Name: "urgent", Color: "#cc0000"}
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("creating tag: %v", err)
	}

	tagged, err := s.TagTask(ctx, task.ID, tag.ID)
	if err != nil {
		t.Fatalf("tagging task: %v", err)
	}
	if !tagged {
		t.Error("first tag reported no-op")
	}

	tagged, err = s.TagTask(ctx, task.ID, tag.ID)
	if err != nil {
		t.Fatalf("re-tagging task: %v", err)
	}
	if tagged {
		t.Error("duplicate tag reported as new")
	}

	tags, err := s.GetTagsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("listing task tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "urgent" {
		t.Errorf("task tags = %v, want [urgent]", tags)
	}

	untagged, err := s.UntagTask(ctx, task.ID, tag.ID)
	if err != nil {
		t.Fatalf("untagging task: %v", err)
	}
	if !untagged {
		t.Error("untag reported no-op")
	}
}
