package blob_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/cadence-tracker/cadence/internal/blob"
	"github.com/cadence-tracker/cadence/tests/testutil"
)

func TestPutDeduplicatesByHash(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())
	ctx := context.Background()

	content := []byte("quarterly figures\n")

	first, created, err := s.Put(ctx, content, "text/plain")
	if err != nil {
		t.Fatalf("first put: %v", err)
	}
	if !created {
		t.Error("first put reported existing blob")
	}
	if first.SHA256Hash != blob.HashContent(content) {
		t.Errorf("hash = %s, want %s", first.SHA256Hash, blob.HashContent(content))
	}

	second, created, err := s.Put(ctx, content, "text/plain")
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if created {
		t.Error("second put reported new blob")
	}
	if second.ID != first.ID {
		t.Errorf("second put blob id = %d, want %d", second.ID, first.ID)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content round trip mismatch: %q", got)
	}
}

func TestPathIsShardedByHashPrefix(t *testing.T) {
	db := testutil.NewTestStore(t)
	dir := t.TempDir()
	s := blob.NewStore(db, dir)

	content := []byte("payload")
	fileBlob, _, err := s.Put(context.Background(), content, "")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	path := s.Path(fileBlob.SHA256Hash)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("blob file missing at %s: %v", path, err)
	}
	if fileBlob.MimeType != "application/octet-stream" {
		t.Errorf("mime type = %s, want octet-stream default", fileBlob.MimeType)
	}
}

func TestSaveUploadSharesBlob(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db, "alice@example.com")
	taskA := testutil.NewTestTask(t, db, user.ID, "Task A")
	taskB := testutil.NewTestTask(t, db, user.ID, "Task B")

	content := []byte("shared bytes")

	a, err := s.SaveUpload(ctx, taskA.ID, user.ID, "report.txt", content, "text/plain")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	b, err := s.SaveUpload(ctx, taskB.ID, user.ID, "copy-of-report.txt", content, "text/plain")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	// Distinct attachments, one underlying blob.
	if a.ID == b.ID {
		t.Error("attachments share an id")
	}
	if a.FileBlobID != b.FileBlobID {
		t.Errorf("blob ids %d and %d, want shared", a.FileBlobID, b.FileBlobID)
	}

	count, err := db.CountAttachmentsForBlob(ctx, a.FileBlobID)
	if err != nil {
		t.Fatalf("counting references: %v", err)
	}
	if count != 2 {
		t.Errorf("reference count = %d, want 2", count)
	}
}

func TestDeleteAttachmentKeepsSharedBlob(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db, "alice@example.com")
	task := testutil.NewTestTask(t, db, user.ID, "Task")

	content := []byte("shared bytes")
	a, err := s.SaveUpload(ctx, task.ID, user.ID, "one.txt", content, "text/plain")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	b, err := s.SaveUpload(ctx, task.ID, user.ID, "two.txt", content, "text/plain")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if err := s.DeleteAttachment(ctx, a); err != nil {
		t.Fatalf("deleting first attachment: %v", err)
	}

	// The remaining reference keeps both the row and the file alive.
	got, err := s.Get(ctx, b.FileBlobID)
	if err != nil {
		t.Fatalf("get after partial delete: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch after partial delete: %q", got)
	}

	if err := s.DeleteAttachment(ctx, b); err != nil {
		t.Fatalf("deleting last attachment: %v", err)
	}

	if _, err := s.Get(ctx, b.FileBlobID); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("get after full delete: err = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(s.Path(blob.HashContent(content))); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("blob file still on disk after last delete: %v", err)
	}
}

func TestDeleteAttachmentTwiceConverges(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())
	ctx := context.Background()

	user := testutil.NewTestUser(t, db, "alice@example.com")
	task := testutil.NewTestTask(t, db, user.ID, "Task")

	a, err := s.SaveUpload(ctx, task.ID, user.ID, "only.txt", []byte("bytes"), "text/plain")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := s.DeleteAttachment(ctx, a); err != nil {
		t.Fatalf("first delete: %v", err)
	}

	// The second delete finds the blob already gone; it must not panic or
	// report a filesystem error, only the missing attachment row.
	err = s.DeleteAttachment(ctx, a)
	if err == nil {
		t.Fatal("second delete of the attachment row reported success")
	}
}

func TestGetMissingBlobRow(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())

	if _, err := s.Get(context.Background(), 999); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("get of absent blob: err = %v, want ErrNotFound", err)
	}
}

func TestGetBlobWithMissingFile(t *testing.T) {
	db := testutil.NewTestStore(t)
	s := blob.NewStore(db, t.TempDir())
	ctx := context.Background()

	fileBlob, _, err := s.Put(ctx, []byte("ephemeral"), "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := os.Remove(s.Path(fileBlob.SHA256Hash)); err != nil {
		t.Fatalf("removing file out of band: %v", err)
	}

	if _, err := s.Get(ctx, fileBlob.ID); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("get with missing file: err = %v, want ErrNotFound", err)
	}
}
