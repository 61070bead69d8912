package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadence-tracker/cadence/internal/model"
)

// InsertBlob inserts a blob row keyed by content hash. Two uploaders
// racing on the same content are deduplicated by the UNIQUE constraint:
// the loser's insert is a no-op and the winner's row is returned.
// Reports whether this call created the row.
func (s *SQLiteStore) InsertBlob(ctx context.Context, blob *model.FileBlob) (bool, error) {
	blob.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO file_blob (sha256_hash, file_size, mime_type, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sha256_hash) DO NOTHING`,
		blob.SHA256Hash, blob.FileSize, blob.MimeType, blob.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting blob %s: %w", blob.SHA256Hash, err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		blob.ID, err = result.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("reading blob id: %w", err)
		}
		return true, nil
	}

	// Lost the race (or content already known): load the existing row.
	existing, err := s.GetBlobByHash(ctx, blob.SHA256Hash)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("blob %s vanished after conflicting insert", blob.SHA256Hash)
	}
	*blob = *existing
	return false, nil
}

// GetBlobByID retrieves a blob row by internal id, or nil when absent.
func (s *SQLiteStore) GetBlobByID(ctx context.Context, id int64) (*model.FileBlob, error) {
	return s.getBlob(ctx, "SELECT * FROM file_blob WHERE id = ?", id)
}

// GetBlobByHash retrieves a blob row by content hash, or nil when absent.
func (s *SQLiteStore) GetBlobByHash(ctx context.Context, sha256Hash string) (*model.FileBlob, error) {
	return s.getBlob(ctx, "SELECT * FROM file_blob WHERE sha256_hash = ?", sha256Hash)
}

func (s *SQLiteStore) getBlob(ctx context.Context, query string, arg any) (*model.FileBlob, error) {
	var blob model.FileBlob
	err := s.db.GetContext(ctx, &blob, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting blob: %w", err)
	}
	return &blob, nil
}

// DeleteBlob removes a blob row. Deleting an already-deleted blob is a
// no-op so racing releases of the last reference converge.
func (s *SQLiteStore) DeleteBlob(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM file_blob WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting blob %d: %w", id, err)
	}
	return nil
}

// CreateAttachment inserts an attachment record referencing a blob.
func (s *SQLiteStore) CreateAttachment(ctx context.Context, a *model.Attachment) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	if a.OriginalFilename == "" {
		a.OriginalFilename = "unnamed"
	}
	a.UploadedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO attachment (
			uuid, task_id, file_blob_id, original_filename, uploaded_by, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		a.UUID, a.TaskID, a.FileBlobID, a.OriginalFilename, a.UploadedBy, a.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("creating attachment on task %d: %w", a.TaskID, err)
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading attachment id: %w", err)
	}
	return nil
}

// GetAttachmentByUUID retrieves an attachment by external id.
func (s *SQLiteStore) GetAttachmentByUUID(ctx context.Context, attachmentUUID string) (*model.Attachment, error) {
	var a model.Attachment
	err := s.db.GetContext(ctx, &a,
		"SELECT * FROM attachment WHERE uuid = ?", attachmentUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting attachment %s: %w", attachmentUUID, err)
	}
	return &a, nil
}

// GetAttachmentsForTask retrieves all attachments on a task, oldest first.
func (s *SQLiteStore) GetAttachmentsForTask(ctx context.Context, taskID int64) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := s.db.SelectContext(ctx, &attachments,
		"SELECT * FROM attachment WHERE task_id = ? ORDER BY uploaded_at ASC, id ASC", taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachments for task %d: %w", taskID, err)
	}
	return attachments, nil
}

// DeleteAttachment removes an attachment record. The blob row is managed
// separately by the blob store's reference counting.
func (s *SQLiteStore) DeleteAttachment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM attachment WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting attachment %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("attachment %d not found", id)
	}
	return nil
}

// CountAttachmentsForBlob counts attachment rows referencing a blob.
// This count is the blob's implicit reference count.
func (s *SQLiteStore) CountAttachmentsForBlob(ctx context.Context, blobID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM attachment WHERE file_blob_id = ?", blobID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting attachments for blob %d: %w", blobID, err)
	}
	return count, nil
}
