// Package blob implements the content-addressed attachment store.
// File bytes are stored once per distinct SHA-256 hash at a path derived
// from the hash, deduplicated at the database level by a uniqueness
// constraint, and physically removed only when the last referencing
// attachment is deleted.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cadence-tracker/cadence/internal/model"
	"github.com/cadence-tracker/cadence/internal/store"
)

// ErrNotFound is returned when blob content does not exist, including
// the integrity-violation case of a blob row whose file is missing from
// disk.
var ErrNotFound = errors.New("blob content not found")

// Store persists deduplicated file content under a root directory, with
// metadata rows kept in the relational store.
type Store struct {
	db  store.Store
	dir string
}

// NewStore creates a blob store rooted at dir.
func NewStore(db store.Store, dir string) *Store {
	return &Store{db: db, dir: dir}
}

// Path returns the deterministic on-disk location for a content hash:
// dir/hash[:2]/hash. Any two processes agree on this without
// coordination.
func (s *Store) Path(sha256Hash string) string {
	return filepath.Join(s.dir, sha256Hash[:2], sha256Hash)
}

// HashContent returns the lowercase hex SHA-256 digest of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Put stores content, deduplicating by hash. When the hash is already
// known the existing blob is returned with created=false and nothing is
// written to disk. Two processes racing on a new hash may both write the
// file; that is idempotent (same bytes, same path) and the row insert is
// deduplicated by the database.
func (s *Store) Put(ctx context.Context, content []byte, mimeType string) (*model.FileBlob, bool, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	blob := &model.FileBlob{
		SHA256Hash: HashContent(content),
		FileSize:   int64(len(content)),
		MimeType:   mimeType,
	}

	created, err := s.db.InsertBlob(ctx, blob)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return blob, false, nil
	}

	path := s.Path(blob.SHA256Hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("creating blob shard directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		// The row now points at a missing file; reads surface this as
		// ErrNotFound rather than crashing.
		return nil, false, fmt.Errorf("writing blob %s: %w", blob.SHA256Hash, err)
	}

	return blob, true, nil
}

// Get reads the content of a blob by id. A blob row whose file is
// missing from disk yields ErrNotFound, never a crash.
func (s *Store) Get(ctx context.Context, blobID int64) ([]byte, error) {
	blob, err := s.db.GetBlobByID(ctx, blobID)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, ErrNotFound
	}

	content, err := os.ReadFile(s.Path(blob.SHA256Hash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading blob %s: %w", blob.SHA256Hash, err)
	}
	return content, nil
}

// SaveUpload stores an uploaded file with deduplication and creates the
// attachment record referencing it.
func (s *Store) SaveUpload(
	ctx context.Context,
	taskID int64,
	uploadedBy int64,
	filename string,
	content []byte,
	mimeType string,
) (*model.Attachment, error) {
	fileBlob, _, err := s.Put(ctx, content, mimeType)
	if err != nil {
		return nil, err
	}

	attachment := &model.Attachment{
		TaskID:           taskID,
		FileBlobID:       fileBlob.ID,
		OriginalFilename: filename,
		UploadedBy:       uploadedBy,
	}
	if err := s.db.CreateAttachment(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// DeleteAttachment removes an attachment and releases its blob
// reference. When no other attachment references the blob, the disk
// file and the blob row are removed. The file removal is
// delete-if-exists, so concurrent releases of the last two references
// converge on "gone" instead of failing.
func (s *Store) DeleteAttachment(ctx context.Context, attachment *model.Attachment) error {
	blob, err := s.db.GetBlobByID(ctx, attachment.FileBlobID)
	if err != nil {
		return err
	}

	if err := s.db.DeleteAttachment(ctx, attachment.ID); err != nil {
		return err
	}

	if blob == nil {
		return nil
	}

	remaining, err := s.db.CountAttachmentsForBlob(ctx, blob.ID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	if err := os.Remove(s.Path(blob.SHA256Hash)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing blob file %s: %w", blob.SHA256Hash, err)
	}
	return s.db.DeleteBlob(ctx, blob.ID)
}
