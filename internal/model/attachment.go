package model

import "time"

// FileBlob is deduplicated file content, stored once per distinct
// SHA-256 hash. The on-disk path is derived from the hash (first two
// hex characters as a shard directory, full hash as the filename) so
// any process can locate it without coordination.
type FileBlob struct {
	ID         int64     `json:"-" db:"id"`
	SHA256Hash string    `json:"sha256_hash" db:"sha256_hash"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Attachment is per-upload metadata linked to a shared FileBlob.
// Multiple attachments, even across tasks, may reference the same blob;
// the blob is removed from disk only when its last reference goes.
type Attachment struct {
	ID               int64     `json:"-" db:"id"`
	UUID             string    `json:"id" db:"uuid"`
	TaskID           int64     `json:"task_id" db:"task_id"`
	FileBlobID       int64     `json:"-" db:"file_blob_id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	UploadedBy       int64     `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at" db:"uploaded_at"`
}
