package models

import "time"

// UploadStatus is the outcome of a single upload attempt.
type UploadStatus string

const (
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusSkipped  UploadStatus = "skipped"
	UploadStatusFailed   UploadStatus = "failed"
)

// UploadLog is the append-only audit record of one upload attempt.
// Rows are inserted exactly once and never updated or deleted.
type UploadLog struct {
	ID            string       `json:"id" db:"id"`
	TenantID      string       `json:"tenantId" db:"tenant_id"`
	RecordID      string       `json:"recordId" db:"record_id"`
	Provider      string       `json:"provider" db:"provider"`
	Status        UploadStatus `json:"status" db:"status"`
	Message       string       `json:"message" db:"message"`
	FileID        *string      `json:"fileId,omitempty" db:"file_id"`
	FolderID      *string      `json:"folderId,omitempty" db:"folder_id"`
	AttemptNumber int          `json:"attemptNumber" db:"attempt_number"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
}

// UploadOutcome is the value returned by the storage collaborator for one
// upload call. It is not persisted directly; the caller maps it into an
// UploadLog row and the queue item's terminal fields.
type UploadOutcome struct {
	Status   UploadStatus
	Message  string
	FileID   string
	FolderID string
}
