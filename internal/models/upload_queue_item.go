package models

import "time"

// ProviderGoogleDrive is the single storage provider this system uploads to.
// The provider column exists so the queue stays per-provider keyed, but no
// other value is ever written.
const ProviderGoogleDrive = "googledrive"

// UploadState represents the lifecycle state of an upload queue item.
type UploadState string

const (
	UploadStateQueued     UploadState = "queued"
	UploadStateProcessing UploadState = "processing"
	UploadStateRetrying   UploadState = "retrying"
	UploadStateSucceeded  UploadState = "succeeded"
	UploadStateFailed     UploadState = "failed"
	UploadStateSkipped    UploadState = "skipped"
	UploadStateCancelled  UploadState = "cancelled"
)

// IsTerminal reports whether the state is one the worker never leaves on its own.
// Re-entry from a terminal state happens only through the enqueue service.
func (s UploadState) IsTerminal() bool {
	switch s {
	case UploadStateSucceeded, UploadStateFailed, UploadStateSkipped, UploadStateCancelled:
		return true
	}
	return false
}

// UploadQueueItem is one row per (tenant, record, provider) desired upload.
// Rows are never deleted; they are the durable history of the pipeline.
type UploadQueueItem struct {
	ID                  string      `json:"id" db:"id"`
	TenantID            string      `json:"tenantId" db:"tenant_id"`
	RecordID            string      `json:"recordId" db:"record_id"`
	Provider            string      `json:"provider" db:"provider"`
	State               UploadState `json:"state" db:"state"`
	AttemptCount        int         `json:"attemptCount" db:"attempt_count"`
	CreatedAt           time.Time   `json:"createdAt" db:"created_at"`
	NextAttemptAt       time.Time   `json:"nextAttemptAt" db:"next_attempt_at"`
	ProcessingStartedAt *time.Time  `json:"processingStartedAt,omitempty" db:"processing_started_at"`
	LastMessage         *string     `json:"lastMessage,omitempty" db:"last_message"`
	LastFileID          *string     `json:"lastFileId,omitempty" db:"last_file_id"`
	LastFolderID        *string     `json:"lastFolderId,omitempty" db:"last_folder_id"`
}
