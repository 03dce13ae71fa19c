// Package worker contains the polling loop that drives queued uploads to
// completion, and the per-job state transitions around the pipeline.
package worker

import (
	"context"
	"time"

	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
	"github.com/drive-uploader/internal/queue"
)

// Pipeline runs one upload attempt for a job. terminal marks failures that
// must not be retried.
type Pipeline interface {
	Attempt(ctx context.Context, tenantID, recordID, provider string) (outcome models.UploadOutcome, terminal bool, err error)
}

// JobStore is the queue persistence contract the worker relies on.
type JobStore interface {
	SelectDue(ctx context.Context, limit int) ([]*models.UploadQueueItem, error)
	Claim(ctx context.Context, id string) (*models.UploadQueueItem, bool, error)
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
	ConcludeAttempt(ctx context.Context, item *models.UploadQueueItem, entry *models.UploadLog) error
}

// Processor turns one claimed job into exactly one audit row and one state
// transition.
type Processor struct {
	store       JobStore
	pipeline    Pipeline
	maxAttempts int
}

// NewProcessor creates a new job processor
func NewProcessor(store JobStore, pipeline Pipeline, maxAttempts int) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = queue.MaxAttempts
	}
	return &Processor{store: store, pipeline: pipeline, maxAttempts: maxAttempts}
}

// ProcessJob runs the pipeline for a claimed job and persists the outcome.
// The item must already be in state processing with attempt_count stamped by
// Claim. A returned error means the attempt could not conclude; the job
// stays in flight and the stale reclaimer will eventually recover it.
func (p *Processor) ProcessJob(ctx context.Context, item *models.UploadQueueItem) error {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"queueItemId": item.ID,
		"tenantId":    item.TenantID,
		"recordId":    item.RecordID,
		"attempt":     item.AttemptCount,
	})

	outcome, terminal, err := p.pipeline.Attempt(ctx, item.TenantID, item.RecordID, item.Provider)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	item.ProcessingStartedAt = nil
	message := outcome.Message
	item.LastMessage = &message

	entry := &models.UploadLog{
		TenantID:      item.TenantID,
		RecordID:      item.RecordID,
		Provider:      item.Provider,
		Status:        outcome.Status,
		Message:       outcome.Message,
		AttemptNumber: item.AttemptCount,
	}

	switch outcome.Status {
	case models.UploadStatusUploaded:
		item.State = models.UploadStateSucceeded
		fileID, folderID := outcome.FileID, outcome.FolderID
		item.LastFileID = &fileID
		item.LastFolderID = &folderID
		entry.FileID = &fileID
		entry.FolderID = &folderID
		logger.Info("Upload succeeded")

	case models.UploadStatusSkipped:
		item.State = models.UploadStateSkipped
		if outcome.FileID != "" {
			fileID := outcome.FileID
			item.LastFileID = &fileID
			entry.FileID = &fileID
		}
		if outcome.FolderID != "" {
			folderID := outcome.FolderID
			item.LastFolderID = &folderID
			entry.FolderID = &folderID
		}
		logger.WithField("reason", outcome.Message).Info("Upload skipped")

	case models.UploadStatusFailed:
		switch {
		case terminal:
			item.State = models.UploadStateFailed
			item.NextAttemptAt = now
			logger.WithField("reason", outcome.Message).Error("Upload failed permanently")
		case item.AttemptCount >= p.maxAttempts:
			item.State = models.UploadStateFailed
			item.NextAttemptAt = now
			logger.WithFields(map[string]interface{}{
				"reason":      outcome.Message,
				"maxAttempts": p.maxAttempts,
			}).Error("Upload failed, attempts exhausted")
		default:
			item.State = models.UploadStateRetrying
			item.NextAttemptAt = now.Add(queue.Backoff(item.AttemptCount))
			logger.WithFields(map[string]interface{}{
				"reason":        outcome.Message,
				"nextAttemptAt": item.NextAttemptAt,
			}).Warn("Upload failed, scheduling retry")
		}
	}

	return p.store.ConcludeAttempt(ctx, item, entry)
}
