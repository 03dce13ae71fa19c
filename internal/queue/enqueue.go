package queue

import (
	"context"
	"fmt"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
)

// QueueStore is the persistence contract the enqueue service relies on.
//
// EnqueueOrRequeue must behave as a single atomic upsert keyed on
// (tenant_id, record_id, provider):
//   - no row: insert one in state queued, attempt_count 0, next_attempt_at now
//   - row in state succeeded: leave it untouched
//   - any other state: reset to queued, next_attempt_at now, clear
//     processing_started_at, set last_message; attempt_count is preserved
//
// It returns the row's id and whether an existing row was resurrected.
type QueueStore interface {
	EnqueueOrRequeue(ctx context.Context, tenantID, recordID, provider, message string) (string, bool, error)
}

// EnqueueService creates or resurrects upload queue items. It is the only
// writer allowed to move a row out of a terminal state.
type EnqueueService struct {
	store QueueStore
}

// NewEnqueueService creates a new enqueue service
func NewEnqueueService(store QueueStore) *EnqueueService {
	return &EnqueueService{store: store}
}

// EnqueueOrRequeue ensures a queue item exists for the given triple and will
// eventually be picked up by the worker. Calling it for an already succeeded
// upload is a no-op that returns the existing id.
func (s *EnqueueService) EnqueueOrRequeue(ctx context.Context, tenantID, recordID, provider, reason string) (string, error) {
	if tenantID == "" {
		return "", errors.NewValidationError("tenant id is required")
	}
	if recordID == "" {
		return "", errors.NewValidationError("record id is required")
	}
	if provider == "" {
		provider = models.ProviderGoogleDrive
	}

	message := "re-queued"
	if reason != "" {
		message = fmt.Sprintf("re-queued: %s", reason)
	}

	id, resurrected, err := s.store.EnqueueOrRequeue(ctx, tenantID, recordID, provider, message)
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"queueItemId": id,
		"tenantId":    tenantID,
		"recordId":    recordID,
		"provider":    provider,
		"resurrected": resurrected,
	}).Info("Upload enqueued")

	return id, nil
}
