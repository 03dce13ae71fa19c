// Package service implements the upload pipeline: the ordered gating checks,
// artifact rendering and the storage call shared by the queue worker and the
// synchronous upload path.
package service

import (
	"context"
	"fmt"

	"github.com/drive-uploader/internal/drive"
	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
	"github.com/drive-uploader/internal/pdf"
)

// RecordStore reads the business records to upload.
type RecordStore interface {
	GetByID(ctx context.Context, id string) (*models.Record, error)
}

// IntegrationStore reads per-tenant provider settings.
type IntegrationStore interface {
	GetByTenantAndProvider(ctx context.Context, tenantID, provider string) (*models.TenantIntegration, error)
}

// Uploader is the storage collaborator. It retries transient provider
// errors internally and reports expected conditions through the outcome.
type Uploader interface {
	Upload(ctx context.Context, integration *models.TenantIntegration, folderName, fileName string, data []byte) (models.UploadOutcome, error)
}

// LogStore appends standalone audit rows for out-of-queue attempts.
type LogStore interface {
	Append(ctx context.Context, entry *models.UploadLog) error
}

// UploadService runs the per-record upload pipeline.
type UploadService struct {
	records      RecordStore
	integrations IntegrationStore
	renderer     pdf.Renderer
	uploader     Uploader
	logs         LogStore
}

// NewUploadService creates a new upload service
func NewUploadService(records RecordStore, integrations IntegrationStore, renderer pdf.Renderer, uploader Uploader, logs LogStore) *UploadService {
	return &UploadService{
		records:      records,
		integrations: integrations,
		renderer:     renderer,
		uploader:     uploader,
		logs:         logs,
	}
}

// Attempt runs the gating pipeline and, when every check passes, renders and
// uploads the artifact. The checks run in a fixed order and the first
// failing one decides the outcome.
//
// The returned outcome is what belongs in the audit log. terminal is true
// only for data-integrity failures (missing record, tenant mismatch), which
// must never be retried. A non-nil error means the attempt could not run at
// all (persistence unreachable, context cancelled) and nothing should be
// logged yet.
func (s *UploadService) Attempt(ctx context.Context, tenantID, recordID, provider string) (outcome models.UploadOutcome, terminal bool, err error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryNotFound {
			return failedOutcome("record or owner missing"), true, nil
		}
		return models.UploadOutcome{}, false, err
	}
	if record.TenantID == "" {
		return failedOutcome("record or owner missing"), true, nil
	}

	// A job row carrying the wrong tenant is stale or forged, not a
	// condition that heals with time.
	if record.TenantID != tenantID {
		return failedOutcome("tenant mismatch"), true, nil
	}

	if !record.IsApproved {
		return skippedOutcome("not approved yet"), false, nil
	}

	integration, err := s.integrations.GetByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryNotFound {
			return skippedOutcome("no integration configured"), false, nil
		}
		return models.UploadOutcome{}, false, err
	}

	if !integration.IsConnected || !integration.HasCredentials() {
		return skippedOutcome("not connected"), false, nil
	}
	if !integration.IsEnabled {
		return skippedOutcome("upload disabled for tenant"), false, nil
	}
	if integration.RootFolderID == "" {
		return skippedOutcome("no destination configured"), false, nil
	}

	data, err := s.render(ctx, record)
	if err != nil {
		if ctx.Err() != nil {
			return models.UploadOutcome{}, false, err
		}
		return failedOutcome(fmt.Sprintf("failed to render artifact: %v", err)), false, nil
	}

	folderName := drive.SanitizeFolderName(record.DisplayName, record.ID)
	fileName := fmt.Sprintf("evaluation-%s.pdf", record.ID)

	outcome, err = s.uploader.Upload(ctx, integration, folderName, fileName, data)
	if err != nil {
		if ctx.Err() != nil {
			return models.UploadOutcome{}, false, err
		}
		return failedOutcome(fmt.Sprintf("upload failed: %v", err)), false, nil
	}

	return outcome, false, nil
}

// render shields the pipeline from a panicking rendering engine; a panic is
// just another failed attempt.
func (s *UploadService) render(ctx context.Context, record *models.Record) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panicked: %v", r)
		}
	}()

	return s.renderer.Render(ctx, record)
}

// UploadNow is the synchronous, request-triggered upload path used right
// after a manual approval: same gating, same audit logging, but no queue row
// and therefore no durability. The audit row carries attempt_number 0 to
// mark an out-of-queue attempt.
func (s *UploadService) UploadNow(ctx context.Context, tenantID, recordID, provider string) (models.UploadOutcome, error) {
	if tenantID == "" {
		return models.UploadOutcome{}, errors.NewValidationError("tenant id is required")
	}
	if recordID == "" {
		return models.UploadOutcome{}, errors.NewValidationError("record id is required")
	}
	if provider == "" {
		provider = models.ProviderGoogleDrive
	}

	outcome, _, err := s.Attempt(ctx, tenantID, recordID, provider)
	if err != nil {
		return models.UploadOutcome{}, err
	}

	entry := &models.UploadLog{
		TenantID:      tenantID,
		RecordID:      recordID,
		Provider:      provider,
		Status:        outcome.Status,
		Message:       outcome.Message,
		AttemptNumber: 0,
	}
	if outcome.FileID != "" {
		entry.FileID = &outcome.FileID
	}
	if outcome.FolderID != "" {
		entry.FolderID = &outcome.FolderID
	}

	if err := s.logs.Append(ctx, entry); err != nil {
		return models.UploadOutcome{}, err
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"tenantId": tenantID,
		"recordId": recordID,
		"status":   outcome.Status,
	}).Info("Synchronous upload finished")

	return outcome, nil
}

func skippedOutcome(message string) models.UploadOutcome {
	return models.UploadOutcome{Status: models.UploadStatusSkipped, Message: message}
}

func failedOutcome(message string) models.UploadOutcome {
	return models.UploadOutcome{Status: models.UploadStatusFailed, Message: message}
}
