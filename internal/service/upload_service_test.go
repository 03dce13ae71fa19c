package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/models"
)

type mockRecordStore struct {
	record *models.Record
	err    error
}

func (m *mockRecordStore) GetByID(ctx context.Context, id string) (*models.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

type mockIntegrationStore struct {
	integration *models.TenantIntegration
	err         error
}

func (m *mockIntegrationStore) GetByTenantAndProvider(ctx context.Context, tenantID, provider string) (*models.TenantIntegration, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.integration, nil
}

type mockRenderer struct {
	data  []byte
	err   error
	panic bool
}

func (m *mockRenderer) Render(ctx context.Context, record *models.Record) ([]byte, error) {
	if m.panic {
		panic("renderer blew up")
	}
	return m.data, m.err
}

type mockUploader struct {
	outcome     models.UploadOutcome
	err         error
	calls       int
	gotFolder   string
	gotFileName string
}

func (m *mockUploader) Upload(ctx context.Context, integration *models.TenantIntegration, folderName, fileName string, data []byte) (models.UploadOutcome, error) {
	m.calls++
	m.gotFolder = folderName
	m.gotFileName = fileName
	if m.err != nil {
		return models.UploadOutcome{}, m.err
	}
	return m.outcome, nil
}

type mockLogStore struct {
	entries []*models.UploadLog
	err     error
}

func (m *mockLogStore) Append(ctx context.Context, entry *models.UploadLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func approvedRecord() *models.Record {
	return &models.Record{
		ID:          "record-1",
		TenantID:    "tenant-1",
		DisplayName: "Annual Evaluation",
		IsApproved:  true,
	}
}

func connectedIntegration() *models.TenantIntegration {
	return &models.TenantIntegration{
		TenantID:     "tenant-1",
		Provider:     models.ProviderGoogleDrive,
		IsConnected:  true,
		IsEnabled:    true,
		AccessToken:  "access",
		RefreshToken: "refresh",
		RootFolderID: "root-1",
	}
}

func newService(records *mockRecordStore, integrations *mockIntegrationStore, renderer *mockRenderer, uploader *mockUploader, logs *mockLogStore) *UploadService {
	if renderer == nil {
		renderer = &mockRenderer{data: []byte("%PDF-1.4")}
	}
	if uploader == nil {
		uploader = &mockUploader{outcome: models.UploadOutcome{
			Status: models.UploadStatusUploaded, Message: "uploaded", FileID: "f", FolderID: "d",
		}}
	}
	if logs == nil {
		logs = &mockLogStore{}
	}
	return NewUploadService(records, integrations, renderer, uploader, logs)
}

func TestAttemptRecordMissing(t *testing.T) {
	svc := newService(
		&mockRecordStore{err: errors.NewNotFoundError("record", "record-1")},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, models.UploadStatusFailed, outcome.Status)
	assert.Equal(t, "record or owner missing", outcome.Message)
}

func TestAttemptRecordWithoutOwner(t *testing.T) {
	record := approvedRecord()
	record.TenantID = ""
	svc := newService(
		&mockRecordStore{record: record},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, "record or owner missing", outcome.Message)
}

func TestAttemptTenantMismatch(t *testing.T) {
	uploader := &mockUploader{}
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, uploader, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "other-tenant", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.True(t, terminal)
	assert.Equal(t, models.UploadStatusFailed, outcome.Status)
	assert.Equal(t, "tenant mismatch", outcome.Message)
	assert.Zero(t, uploader.calls)
}

func TestAttemptNotApproved(t *testing.T) {
	record := approvedRecord()
	record.IsApproved = false
	svc := newService(
		&mockRecordStore{record: record},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusSkipped, outcome.Status)
	assert.Equal(t, "not approved yet", outcome.Message)
}

func TestAttemptNotApprovedBeforeIntegrationGate(t *testing.T) {
	// With both an unapproved record and no integration row, the approval
	// check decides the message: the record gate runs first.
	record := approvedRecord()
	record.IsApproved = false
	svc := newService(
		&mockRecordStore{record: record},
		&mockIntegrationStore{err: errors.NewNotFoundError("integration", "tenant-1")},
		nil, nil, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusSkipped, outcome.Status)
	assert.Equal(t, "not approved yet", outcome.Message)
}

func TestAttemptGatingOnIntegration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.TenantIntegration)
		missing bool
		message string
	}{
		{
			name:    "no integration row",
			missing: true,
			message: "no integration configured",
		},
		{
			name:    "not connected",
			mutate:  func(i *models.TenantIntegration) { i.IsConnected = false },
			message: "not connected",
		},
		{
			name:    "missing credentials",
			mutate:  func(i *models.TenantIntegration) { i.RefreshToken = "" },
			message: "not connected",
		},
		{
			name:    "disabled",
			mutate:  func(i *models.TenantIntegration) { i.IsEnabled = false },
			message: "upload disabled for tenant",
		},
		{
			name:    "no root folder",
			mutate:  func(i *models.TenantIntegration) { i.RootFolderID = "" },
			message: "no destination configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integrations := &mockIntegrationStore{}
			if tt.missing {
				integrations.err = errors.NewNotFoundError("integration", "tenant-1")
			} else {
				integration := connectedIntegration()
				tt.mutate(integration)
				integrations.integration = integration
			}

			uploader := &mockUploader{}
			svc := newService(&mockRecordStore{record: approvedRecord()}, integrations, nil, uploader, nil)

			outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
			require.NoError(t, err)
			assert.False(t, terminal)
			assert.Equal(t, models.UploadStatusSkipped, outcome.Status)
			assert.Equal(t, tt.message, outcome.Message)
			assert.Zero(t, uploader.calls)
		})
	}
}

func TestAttemptDisabledBeatsMissingRoot(t *testing.T) {
	// When a tenant is both disabled and missing a destination, the
	// disabled check decides the message.
	integration := connectedIntegration()
	integration.IsEnabled = false
	integration.RootFolderID = ""
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: integration},
		nil, nil, nil,
	)

	outcome, _, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.Equal(t, "upload disabled for tenant", outcome.Message)
}

func TestAttemptUploads(t *testing.T) {
	uploader := &mockUploader{outcome: models.UploadOutcome{
		Status:   models.UploadStatusUploaded,
		Message:  "uploaded",
		FileID:   "file-1",
		FolderID: "folder-1",
	}}
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, uploader, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusUploaded, outcome.Status)
	assert.Equal(t, "file-1", outcome.FileID)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "Annual Evaluation", uploader.gotFolder)
	assert.Equal(t, "evaluation-record-1.pdf", uploader.gotFileName)
}

func TestAttemptRendererFailure(t *testing.T) {
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		&mockRenderer{err: stderrors.New("font table corrupt")},
		&mockUploader{}, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "failed to render artifact")
}

func TestAttemptRendererPanicBecomesFailure(t *testing.T) {
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		&mockRenderer{panic: true},
		&mockUploader{}, nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "renderer panicked")
}

func TestAttemptUploaderErrorBecomesFailedOutcome(t *testing.T) {
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil,
		&mockUploader{err: stderrors.New("drive request failed with status 503")},
		nil,
	)

	outcome, terminal, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.False(t, terminal)
	assert.Equal(t, models.UploadStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "503")
}

func TestAttemptDatabaseErrorBubbles(t *testing.T) {
	dbErr := errors.NewDatabaseError("get record", stderrors.New("dial tcp: connection refused"))
	svc := newService(
		&mockRecordStore{err: dbErr},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, nil,
	)

	_, _, err := svc.Attempt(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.Error(t, err)
}

func TestUploadNowValidatesInput(t *testing.T) {
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, nil,
	)

	_, err := svc.UploadNow(context.Background(), "", "record-1", "")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	_, err = svc.UploadNow(context.Background(), "tenant-1", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestUploadNowLogsAttemptZero(t *testing.T) {
	logs := &mockLogStore{}
	uploader := &mockUploader{outcome: models.UploadOutcome{
		Status:   models.UploadStatusUploaded,
		Message:  "uploaded",
		FileID:   "file-1",
		FolderID: "folder-1",
	}}
	svc := newService(
		&mockRecordStore{record: approvedRecord()},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, uploader, logs,
	)

	outcome, err := svc.UploadNow(context.Background(), "tenant-1", "record-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusUploaded, outcome.Status)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, 0, entry.AttemptNumber)
	assert.Equal(t, models.ProviderGoogleDrive, entry.Provider)
	require.NotNil(t, entry.FileID)
	assert.Equal(t, "file-1", *entry.FileID)
}

func TestUploadNowLogsSkips(t *testing.T) {
	logs := &mockLogStore{}
	record := approvedRecord()
	record.IsApproved = false
	svc := newService(
		&mockRecordStore{record: record},
		&mockIntegrationStore{integration: connectedIntegration()},
		nil, nil, logs,
	)

	outcome, err := svc.UploadNow(context.Background(), "tenant-1", "record-1", models.ProviderGoogleDrive)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusSkipped, outcome.Status)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, "not approved yet", logs.entries[0].Message)
	assert.Nil(t, logs.entries[0].FileID)
}
