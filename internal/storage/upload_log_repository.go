package storage

import (
	"context"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UploadLogRepository handles the append-only upload audit log
type UploadLogRepository struct {
	db *PostgresDB
}

// NewUploadLogRepository creates a new upload log repository
func NewUploadLogRepository(db *PostgresDB) *UploadLogRepository {
	return &UploadLogRepository{db: db}
}

// insertUploadLog appends an audit row inside an existing transaction. The
// queue repository uses it to keep the log write atomic with the state
// transition.
func insertUploadLog(ctx context.Context, tx pgx.Tx, entry *models.UploadLog) error {
	query := `
		INSERT INTO upload_logs (
			id, tenant_id, record_id, provider, status, message,
			file_id, folder_id, attempt_number, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	`

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.RecordID,
		entry.Provider,
		entry.Status,
		entry.Message,
		entry.FileID,
		entry.FolderID,
		entry.AttemptNumber,
	)
	if err != nil {
		return errors.NewDatabaseError("insert upload log", err)
	}

	return nil
}

// Append writes a standalone audit row, outside any queue item transition.
// The synchronous upload path uses this with attempt_number 0.
func (r *UploadLogRepository) Append(ctx context.Context, entry *models.UploadLog) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return errors.NewDatabaseError("begin append upload log", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := insertUploadLog(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewDatabaseError("commit append upload log", err)
	}

	return nil
}

// ListByRecord retrieves the audit trail for one record, newest first.
func (r *UploadLogRepository) ListByRecord(ctx context.Context, tenantID, recordID string, limit int) ([]*models.UploadLog, error) {
	query := `
		SELECT id, tenant_id, record_id, provider, status, message,
			   file_id, folder_id, attempt_number, created_at
		FROM upload_logs
		WHERE tenant_id = $1 AND record_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query, tenantID, recordID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("list upload logs", err)
	}
	defer rows.Close()

	var entries []*models.UploadLog
	for rows.Next() {
		var entry models.UploadLog
		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.RecordID,
			&entry.Provider,
			&entry.Status,
			&entry.Message,
			&entry.FileID,
			&entry.FolderID,
			&entry.AttemptNumber,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, errors.NewDatabaseError("scan upload log", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate upload logs", err)
	}

	return entries, nil
}
