package storage

import (
	"context"
	stderrors "errors"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/models"
	"github.com/jackc/pgx/v5"
)

// RecordRepository reads the business records whose PDFs get uploaded. The
// owning web application writes these rows; this service only reads them.
type RecordRepository struct {
	db *PostgresDB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *PostgresDB) *RecordRepository {
	return &RecordRepository{db: db}
}

// GetByID retrieves a record by id
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	query := `
		SELECT id, tenant_id, display_name, is_approved, approved_at, created_at
		FROM records
		WHERE id = $1
	`

	var record models.Record
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.TenantID,
		&record.DisplayName,
		&record.IsApproved,
		&record.ApprovedAt,
		&record.CreatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("record", id)
		}
		return nil, errors.NewDatabaseError("get record", err)
	}

	return &record, nil
}
