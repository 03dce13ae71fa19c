package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// queueItemColumns is the scan order shared by every query returning a full
// queue item row.
const queueItemColumns = `
	id, tenant_id, record_id, provider, state, attempt_count,
	created_at, next_attempt_at, processing_started_at,
	last_message, last_file_id, last_folder_id
`

// UploadQueueRepository handles upload queue item persistence
type UploadQueueRepository struct {
	db *PostgresDB
}

// NewUploadQueueRepository creates a new upload queue repository
func NewUploadQueueRepository(db *PostgresDB) *UploadQueueRepository {
	return &UploadQueueRepository{db: db}
}

func scanQueueItem(row pgx.Row) (*models.UploadQueueItem, error) {
	var item models.UploadQueueItem
	err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.RecordID,
		&item.Provider,
		&item.State,
		&item.AttemptCount,
		&item.CreatedAt,
		&item.NextAttemptAt,
		&item.ProcessingStartedAt,
		&item.LastMessage,
		&item.LastFileID,
		&item.LastFolderID,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByID retrieves a queue item by id
func (r *UploadQueueRepository) GetByID(ctx context.Context, id string) (*models.UploadQueueItem, error) {
	query := `SELECT ` + queueItemColumns + ` FROM upload_queue_items WHERE id = $1`

	item, err := scanQueueItem(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("queue item", id)
		}
		return nil, errors.NewDatabaseError("get queue item", err)
	}

	return item, nil
}

// EnqueueOrRequeue creates or resurrects the queue item for the given
// (tenant, record, provider) triple. A row already in state succeeded is
// left untouched; any other existing row is reset to queued with
// attempt_count preserved. Returns the row id and whether an existing row
// was resurrected.
func (r *UploadQueueRepository) EnqueueOrRequeue(ctx context.Context, tenantID, recordID, provider, message string) (string, bool, error) {
	insert := `
		INSERT INTO upload_queue_items (
			id, tenant_id, record_id, provider, state, attempt_count,
			created_at, next_attempt_at
		)
		VALUES ($1, $2, $3, $4, $5, 0, now(), now())
	`

	_, err := r.db.Pool().Exec(ctx, insert,
		uuid.New().String(), tenantID, recordID, provider, models.UploadStateQueued)
	if err == nil {
		// Fresh row; read the id back
		item, getErr := r.getByKey(ctx, tenantID, recordID, provider)
		if getErr != nil {
			return "", false, getErr
		}
		return item.ID, false, nil
	}

	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false, errors.NewDatabaseError("enqueue upload", err)
	}

	// Row already exists for the triple. Resurrect it unless it succeeded;
	// attempt_count is deliberately preserved so a manual re-queue continues
	// the backoff curve instead of restarting it.
	update := `
		UPDATE upload_queue_items
		SET state = $4, next_attempt_at = now(),
			processing_started_at = NULL, last_message = $5
		WHERE tenant_id = $1 AND record_id = $2 AND provider = $3
		  AND state <> $6
		RETURNING id
	`

	var id string
	err = r.db.Pool().QueryRow(ctx, update,
		tenantID, recordID, provider,
		models.UploadStateQueued, message, models.UploadStateSucceeded,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !stderrors.Is(err, pgx.ErrNoRows) {
		return "", false, errors.NewDatabaseError("requeue upload", err)
	}

	// The existing row is succeeded: idempotent no-op
	item, getErr := r.getByKey(ctx, tenantID, recordID, provider)
	if getErr != nil {
		return "", false, getErr
	}
	return item.ID, false, nil
}

func (r *UploadQueueRepository) getByKey(ctx context.Context, tenantID, recordID, provider string) (*models.UploadQueueItem, error) {
	query := `
		SELECT ` + queueItemColumns + `
		FROM upload_queue_items
		WHERE tenant_id = $1 AND record_id = $2 AND provider = $3
	`

	item, err := scanQueueItem(r.db.Pool().QueryRow(ctx, query, tenantID, recordID, provider))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("queue item", fmt.Sprintf("%s/%s/%s", tenantID, recordID, provider))
		}
		return nil, errors.NewDatabaseError("get queue item by key", err)
	}

	return item, nil
}

// SelectDue retrieves up to limit due jobs (queued or retrying with
// next_attempt_at in the past), oldest due first.
func (r *UploadQueueRepository) SelectDue(ctx context.Context, limit int) ([]*models.UploadQueueItem, error) {
	query := `
		SELECT ` + queueItemColumns + `
		FROM upload_queue_items
		WHERE state IN ($1, $2) AND next_attempt_at <= now()
		ORDER BY next_attempt_at ASC
		LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query,
		models.UploadStateQueued, models.UploadStateRetrying, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("select due jobs", err)
	}
	defer rows.Close()

	var items []*models.UploadQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, errors.NewDatabaseError("scan queue item", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate due jobs", err)
	}

	return items, nil
}

// Claim moves a due job into processing, stamping processing_started_at and
// incrementing attempt_count. The conditional update is the ownership
// mechanism: a row claimed by someone else (or no longer due) claims zero
// rows and Claim returns (nil, false, nil).
func (r *UploadQueueRepository) Claim(ctx context.Context, id string) (*models.UploadQueueItem, bool, error) {
	query := `
		UPDATE upload_queue_items
		SET state = $2, processing_started_at = now(),
			attempt_count = attempt_count + 1
		WHERE id = $1 AND state IN ($3, $4) AND next_attempt_at <= now()
		RETURNING ` + queueItemColumns

	item, err := scanQueueItem(r.db.Pool().QueryRow(ctx, query,
		id, models.UploadStateProcessing,
		models.UploadStateQueued, models.UploadStateRetrying))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.NewDatabaseError("claim job", err)
	}

	return item, true, nil
}

// ReclaimStale resets in-flight jobs whose processing_started_at is older
// than the threshold back to retrying, due immediately. This recovers jobs
// orphaned by a crashed worker; the timestamp plus state is the only lock.
func (r *UploadQueueRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE upload_queue_items
		SET state = $1, processing_started_at = NULL,
			next_attempt_at = now(), last_message = $2
		WHERE state IN ($3, $4)
		  AND processing_started_at IS NOT NULL
		  AND processing_started_at < now() - make_interval(secs => $5)
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		models.UploadStateRetrying,
		"reclaimed after stale processing",
		models.UploadStateProcessing, models.UploadStateRetrying,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, errors.NewDatabaseError("reclaim stale jobs", err)
	}

	return tag.RowsAffected(), nil
}

// ConcludeAttempt applies an attempt's outcome: the queue item transition
// and the audit log row are written in one transaction so the log can never
// disagree with the state, even under a crash between the two writes.
//
// The update is guarded on state = processing. A claimed row belongs to the
// worker; the only other writer allowed to touch it is Cancel, and when an
// operator cancelled the job mid-attempt the cancellation wins: the
// attempt's result is discarded and no audit row is written.
func (r *UploadQueueRepository) ConcludeAttempt(ctx context.Context, item *models.UploadQueueItem, logEntry *models.UploadLog) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return errors.NewDatabaseError("begin conclude attempt", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	update := `
		UPDATE upload_queue_items
		SET state = $2, next_attempt_at = $3, processing_started_at = $4,
			last_message = $5, last_file_id = $6, last_folder_id = $7
		WHERE id = $1 AND state = $8
	`

	tag, err := tx.Exec(ctx, update,
		item.ID,
		item.State,
		item.NextAttemptAt,
		item.ProcessingStartedAt,
		item.LastMessage,
		item.LastFileID,
		item.LastFolderID,
		models.UploadStateProcessing,
	)
	if err != nil {
		return errors.NewDatabaseError("update queue item", err)
	}
	if tag.RowsAffected() == 0 {
		var state models.UploadState
		err := tx.QueryRow(ctx, `SELECT state FROM upload_queue_items WHERE id = $1`, item.ID).Scan(&state)
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.NewNotFoundError("queue item", item.ID)
		}
		if err != nil {
			return errors.NewDatabaseError("check queue item state", err)
		}
		// Left processing under us, so drop the attempt's result.
		return nil
	}

	if err := insertUploadLog(ctx, tx, logEntry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewDatabaseError("commit conclude attempt", err)
	}

	return nil
}

// Cancel moves a non-terminal queue item to cancelled. Returns false when
// the item is already terminal.
func (r *UploadQueueRepository) Cancel(ctx context.Context, id, message string) (bool, error) {
	query := `
		UPDATE upload_queue_items
		SET state = $2, processing_started_at = NULL, last_message = $3
		WHERE id = $1 AND state IN ($4, $5, $6)
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		id, models.UploadStateCancelled, message,
		models.UploadStateQueued, models.UploadStateRetrying, models.UploadStateProcessing)
	if err != nil {
		return false, errors.NewDatabaseError("cancel job", err)
	}

	return tag.RowsAffected() > 0, nil
}
