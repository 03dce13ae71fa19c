package storage

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/drive-uploader/internal/errors"
	"github.com/drive-uploader/internal/models"
	"github.com/jackc/pgx/v5"
)

// TenantIntegrationRepository reads per-tenant provider configuration.
type TenantIntegrationRepository struct {
	db *PostgresDB
}

// NewTenantIntegrationRepository creates a new tenant integration repository
func NewTenantIntegrationRepository(db *PostgresDB) *TenantIntegrationRepository {
	return &TenantIntegrationRepository{db: db}
}

// GetByTenantAndProvider retrieves the integration settings for a tenant.
// A missing row yields a not-found error; the caller decides whether that is
// a skip condition or a hard failure.
func (r *TenantIntegrationRepository) GetByTenantAndProvider(ctx context.Context, tenantID, provider string) (*models.TenantIntegration, error) {
	query := `
		SELECT tenant_id, provider, is_connected, is_enabled,
			   access_token, refresh_token, root_folder_id
		FROM tenant_integrations
		WHERE tenant_id = $1 AND provider = $2
	`

	var integration models.TenantIntegration
	err := r.db.Pool().QueryRow(ctx, query, tenantID, provider).Scan(
		&integration.TenantID,
		&integration.Provider,
		&integration.IsConnected,
		&integration.IsEnabled,
		&integration.AccessToken,
		&integration.RefreshToken,
		&integration.RootFolderID,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("tenant integration", fmt.Sprintf("%s/%s", tenantID, provider))
		}
		return nil, errors.NewDatabaseError("get tenant integration", err)
	}

	return &integration, nil
}
