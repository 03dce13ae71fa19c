package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
)

// IntegrationReader is the read contract for tenant integration settings.
type IntegrationReader interface {
	GetByTenantAndProvider(ctx context.Context, tenantID, provider string) (*models.TenantIntegration, error)
}

// CachedIntegrationStore caches tenant integration settings in Redis with a
// short TTL. The worker re-reads the integration on every attempt so a
// tenant toggling the feature takes effect quickly; the cache just keeps
// that from turning into a query per attempt.
type CachedIntegrationStore struct {
	reader IntegrationReader
	cache  *RedisCache
	ttl    time.Duration
}

// NewCachedIntegrationStore creates a caching wrapper around an integration reader
func NewCachedIntegrationStore(reader IntegrationReader, cache *RedisCache, ttl time.Duration) *CachedIntegrationStore {
	return &CachedIntegrationStore{reader: reader, cache: cache, ttl: ttl}
}

func integrationCacheKey(tenantID, provider string) string {
	return fmt.Sprintf("integration:%s:%s", tenantID, provider)
}

// cachedIntegration is the cache envelope. The model hides credentials from
// its JSON form, but the cache must round-trip them or the worker would see
// every cached tenant as disconnected.
type cachedIntegration struct {
	TenantID     string `json:"tenantId"`
	Provider     string `json:"provider"`
	IsConnected  bool   `json:"isConnected"`
	IsEnabled    bool   `json:"isEnabled"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	RootFolderID string `json:"rootFolderId"`
}

func toCached(i *models.TenantIntegration) *cachedIntegration {
	return &cachedIntegration{
		TenantID:     i.TenantID,
		Provider:     i.Provider,
		IsConnected:  i.IsConnected,
		IsEnabled:    i.IsEnabled,
		AccessToken:  i.AccessToken,
		RefreshToken: i.RefreshToken,
		RootFolderID: i.RootFolderID,
	}
}

func (c *cachedIntegration) toModel() *models.TenantIntegration {
	return &models.TenantIntegration{
		TenantID:     c.TenantID,
		Provider:     c.Provider,
		IsConnected:  c.IsConnected,
		IsEnabled:    c.IsEnabled,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		RootFolderID: c.RootFolderID,
	}
}

// GetByTenantAndProvider returns the cached integration when fresh,
// otherwise reads through and repopulates the cache. Cache failures degrade
// to direct reads; they never fail the lookup.
func (s *CachedIntegrationStore) GetByTenantAndProvider(ctx context.Context, tenantID, provider string) (*models.TenantIntegration, error) {
	key := integrationCacheKey(tenantID, provider)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var envelope cachedIntegration
		if jsonErr := json.Unmarshal([]byte(cached), &envelope); jsonErr == nil {
			return envelope.toModel(), nil
		}
		// Unreadable cache entry; drop it and fall through
		_ = s.cache.Del(ctx, key)
	} else if !IsCacheMiss(err) {
		logging.FromContext(ctx).WithError(err).Warn("Integration cache read failed, falling back to database")
	}

	integration, err := s.reader.GetByTenantAndProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(toCached(integration)); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, data, s.ttl); setErr != nil {
			logging.FromContext(ctx).WithError(setErr).Warn("Integration cache write failed")
		}
	}

	return integration, nil
}

// Invalidate drops the cached settings for a tenant, forcing the next read
// through to the database.
func (s *CachedIntegrationStore) Invalidate(ctx context.Context, tenantID, provider string) error {
	return s.cache.Del(ctx, integrationCacheKey(tenantID, provider))
}
