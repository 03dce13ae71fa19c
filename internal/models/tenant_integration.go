package models

// TenantIntegration is the per-tenant, per-provider configuration read model.
// Credentials are stored by the web application; this service only checks
// their presence and uses the access token for upload calls.
type TenantIntegration struct {
	TenantID     string `json:"tenantId" db:"tenant_id"`
	Provider     string `json:"provider" db:"provider"`
	IsConnected  bool   `json:"isConnected" db:"is_connected"`
	IsEnabled    bool   `json:"isEnabled" db:"is_enabled"`
	AccessToken  string `json:"-" db:"access_token"`
	RefreshToken string `json:"-" db:"refresh_token"`
	RootFolderID string `json:"rootFolderId" db:"root_folder_id"`
}

// HasCredentials reports whether the tenant completed the OAuth flow.
func (t *TenantIntegration) HasCredentials() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}
