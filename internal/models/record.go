package models

import "time"

// Record is the read model for the business document whose PDF gets uploaded.
// The owning web application writes these rows; this service only reads them.
type Record struct {
	ID          string     `json:"id" db:"id"`
	TenantID    string     `json:"tenantId" db:"tenant_id"`
	DisplayName string     `json:"displayName" db:"display_name"`
	IsApproved  bool       `json:"isApproved" db:"is_approved"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty" db:"approved_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}
