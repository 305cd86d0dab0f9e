package models

import "time"

// TenantConnection is the provider connection record for one tenant app.
// Read-only from the gateway's perspective.
type TenantConnection struct {
	TenantID       string    `db:"tenant_id"`
	AppName        string    `db:"app_name"`
	ProviderAPIKey string    `db:"provider_api_key"`
	BusinessNumber string    `db:"business_number"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
}

// NotificationConfig tells the escalation path which human to notify for a
// tenant and which template to use.
type NotificationConfig struct {
	TenantID       string `db:"tenant_id"`
	RecipientPhone string `db:"recipient_phone"`
	Template       string `db:"template"`
}
