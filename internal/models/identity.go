package models

import "time"

// ConversationIdentity ties a tenant and an end-user phone number to a
// durable conversation thread. BotEnabled is the single authority for
// whether the AI backend may be invoked; it is re-read on every inbound
// event because an escalation can flip it between bursts.
type ConversationIdentity struct {
	ConversationID string    `db:"conversation_id"`
	TenantID       string    `db:"tenant_id"`
	PlatformUserID string    `db:"platform_user_id"`
	ContactID      *string   `db:"contact_id"`
	BotEnabled     bool      `db:"bot_enabled"`
	LastSeenAt     time.Time `db:"last_seen_at"`
	CreatedAt      time.Time `db:"created_at"`
}

// Contact is a cached CRM contact row, used for best-effort first-name
// lookups when building the AI request.
type Contact struct {
	ContactID   string    `db:"contact_id"`
	TenantID    string    `db:"tenant_id"`
	FirstName   string    `db:"first_name"`
	PhoneNumber string    `db:"phone_number"`
	CachedAt    time.Time `db:"cached_at"`
}

// ResolvedIdentity is the per-event output of the identity resolver: the
// tenant connection plus the conversation identity, flattened to what the
// pipeline needs downstream.
type ResolvedIdentity struct {
	TenantID       string
	ProviderAPIKey string
	BusinessNumber string
	ConversationID string
	ContactID      *string
	BotEnabled     bool
	FirstName      string
}
