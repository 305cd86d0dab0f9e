package database

// Tenant queries
const (
	selectTenantByAppNameQuery = `
		SELECT tenant_id, app_name, provider_api_key, business_number, is_active, created_at
		FROM tenants
		WHERE app_name = ?
	`

	selectTenantByIDQuery = `
		SELECT tenant_id, app_name, provider_api_key, business_number, is_active, created_at
		FROM tenants
		WHERE tenant_id = ?
	`

	insertTenantQuery = `
		INSERT INTO tenants (tenant_id, app_name, provider_api_key, business_number, is_active)
		VALUES (?, ?, ?, ?, ?)
	`
)

// Conversation identity queries
const (
	insertIdentityIfAbsentQuery = `
		INSERT INTO chat_identities (conversation_id, tenant_id, platform_user_id, bot_enabled)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (tenant_id, platform_user_id) DO NOTHING
	`

	selectIdentityByTenantAndPhoneQuery = `
		SELECT conversation_id, tenant_id, platform_user_id, contact_id, bot_enabled,
		       last_seen_at, created_at
		FROM chat_identities
		WHERE tenant_id = ? AND platform_user_id = ?
	`

	selectIdentityByIDQuery = `
		SELECT conversation_id, tenant_id, platform_user_id, contact_id, bot_enabled,
		       last_seen_at, created_at
		FROM chat_identities
		WHERE conversation_id = ?
	`

	touchIdentityLastSeenQuery = `
		UPDATE chat_identities
		SET last_seen_at = CURRENT_TIMESTAMP
		WHERE conversation_id = ?
	`

	updateIdentityBotEnabledQuery = `
		UPDATE chat_identities
		SET bot_enabled = ?
		WHERE conversation_id = ?
	`
)

// Message queries
const (
	insertMessageQuery = `
		INSERT INTO chat_messages (
			conversation_id, direction, raw_text, processed_text,
			media_type, media_url, media_mime_type, provider_message_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateMessageStatusQuery = `
		UPDATE chat_messages
		SET status = ?, provider_message_id = ?
		WHERE id = ?
	`

	selectRecentMessagesQuery = `
		SELECT direction, raw_text, processed_text
		FROM chat_messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	deleteOldMessagesQuery = `
		DELETE FROM chat_messages
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`
)

// Contact queries
const (
	insertOrReplaceContactQuery = `
		INSERT OR REPLACE INTO contacts (contact_id, tenant_id, first_name, phone_number, cached_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	selectContactByIDQuery = `
		SELECT contact_id, tenant_id, first_name, phone_number, cached_at
		FROM contacts
		WHERE contact_id = ?
	`
)

// Notification config queries
const (
	selectNotificationConfigQuery = `
		SELECT tenant_id, recipient_phone, template
		FROM notification_configs
		WHERE tenant_id = ?
	`

	insertNotificationConfigQuery = `
		INSERT OR REPLACE INTO notification_configs (tenant_id, recipient_phone, template)
		VALUES (?, ?, ?)
	`
)
