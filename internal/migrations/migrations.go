package migrations

// InitialSchema is the gateway's durable schema. Applied idempotently at
// startup; sqlite ignores existing tables via IF NOT EXISTS.
const InitialSchema = `
CREATE TABLE IF NOT EXISTS tenants (
    tenant_id        TEXT PRIMARY KEY,
    app_name         TEXT NOT NULL UNIQUE,
    provider_api_key TEXT NOT NULL,
    business_number  TEXT NOT NULL,
    is_active        INTEGER NOT NULL DEFAULT 1,
    created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_identities (
    conversation_id  TEXT PRIMARY KEY,
    tenant_id        TEXT NOT NULL REFERENCES tenants(tenant_id),
    platform_user_id TEXT NOT NULL,
    contact_id       TEXT,
    bot_enabled      INTEGER NOT NULL DEFAULT 1,
    last_seen_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (tenant_id, platform_user_id)
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id     TEXT NOT NULL REFERENCES chat_identities(conversation_id),
    direction           TEXT NOT NULL,
    raw_text            TEXT NOT NULL DEFAULT '',
    processed_text      TEXT NOT NULL DEFAULT '',
    media_type          TEXT NOT NULL DEFAULT '',
    media_url           TEXT,
    media_mime_type     TEXT NOT NULL DEFAULT '',
    provider_message_id TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation
    ON chat_messages (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS contacts (
    contact_id   TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    first_name   TEXT NOT NULL DEFAULT '',
    phone_number TEXT NOT NULL DEFAULT '',
    cached_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notification_configs (
    tenant_id       TEXT PRIMARY KEY REFERENCES tenants(tenant_id),
    recipient_phone TEXT NOT NULL,
    template        TEXT NOT NULL DEFAULT ''
);
`
