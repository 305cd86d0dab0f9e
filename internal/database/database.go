package database

import (
	"context"
	"database/sql"
	"fmt"

	"wagate/internal/migrations"
	"wagate/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Database is the gateway's durable store: tenant connections, conversation
// identities, the append-only message log, cached contacts and escalation
// notification configs. Message bodies and phone numbers are encrypted at
// rest when encryption is enabled.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("invalid database path")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.InitialSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Tenant operations

func (d *Database) GetTenantByAppName(ctx context.Context, appName string) (*models.TenantConnection, error) {
	tenant := &models.TenantConnection{}
	var isActive int

	err := d.db.QueryRowContext(ctx, selectTenantByAppNameQuery, appName).Scan(
		&tenant.TenantID,
		&tenant.AppName,
		&tenant.ProviderAPIKey,
		&tenant.BusinessNumber,
		&isActive,
		&tenant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by app name: %w", err)
	}

	tenant.IsActive = isActive != 0
	return tenant, nil
}

func (d *Database) GetTenantByID(ctx context.Context, tenantID string) (*models.TenantConnection, error) {
	tenant := &models.TenantConnection{}
	var isActive int

	err := d.db.QueryRowContext(ctx, selectTenantByIDQuery, tenantID).Scan(
		&tenant.TenantID,
		&tenant.AppName,
		&tenant.ProviderAPIKey,
		&tenant.BusinessNumber,
		&isActive,
		&tenant.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by id: %w", err)
	}

	tenant.IsActive = isActive != 0
	return tenant, nil
}

// SaveTenant inserts a tenant connection row. Used by provisioning and tests.
func (d *Database) SaveTenant(ctx context.Context, tenant *models.TenantConnection) error {
	active := 0
	if tenant.IsActive {
		active = 1
	}
	_, err := d.db.ExecContext(ctx, insertTenantQuery,
		tenant.TenantID, tenant.AppName, tenant.ProviderAPIKey, tenant.BusinessNumber, active)
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

// Conversation identity operations

// GetOrCreateIdentity returns the conversation identity for a (tenant,
// phone) pair, creating it with bot_enabled=true when absent. The insert is
// conflict-free, so two concurrent first-messages converge on one row.
func (d *Database) GetOrCreateIdentity(ctx context.Context, tenantID, platformUserID string) (*models.ConversationIdentity, bool, error) {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(platformUserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encrypt platform user ID: %w", err)
	}

	candidateID := uuid.NewString()
	err = retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, insertIdentityIfAbsentQuery, candidateID, tenantID, encryptedPhone)
		return execErr
	}, "insert chat identity")
	if err != nil {
		return nil, false, err
	}

	identity, err := d.getIdentityByTenantAndPhone(ctx, tenantID, encryptedPhone)
	if err != nil {
		return nil, false, err
	}
	if identity == nil {
		return nil, false, fmt.Errorf("chat identity missing after upsert for tenant %s", tenantID)
	}

	identity.PlatformUserID = platformUserID
	created := identity.ConversationID == candidateID
	return identity, created, nil
}

func (d *Database) getIdentityByTenantAndPhone(ctx context.Context, tenantID, encryptedPhone string) (*models.ConversationIdentity, error) {
	identity := &models.ConversationIdentity{}
	var botEnabled int
	var contactID sql.NullString

	err := d.db.QueryRowContext(ctx, selectIdentityByTenantAndPhoneQuery, tenantID, encryptedPhone).Scan(
		&identity.ConversationID,
		&identity.TenantID,
		&identity.PlatformUserID,
		&contactID,
		&botEnabled,
		&identity.LastSeenAt,
		&identity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat identity: %w", err)
	}

	identity.BotEnabled = botEnabled != 0
	if contactID.Valid {
		identity.ContactID = &contactID.String
	}
	return identity, nil
}

// GetIdentityByID looks up a conversation identity by primary key.
func (d *Database) GetIdentityByID(ctx context.Context, conversationID string) (*models.ConversationIdentity, error) {
	identity := &models.ConversationIdentity{}
	var botEnabled int
	var contactID sql.NullString
	var encryptedPhone string

	err := d.db.QueryRowContext(ctx, selectIdentityByIDQuery, conversationID).Scan(
		&identity.ConversationID,
		&identity.TenantID,
		&encryptedPhone,
		&contactID,
		&botEnabled,
		&identity.LastSeenAt,
		&identity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat identity by ID: %w", err)
	}

	identity.BotEnabled = botEnabled != 0
	if contactID.Valid {
		identity.ContactID = &contactID.String
	}
	identity.PlatformUserID = encryptedPhone
	if plain, decErr := d.encryptor.DecryptIfEnabled(encryptedPhone); decErr == nil {
		identity.PlatformUserID = plain
	}
	return identity, nil
}

// TouchIdentityLastSeen refreshes last_seen_at for a conversation.
func (d *Database) TouchIdentityLastSeen(ctx context.Context, conversationID string) error {
	_, err := d.db.ExecContext(ctx, touchIdentityLastSeenQuery, conversationID)
	if err != nil {
		return fmt.Errorf("failed to touch last seen: %w", err)
	}
	return nil
}

// SetBotEnabled flips the automated-response authority for a conversation.
func (d *Database) SetBotEnabled(ctx context.Context, conversationID string, enabled bool) error {
	val := 0
	if enabled {
		val = 1
	}
	result, err := d.db.ExecContext(ctx, updateIdentityBotEnabledQuery, val, conversationID)
	if err != nil {
		return fmt.Errorf("failed to update bot_enabled: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no conversation found with ID: %s", conversationID)
	}
	return nil
}

// Message operations

// SaveMessage appends one normalized message row and returns its ID.
func (d *Database) SaveMessage(ctx context.Context, msg *models.NormalizedMessage) (int64, error) {
	encryptedRaw, err := d.encryptor.EncryptIfEnabled(msg.RawText)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt raw text: %w", err)
	}
	encryptedProcessed, err := d.encryptor.EncryptIfEnabled(msg.ProcessedText)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt processed text: %w", err)
	}

	var mediaURL interface{}
	if msg.MediaURL != nil {
		mediaURL = *msg.MediaURL
	}

	var id int64
	err = retryableDBOperation(ctx, func() error {
		result, execErr := d.db.ExecContext(ctx, insertMessageQuery,
			msg.ConversationID,
			string(msg.Direction),
			encryptedRaw,
			encryptedProcessed,
			msg.MediaType,
			mediaURL,
			msg.MediaMimeType,
			msg.ProviderMessageID,
			string(msg.Status),
		)
		if execErr != nil {
			return execErr
		}
		id, execErr = result.LastInsertId()
		return execErr
	}, "insert chat message")
	if err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateMessageStatus records the send outcome on an outgoing row.
func (d *Database) UpdateMessageStatus(ctx context.Context, id int64, status models.MessageStatus, providerMessageID string) error {
	result, err := d.db.ExecContext(ctx, updateMessageStatusQuery, string(status), providerMessageID, id)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no message found with ID: %d", id)
	}
	return nil
}

// GetRecentMessages returns up to limit turns for a conversation as
// {role, content} pairs, oldest first. The durable analog of the in-memory
// recent cache, used when the cache has nothing for a conversation.
func (d *Database) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.RecentMessage, error) {
	rows, err := d.db.QueryContext(ctx, selectRecentMessagesQuery, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	var out []models.RecentMessage
	for rows.Next() {
		var direction, rawText, processedText string
		if err := rows.Scan(&direction, &rawText, &processedText); err != nil {
			return nil, fmt.Errorf("failed to scan recent message: %w", err)
		}

		raw, err := d.encryptor.DecryptIfEnabled(rawText)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt raw text: %w", err)
		}
		processed, err := d.encryptor.DecryptIfEnabled(processedText)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt processed text: %w", err)
		}

		role := models.RoleAssistant
		if direction == string(models.DirectionIncoming) {
			role = models.RoleUser
		}
		content := processed
		if content == "" {
			content = raw
		}
		out = append(out, models.RecentMessage{Role: role, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent messages: %w", err)
	}

	// Query is newest-first; callers want oldest-first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CleanupOldMessages removes message rows older than the retention window.
func (d *Database) CleanupOldMessages(retentionDays int) error {
	_, err := d.db.Exec(deleteOldMessagesQuery, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to cleanup old messages: %w", err)
	}
	return nil
}

// Contact operations

func (d *Database) SaveContact(ctx context.Context, contact *models.Contact) error {
	encryptedPhone, err := d.encryptor.EncryptIfEnabled(contact.PhoneNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	_, err = d.db.ExecContext(ctx, insertOrReplaceContactQuery,
		contact.ContactID, contact.TenantID, contact.FirstName, encryptedPhone)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}

func (d *Database) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	contact := &models.Contact{}
	var encryptedPhone string

	err := d.db.QueryRowContext(ctx, selectContactByIDQuery, contactID).Scan(
		&contact.ContactID,
		&contact.TenantID,
		&contact.FirstName,
		&encryptedPhone,
		&contact.CachedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	contact.PhoneNumber, err = d.encryptor.DecryptIfEnabled(encryptedPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt phone number: %w", err)
	}
	return contact, nil
}

// Notification config operations

func (d *Database) GetNotificationConfig(ctx context.Context, tenantID string) (*models.NotificationConfig, error) {
	cfg := &models.NotificationConfig{}
	err := d.db.QueryRowContext(ctx, selectNotificationConfigQuery, tenantID).Scan(
		&cfg.TenantID,
		&cfg.RecipientPhone,
		&cfg.Template,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification config: %w", err)
	}
	return cfg, nil
}

func (d *Database) SaveNotificationConfig(ctx context.Context, cfg *models.NotificationConfig) error {
	_, err := d.db.ExecContext(ctx, insertNotificationConfigQuery,
		cfg.TenantID, cfg.RecipientPhone, cfg.Template)
	if err != nil {
		return fmt.Errorf("failed to save notification config: %w", err)
	}
	return nil
}
