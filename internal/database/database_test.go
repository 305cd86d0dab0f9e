package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"wagate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "wagate-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func seedTenant(t *testing.T, db *Database) *models.TenantConnection {
	t.Helper()
	tenant := &models.TenantConnection{
		TenantID:       "orgA",
		AppName:        "acme-bot",
		ProviderAPIKey: "key-123",
		BusinessNumber: "14155550100",
		IsActive:       true,
	}
	require.NoError(t, db.SaveTenant(context.Background(), tenant))
	return tenant
}

func TestGetTenantByAppName(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	tenant, err := db.GetTenantByAppName(ctx, "acme-bot")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, "orgA", tenant.TenantID)
	assert.Equal(t, "key-123", tenant.ProviderAPIKey)
	assert.True(t, tenant.IsActive)

	missing, err := db.GetTenantByAppName(ctx, "unknown-app")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetOrCreateIdentity(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	identity, created, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, identity.BotEnabled)
	assert.Nil(t, identity.ContactID)
	assert.NotEmpty(t, identity.ConversationID)

	again, created, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, identity.ConversationID, again.ConversationID)
}

func TestGetOrCreateIdentity_ConcurrentFirstMessage(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	const workers = 8
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215559999999")
			if err == nil {
				ids <- identity.ConversationID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1, "all racers must converge on one conversation")
}

func TestSetBotEnabled(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	identity, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)

	require.NoError(t, db.SetBotEnabled(ctx, identity.ConversationID, false))

	fresh, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)
	assert.False(t, fresh.BotEnabled)

	err = db.SetBotEnabled(ctx, "nonexistent", false)
	assert.Error(t, err)
}

func TestSaveMessageAndRecentMessages(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	identity, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)
	convID := identity.ConversationID

	for i := 0; i < 3; i++ {
		_, err := db.SaveMessage(ctx, &models.NormalizedMessage{
			ConversationID: convID,
			Direction:      models.DirectionIncoming,
			RawText:        fmt.Sprintf("user-%d", i),
			ProcessedText:  fmt.Sprintf("user-%d", i),
		})
		require.NoError(t, err)
		_, err = db.SaveMessage(ctx, &models.NormalizedMessage{
			ConversationID: convID,
			Direction:      models.DirectionOutgoing,
			ProcessedText:  fmt.Sprintf("bot-%d", i),
			Status:         models.MessageStatusSent,
		})
		require.NoError(t, err)
	}

	recent, err := db.GetRecentMessages(ctx, convID, 4)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	// Oldest-first, roles mapped from direction
	assert.Equal(t, models.RecentMessage{Role: "user", Content: "user-1"}, recent[0])
	assert.Equal(t, models.RecentMessage{Role: "assistant", Content: "bot-1"}, recent[1])
	assert.Equal(t, models.RecentMessage{Role: "user", Content: "user-2"}, recent[2])
	assert.Equal(t, models.RecentMessage{Role: "assistant", Content: "bot-2"}, recent[3])
}

func TestUpdateMessageStatus(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	identity, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)

	id, err := db.SaveMessage(ctx, &models.NormalizedMessage{
		ConversationID: identity.ConversationID,
		Direction:      models.DirectionOutgoing,
		ProcessedText:  "reply",
		Status:         models.MessageStatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, db.UpdateMessageStatus(ctx, id, models.MessageStatusSent, "prov-msg-1"))

	err = db.UpdateMessageStatus(ctx, 99999, models.MessageStatusFailed, "")
	assert.Error(t, err)
}

func TestContactRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	contact := &models.Contact{
		ContactID:   "crm-42",
		TenantID:    "orgA",
		FirstName:   "Maria",
		PhoneNumber: "5215551234567",
	}
	require.NoError(t, db.SaveContact(ctx, contact))

	got, err := db.GetContact(ctx, "crm-42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Maria", got.FirstName)
	assert.Equal(t, "5215551234567", got.PhoneNumber)

	missing, err := db.GetContact(ctx, "crm-absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNotificationConfigRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	cfg := &models.NotificationConfig{
		TenantID:       "orgA",
		RecipientPhone: "5215550001111",
		Template:       "Escalation for %s: %s",
	}
	require.NoError(t, db.SaveNotificationConfig(ctx, cfg))

	got, err := db.GetNotificationConfig(ctx, "orgA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "5215550001111", got.RecipientPhone)

	missing, err := db.GetNotificationConfig(ctx, "orgB")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCleanupOldMessages(t *testing.T) {
	db := setupTestDB(t)
	seedTenant(t, db)
	ctx := context.Background()

	identity, _, err := db.GetOrCreateIdentity(ctx, "orgA", "5215551234567")
	require.NoError(t, err)

	_, err = db.SaveMessage(ctx, &models.NormalizedMessage{
		ConversationID: identity.ConversationID,
		Direction:      models.DirectionIncoming,
		ProcessedText:  "fresh",
	})
	require.NoError(t, err)

	// Fresh rows survive the retention sweep
	require.NoError(t, db.CleanupOldMessages(30))

	recent, err := db.GetRecentMessages(ctx, identity.ConversationID, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
