package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wagate/internal/models"
	"wagate/pkg/aiagent"
	"wagate/pkg/provider"
)

type mockIdentityStore struct {
	mock.Mock
}

func (m *mockIdentityStore) GetTenantByAppName(ctx context.Context, appName string) (*models.TenantConnection, error) {
	args := m.Called(ctx, appName)
	if t := args.Get(0); t != nil {
		return t.(*models.TenantConnection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) GetOrCreateIdentity(ctx context.Context, tenantID, platformUserID string) (*models.ConversationIdentity, bool, error) {
	args := m.Called(ctx, tenantID, platformUserID)
	if id := args.Get(0); id != nil {
		return id.(*models.ConversationIdentity), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockIdentityStore) TouchIdentityLastSeen(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

func (m *mockIdentityStore) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	args := m.Called(ctx, contactID)
	if c := args.Get(0); c != nil {
		return c.(*models.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) SaveMessage(ctx context.Context, msg *models.NormalizedMessage) (int64, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMessageStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.RecentMessage, error) {
	args := m.Called(ctx, conversationID, limit)
	if r := args.Get(0); r != nil {
		return r.([]models.RecentMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, tenantAppName, senderPhone string) (*models.ResolvedIdentity, error) {
	args := m.Called(ctx, tenantAppName, senderPhone)
	if r := args.Get(0); r != nil {
		return r.(*models.ResolvedIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNormalizer struct {
	mock.Mock
}

func (m *mockNormalizer) Normalize(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID string) (*models.NormalizedResult, error) {
	args := m.Called(ctx, ev, tenantID, conversationID)
	if r := args.Get(0); r != nil {
		return r.(*models.NormalizedResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) Invoke(ctx context.Context, req *aiagent.InvokeRequest) (*aiagent.InvokeResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*aiagent.InvokeResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProviderClient struct {
	mock.Mock
}

func (m *mockProviderClient) SendText(ctx context.Context, req *provider.SendRequest) (*provider.SendResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*provider.SendResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMediaStore struct {
	mock.Mock
}

func (m *mockMediaStore) Download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	args := m.Called(ctx, mediaURL)
	if d := args.Get(0); d != nil {
		return d.([]byte), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *mockMediaStore) Save(ctx context.Context, tenantID, conversationID, mimeType string, data []byte) (string, error) {
	args := m.Called(ctx, tenantID, conversationID, mimeType, data)
	return args.String(0), args.Error(1)
}

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	args := m.Called(ctx, data, mimeType)
	return args.String(0), args.Error(1)
}

type mockEscalationStore struct {
	mock.Mock
}

func (m *mockEscalationStore) GetNotificationConfig(ctx context.Context, tenantID string) (*models.NotificationConfig, error) {
	args := m.Called(ctx, tenantID)
	if c := args.Get(0); c != nil {
		return c.(*models.NotificationConfig), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEscalationStore) SetBotEnabled(ctx context.Context, conversationID string, enabled bool) error {
	args := m.Called(ctx, conversationID, enabled)
	return args.Error(0)
}

type mockTenantLookup struct {
	mock.Mock
}

func (m *mockTenantLookup) GetTenantByID(ctx context.Context, tenantID string) (*models.TenantConnection, error) {
	args := m.Called(ctx, tenantID)
	if t := args.Get(0); t != nil {
		return t.(*models.TenantConnection), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMaintenanceStore struct {
	mock.Mock
}

func (m *mockMaintenanceStore) CleanupOldMessages(retentionDays int) error {
	args := m.Called(retentionDays)
	return args.Error(0)
}
