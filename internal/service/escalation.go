package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"wagate/internal/errors"
	"wagate/internal/models"
	"wagate/internal/privacy"
	"wagate/pkg/provider"
)

const defaultEscalationTemplate = "Un cliente solicita atención humana. Teléfono: {phone}. Motivo: {reason}"

// EscalationStore is the slice of the database the escalation path touches.
type EscalationStore interface {
	GetNotificationConfig(ctx context.Context, tenantID string) (*models.NotificationConfig, error)
	SetBotEnabled(ctx context.Context, conversationID string, enabled bool) error
}

// EscalationService handles the AI backend's hand-off-to-human requests:
// notify a configured recipient and silence the bot on that conversation.
type EscalationService interface {
	Escalate(ctx context.Context, req *models.EscalationRequest) error
}

type escalationService struct {
	store    EscalationStore
	tenants  TenantLookup
	provider provider.Client
	logger   *logrus.Logger
}

// TenantLookup resolves a tenant connection by its ID.
type TenantLookup interface {
	GetTenantByID(ctx context.Context, tenantID string) (*models.TenantConnection, error)
}

func NewEscalationService(store EscalationStore, tenants TenantLookup, prov provider.Client, logger *logrus.Logger) EscalationService {
	return &escalationService{store: store, tenants: tenants, provider: prov, logger: logger}
}

// Escalate disables the bot first so no further batches dispatch while the
// notification is in flight, then sends the templated message to the
// configured human recipient.
func (s *escalationService) Escalate(ctx context.Context, req *models.EscalationRequest) error {
	if req.OrganizationID == "" || req.ChatIdentityID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "organization_id and chat_identity_id are required")
	}

	log := s.logger.WithFields(logrus.Fields{
		"tenant_id":       req.OrganizationID,
		"conversation_id": req.ChatIdentityID,
		"phone":           privacy.MaskPhoneNumber(req.PhoneNumber),
	})

	if err := s.store.SetBotEnabled(ctx, req.ChatIdentityID, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeIdentityStore, "failed to disable bot for conversation")
	}
	log.Info("Bot disabled for escalated conversation")

	tenant, err := s.tenants.GetTenantByID(ctx, req.OrganizationID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIdentityStore, "failed to look up tenant")
	}
	if tenant == nil {
		return errors.New(errors.ErrCodeTenantNotFound, "no tenant "+req.OrganizationID)
	}

	cfg, err := s.store.GetNotificationConfig(ctx, req.OrganizationID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to load notification config")
	}
	if cfg == nil {
		log.Warn("No notification config for tenant, bot disabled without human notification")
		return nil
	}

	template := cfg.Template
	if template == "" {
		template = defaultEscalationTemplate
	}
	message := strings.NewReplacer(
		"{phone}", req.PhoneNumber,
		"{reason}", req.Reason,
	).Replace(template)

	if _, err := s.provider.SendText(ctx, &provider.SendRequest{
		APIKey:      tenant.ProviderAPIKey,
		Source:      tenant.BusinessNumber,
		Destination: cfg.RecipientPhone,
		Message:     message,
	}); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderSend, "failed to notify human recipient")
	}

	log.Info("Escalation notification sent")
	return nil
}
