package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"wagate/internal/errors"
	"wagate/internal/models"
)

// IdentityStore is the slice of the database the resolver needs.
type IdentityStore interface {
	GetTenantByAppName(ctx context.Context, appName string) (*models.TenantConnection, error)
	GetOrCreateIdentity(ctx context.Context, tenantID, platformUserID string) (*models.ConversationIdentity, bool, error)
	TouchIdentityLastSeen(ctx context.Context, conversationID string) error
	GetContact(ctx context.Context, contactID string) (*models.Contact, error)
}

// IdentityResolver maps a tenant app name plus sender phone to a durable
// conversation identity, creating it on first contact.
type IdentityResolver interface {
	Resolve(ctx context.Context, tenantAppName, senderPhone string) (*models.ResolvedIdentity, error)
}

type identityResolver struct {
	store  IdentityStore
	logger *logrus.Logger
}

func NewIdentityResolver(store IdentityStore, logger *logrus.Logger) IdentityResolver {
	return &identityResolver{store: store, logger: logger}
}

// Resolve looks up the tenant connection and the conversation identity for
// one inbound event. BotEnabled is always a fresh read from the store; an
// escalation can flip it between bursts, so it must never be served from a
// per-process cache.
func (r *identityResolver) Resolve(ctx context.Context, tenantAppName, senderPhone string) (*models.ResolvedIdentity, error) {
	tenant, err := r.store.GetTenantByAppName(ctx, tenantAppName)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIdentityStore, "failed to look up tenant connection")
	}
	if tenant == nil || !tenant.IsActive {
		return nil, errors.New(errors.ErrCodeTenantNotFound, "no active tenant for app "+tenantAppName)
	}

	identity, created, err := r.store.GetOrCreateIdentity(ctx, tenant.TenantID, senderPhone)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIdentityStore, "failed to resolve conversation identity")
	}

	if !created {
		// last_seen_at is bookkeeping; it must not block the response path.
		convID := identity.ConversationID
		go func() {
			if err := r.store.TouchIdentityLastSeen(context.Background(), convID); err != nil {
				r.logger.WithError(err).WithField("conversation_id", convID).
					Warn("Failed to update identity last_seen_at")
			}
		}()
	}

	resolved := &models.ResolvedIdentity{
		TenantID:       tenant.TenantID,
		ProviderAPIKey: tenant.ProviderAPIKey,
		BusinessNumber: tenant.BusinessNumber,
		ConversationID: identity.ConversationID,
		ContactID:      identity.ContactID,
		BotEnabled:     identity.BotEnabled,
	}

	if identity.ContactID != nil {
		contact, err := r.store.GetContact(ctx, *identity.ContactID)
		if err != nil {
			r.logger.WithError(err).WithField("contact_id", *identity.ContactID).
				Warn("Failed to fetch contact, proceeding without first name")
		} else if contact != nil {
			resolved.FirstName = contact.FirstName
		}
	}

	return resolved, nil
}
