package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"wagate/internal/buffer"
	"wagate/internal/cache"
	"wagate/internal/errors"
	"wagate/internal/models"
	"wagate/internal/privacy"
)

// AcceptedEvent pairs an inbound event with its resolved identity. It is
// produced by the synchronous webhook path and consumed by the async one.
type AcceptedEvent struct {
	Event    *models.InboundEvent
	Identity *models.ResolvedIdentity
}

// Gateway is the inbound pipeline. Accept runs on the synchronous webhook
// path: validation, dedup, identity resolution and the short-circuits all
// complete before the provider gets its 200. Process runs after the
// acknowledgment: normalization, persistence and buffer append.
type Gateway interface {
	Accept(ctx context.Context, ev *models.InboundEvent) (*AcceptedEvent, error)
	Process(ctx context.Context, accepted *AcceptedEvent)
}

type gateway struct {
	dedup       *cache.DedupCache
	resolver    IdentityResolver
	normalizer  MediaNormalizer
	store       MessageStore
	recentCache *cache.RecentMessageCache
	buf         *buffer.ConversationBuffer
	logger      *logrus.Logger
}

func NewGateway(dedup *cache.DedupCache, resolver IdentityResolver, normalizer MediaNormalizer, store MessageStore, recentCache *cache.RecentMessageCache, buf *buffer.ConversationBuffer, logger *logrus.Logger) Gateway {
	return &gateway{
		dedup:       dedup,
		resolver:    resolver,
		normalizer:  normalizer,
		store:       store,
		recentCache: recentCache,
		buf:         buf,
		logger:      logger,
	}
}

func (g *gateway) eventLogger(ev *models.InboundEvent) *logrus.Entry {
	return g.logger.WithFields(logrus.Fields{
		"message_id": ev.MessageID,
		"app":        ev.TenantAppName,
		"sender":     privacy.MaskPhoneNumber(ev.SenderPhone),
	})
}

// Accept decides whether an event enters the async pipeline. A nil, nil
// return means acknowledge and drop: non-message events, duplicates, echoes
// of our own outbound, and unknown tenants (retrying a missing config cannot
// help). Validation failures and store outages return errors so the HTTP
// layer can answer 4xx respectively 5xx, the latter making the provider
// redeliver.
func (g *gateway) Accept(ctx context.Context, ev *models.InboundEvent) (*AcceptedEvent, error) {
	log := g.eventLogger(ev)

	if ev.EventType != models.EventMessage {
		log.WithField("event_type", ev.EventType).Debug("Ignoring non-message event")
		return nil, nil
	}

	if ev.MessageID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "message id is required")
	}
	if ev.SenderPhone == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sender phone is required")
	}
	if ev.TenantAppName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "app name is required")
	}

	// Atomic gate: of two concurrent deliveries of the same id, exactly one
	// proceeds. A duplicate is a successful no-op, not an error.
	if g.dedup.CheckAndMark(ev.MessageID) {
		log.Debug("Duplicate delivery, skipping")
		return nil, nil
	}

	identity, err := g.resolver.Resolve(ctx, ev.TenantAppName, ev.SenderPhone)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeTenantNotFound {
			log.WithError(err).Warn("Dropping event for unknown or inactive tenant")
			return nil, nil
		}
		// Nothing was persisted yet; unmark so the provider's redelivery of
		// this id is not swallowed by the gate.
		g.dedup.Forget(ev.MessageID)
		return nil, err
	}

	// Echo of our own outbound: the provider reports the tenant's business
	// number as the sender. Ignore it or the bot talks to itself.
	if ev.SenderPhone == identity.BusinessNumber {
		log.Debug("Ignoring echo of own outbound message")
		return nil, nil
	}

	return &AcceptedEvent{Event: ev, Identity: identity}, nil
}

// Process runs the post-acknowledgment pipeline for one accepted event. It
// never returns an error: the webhook response has already been sent, so
// failures here are terminal to this attempt and surface only in logs.
func (g *gateway) Process(ctx context.Context, accepted *AcceptedEvent) {
	ev := accepted.Event
	identity := accepted.Identity
	log := g.eventLogger(ev).WithField("conversation_id", identity.ConversationID)

	result, err := g.normalizer.Normalize(ctx, ev, identity.TenantID, identity.ConversationID)
	if err != nil {
		log.WithError(err).Error("Media normalization failed")
		return
	}
	if result == nil {
		log.Debug("Message has no usable content, skipping")
		return
	}

	if _, err := g.store.SaveMessage(ctx, &models.NormalizedMessage{
		ConversationID:    identity.ConversationID,
		Direction:         models.DirectionIncoming,
		RawText:           ev.Content.Text,
		ProcessedText:     result.ProcessedText,
		MediaType:         result.MediaType,
		MediaURL:          result.MediaURL,
		MediaMimeType:     result.MimeType,
		ProviderMessageID: ev.MessageID,
	}); err != nil {
		log.WithError(err).Error("Failed to persist inbound message")
		return
	}

	g.recentCache.Append(identity.ConversationID, models.RoleUser, result.ProcessedText)

	if !identity.BotEnabled {
		log.Info("Bot disabled for conversation, message persisted without dispatch")
		return
	}

	g.buf.Append(buffer.Key(identity.TenantID, identity.ConversationID), result.ProcessedText, buffer.DispatchContext{
		TenantID:       identity.TenantID,
		ConversationID: identity.ConversationID,
		ContactID:      identity.ContactID,
		Phone:          ev.SenderPhone,
		CountryCode:    ev.CountryCode,
		NationalNumber: ev.NationalNumber,
		FirstName:      identity.FirstName,
		ProviderAPIKey: identity.ProviderAPIKey,
		BusinessNumber: identity.BusinessNumber,
	})

	log.Debug("Message buffered for dispatch")
}
