package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"wagate/internal/buffer"
	"wagate/internal/cache"
	"wagate/internal/models"
	"wagate/pkg/aiagent"
	"wagate/pkg/provider"
)

// noResponseText is sent when the AI backend returns a 2xx with an empty
// response field.
const noResponseText = "Lo siento, no pude generar una respuesta en este momento."

// MessageStore is the slice of the database the dispatcher writes through.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.NormalizedMessage) (int64, error)
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.RecentMessage, error)
}

// TurnDispatcher runs one AI turn for a flushed conversation batch: build
// the request with recent context, invoke the backend, relay the reply
// through the provider, and persist the outcome.
type TurnDispatcher interface {
	Dispatch(ctx context.Context, dc buffer.DispatchContext, combinedText string)
}

type turnDispatcher struct {
	recentCache *cache.RecentMessageCache
	store       MessageStore
	ai          aiagent.Client
	provider    provider.Client
	aiTimeout   time.Duration
	recentLimit int
	logger      *logrus.Logger
}

type DispatcherConfig struct {
	AITimeout   time.Duration
	RecentLimit int
}

func NewTurnDispatcher(recentCache *cache.RecentMessageCache, store MessageStore, ai aiagent.Client, prov provider.Client, cfg DispatcherConfig, logger *logrus.Logger) TurnDispatcher {
	return &turnDispatcher{
		recentCache: recentCache,
		store:       store,
		ai:          ai,
		provider:    prov,
		aiTimeout:   cfg.AITimeout,
		recentLimit: cfg.RecentLimit,
		logger:      logger,
	}
}

// Dispatch never returns an error: the webhook transaction that produced
// this batch is long gone, so failures are terminal to this attempt and
// observable only through logs and the persisted message status.
func (t *turnDispatcher) Dispatch(ctx context.Context, dc buffer.DispatchContext, combinedText string) {
	log := t.logger.WithFields(logrus.Fields{
		"tenant_id":       dc.TenantID,
		"conversation_id": dc.ConversationID,
	})

	recent := t.recentContext(ctx, dc.ConversationID)

	aiCtx, cancel := context.WithTimeout(ctx, t.aiTimeout)
	defer cancel()

	resp, err := t.ai.Invoke(aiCtx, &aiagent.InvokeRequest{
		OrganizationID: dc.TenantID,
		ChatIdentityID: dc.ConversationID,
		ContactID:      dc.ContactID,
		Phone:          dc.Phone,
		CountryCode:    dc.CountryCode,
		PhoneNumber:    dc.NationalNumber,
		FirstName:      dc.FirstName,
		Message:        combinedText,
		RecentMessages: recent,
	})
	if err != nil {
		// The user sees no reply; there is no synchronous channel back to
		// them at this point.
		log.WithError(err).Error("AI backend invocation failed, skipping reply")
		return
	}

	responseText := resp.Response
	if responseText == "" {
		responseText = noResponseText
	}

	status := models.MessageStatusSent
	providerMessageID := ""
	sendResp, err := t.provider.SendText(ctx, &provider.SendRequest{
		APIKey:      dc.ProviderAPIKey,
		Source:      dc.BusinessNumber,
		Destination: dc.Phone,
		Message:     responseText,
	})
	if err != nil {
		log.WithError(err).Error("Provider send failed")
		status = models.MessageStatusFailed
	} else {
		providerMessageID = sendResp.MessageID
	}

	// The outbound row is persisted on both outcomes so failed sends stay
	// auditable.
	if _, err := t.store.SaveMessage(ctx, &models.NormalizedMessage{
		ConversationID:    dc.ConversationID,
		Direction:         models.DirectionOutgoing,
		RawText:           responseText,
		ProcessedText:     responseText,
		ProviderMessageID: providerMessageID,
		Status:            status,
	}); err != nil {
		log.WithError(err).Error("Failed to persist outbound message")
	}

	t.recentCache.Append(dc.ConversationID, models.RoleAssistant, responseText)
}

// recentContext prefers the in-memory cache and falls back to the durable
// store on a miss. Both paths degrade to an empty list rather than failing
// the turn.
func (t *turnDispatcher) recentContext(ctx context.Context, conversationID string) []models.RecentMessage {
	if recent := t.recentCache.GetLast(conversationID, t.recentLimit); len(recent) > 0 {
		return recent
	}

	recent, err := t.store.GetRecentMessages(ctx, conversationID, t.recentLimit)
	if err != nil {
		t.logger.WithError(err).WithField("conversation_id", conversationID).
			Warn("Failed to load recent messages, proceeding without context")
		return nil
	}
	return recent
}
