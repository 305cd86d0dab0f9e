package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"wagate/internal/models"
	"wagate/pkg/mediastore"
	"wagate/pkg/transcribe"
)

// Fallback texts used when media cannot be understood or fetched. They read
// as user content to the AI backend, so they describe the situation in the
// conversation's voice rather than as an error code.
const (
	audioFallbackText    = "[Audio message received but could not be transcribed]"
	imageFallbackText    = "[Image received but could not be described]"
	mediaIOFallbackText  = "[Media message received but could not be retrieved]"
	humanFollowUpText    = "[The user sent a file that requires human review. Offer to have a team member follow up.]"
	audioProcessedPrefix = "[Audio transcribed]: "
	imageProcessedPrefix = "[Image description]: "
)

// MediaNormalizer turns one inbound message of any content type into plain
// text plus optional stored-media metadata.
type MediaNormalizer interface {
	Normalize(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID string) (*models.NormalizedResult, error)
}

type mediaNormalizer struct {
	store       mediastore.Store
	transcriber transcribe.Client
	logger      *logrus.Logger
}

func NewMediaNormalizer(store mediastore.Store, transcriber transcribe.Client, logger *logrus.Logger) MediaNormalizer {
	return &mediaNormalizer{store: store, transcriber: transcriber, logger: logger}
}

// Normalize dispatches on the provider content type. A nil result with nil
// error means the message has no usable content and should be skipped.
// I/O failures never propagate: the result always carries a speakable
// fallback text so the conversation proceeds.
func (n *mediaNormalizer) Normalize(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID string) (*models.NormalizedResult, error) {
	switch ev.ContentType {
	case models.ContentText:
		return &models.NormalizedResult{ProcessedText: ev.Content.Text}, nil

	case models.ContentAudio:
		return n.normalizeUnderstood(ctx, ev, tenantID, conversationID, audioProcessedPrefix, audioFallbackText), nil

	case models.ContentImage:
		return n.normalizeUnderstood(ctx, ev, tenantID, conversationID, imageProcessedPrefix, imageFallbackText), nil

	case models.ContentVideo, models.ContentDocument:
		return n.normalizeStoredOnly(ctx, ev, tenantID, conversationID), nil

	case models.ContentLocation:
		return &models.NormalizedResult{
			ProcessedText: fmt.Sprintf("[The user shared a location: latitude %f, longitude %f]",
				ev.Content.Latitude, ev.Content.Longitude),
		}, nil

	case models.ContentContact:
		return &models.NormalizedResult{
			ProcessedText: fmt.Sprintf("[The user shared a contact: %s, phone %s]",
				ev.Content.Name, ev.Content.Phone),
		}, nil

	default:
		n.logger.WithField("content_type", ev.ContentType).Debug("Skipping message with unsupported content type")
		return nil, nil
	}
}

// normalizeUnderstood handles audio and image: fetch, store, then ask the
// transcription service for text. Transcription failure keeps the stored
// media URL; fetch/store failure drops it.
func (n *mediaNormalizer) normalizeUnderstood(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID, prefix, fallback string) *models.NormalizedResult {
	result := &models.NormalizedResult{MediaType: ev.ContentType, MimeType: ev.Content.ContentType}

	data, mediaURL, ok := n.fetchAndStore(ctx, ev, tenantID, conversationID)
	if !ok {
		result.ProcessedText = mediaIOFallbackText
		return result
	}
	result.MediaURL = &mediaURL

	mimeType := ev.Content.ContentType
	text, err := n.transcriber.Transcribe(ctx, data, mimeType)
	if err != nil || text == "" {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"content_type":    ev.ContentType,
		}).Warn("Media understanding failed, using fallback text")
		result.ProcessedText = fallback
		return result
	}

	result.ProcessedText = prefix + text
	return result
}

// normalizeStoredOnly handles video and document: store for the record, but
// offer human follow-up instead of attempting automated understanding.
func (n *mediaNormalizer) normalizeStoredOnly(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID string) *models.NormalizedResult {
	result := &models.NormalizedResult{
		MediaType:     ev.ContentType,
		MimeType:      ev.Content.ContentType,
		ProcessedText: humanFollowUpText,
	}

	if _, mediaURL, ok := n.fetchAndStore(ctx, ev, tenantID, conversationID); ok {
		result.MediaURL = &mediaURL
	}
	return result
}

func (n *mediaNormalizer) fetchAndStore(ctx context.Context, ev *models.InboundEvent, tenantID, conversationID string) ([]byte, string, bool) {
	data, contentType, err := n.store.Download(ctx, ev.Content.URL)
	if err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"content_type":    ev.ContentType,
		}).Warn("Failed to download media")
		return nil, "", false
	}

	mimeType := ev.Content.ContentType
	if mimeType == "" {
		mimeType = contentType
	}

	mediaURL, err := n.store.Save(ctx, tenantID, conversationID, mimeType, data)
	if err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"content_type":    ev.ContentType,
		}).Warn("Failed to store media")
		return nil, "", false
	}

	return data, mediaURL, true
}
