package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wagate/internal/models"
)

func audioEvent() *models.InboundEvent {
	return &models.InboundEvent{
		EventType:   models.EventMessage,
		MessageID:   "msg-1",
		ContentType: models.ContentAudio,
		Content: models.MessageContent{
			URL:         "https://provider.example.com/media/abc",
			ContentType: "audio/ogg",
		},
	}
}

func TestNormalizeTextPassthrough(t *testing.T) {
	n := NewMediaNormalizer(&mockMediaStore{}, &mockTranscriber{}, testLogger())

	result, err := n.Normalize(context.Background(), &models.InboundEvent{
		ContentType: models.ContentText,
		Content:     models.MessageContent{Text: "Hola"},
	}, "org-1", "conv-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Hola", result.ProcessedText)
	assert.Nil(t, result.MediaURL)
}

func TestNormalizeAudioTranscribed(t *testing.T) {
	store := &mockMediaStore{}
	store.On("Download", mock.Anything, "https://provider.example.com/media/abc").
		Return([]byte("opus"), "audio/ogg", nil)
	store.On("Save", mock.Anything, "org-1", "conv-1", "audio/ogg", []byte("opus")).
		Return("https://media.example.com/org-1/conv-1/1.ogg", nil)

	tr := &mockTranscriber{}
	tr.On("Transcribe", mock.Anything, []byte("opus"), "audio/ogg").
		Return("quisiera una cita mañana", nil)

	n := NewMediaNormalizer(store, tr, testLogger())
	result, err := n.Normalize(context.Background(), audioEvent(), "org-1", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, "[Audio transcribed]: quisiera una cita mañana", result.ProcessedText)
	require.NotNil(t, result.MediaURL)
	assert.Equal(t, "https://media.example.com/org-1/conv-1/1.ogg", *result.MediaURL)
	assert.Equal(t, models.ContentAudio, result.MediaType)
	assert.Equal(t, "audio/ogg", result.MimeType)
}

func TestNormalizeAudioTranscriptionFailureKeepsMediaURL(t *testing.T) {
	store := &mockMediaStore{}
	store.On("Download", mock.Anything, mock.Anything).Return([]byte("opus"), "audio/ogg", nil)
	store.On("Save", mock.Anything, "org-1", "conv-1", "audio/ogg", []byte("opus")).
		Return("https://media.example.com/org-1/conv-1/1.ogg", nil)

	tr := &mockTranscriber{}
	tr.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("codec error"))

	n := NewMediaNormalizer(store, tr, testLogger())
	result, err := n.Normalize(context.Background(), audioEvent(), "org-1", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, audioFallbackText, result.ProcessedText)
	require.NotNil(t, result.MediaURL)
}

func TestNormalizeAudioStorageFailureDropsMediaURL(t *testing.T) {
	store := &mockMediaStore{}
	store.On("Download", mock.Anything, mock.Anything).Return([]byte("opus"), "audio/ogg", nil)
	store.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable"))

	n := NewMediaNormalizer(store, &mockTranscriber{}, testLogger())
	result, err := n.Normalize(context.Background(), audioEvent(), "org-1", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, mediaIOFallbackText, result.ProcessedText)
	assert.Nil(t, result.MediaURL)
}

func TestNormalizeAudioDownloadFailure(t *testing.T) {
	store := &mockMediaStore{}
	store.On("Download", mock.Anything, mock.Anything).Return(nil, "", errors.New("403"))

	n := NewMediaNormalizer(store, &mockTranscriber{}, testLogger())
	result, err := n.Normalize(context.Background(), audioEvent(), "org-1", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, mediaIOFallbackText, result.ProcessedText)
	assert.Nil(t, result.MediaURL)
}

func TestNormalizeDocumentOffersHumanFollowUp(t *testing.T) {
	store := &mockMediaStore{}
	store.On("Download", mock.Anything, mock.Anything).Return([]byte("%PDF"), "application/pdf", nil)
	store.On("Save", mock.Anything, "org-1", "conv-1", "application/pdf", []byte("%PDF")).
		Return("https://media.example.com/org-1/conv-1/2.pdf", nil)

	tr := &mockTranscriber{}
	n := NewMediaNormalizer(store, tr, testLogger())

	result, err := n.Normalize(context.Background(), &models.InboundEvent{
		ContentType: models.ContentDocument,
		Content:     models.MessageContent{URL: "https://provider.example.com/media/doc", ContentType: "application/pdf"},
	}, "org-1", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, humanFollowUpText, result.ProcessedText)
	require.NotNil(t, result.MediaURL)
	tr.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizeLocation(t *testing.T) {
	n := NewMediaNormalizer(&mockMediaStore{}, &mockTranscriber{}, testLogger())

	result, err := n.Normalize(context.Background(), &models.InboundEvent{
		ContentType: models.ContentLocation,
		Content:     models.MessageContent{Latitude: 19.4326, Longitude: -99.1332},
	}, "org-1", "conv-1")
	require.NoError(t, err)

	assert.Contains(t, result.ProcessedText, "19.4326")
	assert.Contains(t, result.ProcessedText, "-99.1332")
	assert.Nil(t, result.MediaURL)
}

func TestNormalizeContactCard(t *testing.T) {
	n := NewMediaNormalizer(&mockMediaStore{}, &mockTranscriber{}, testLogger())

	result, err := n.Normalize(context.Background(), &models.InboundEvent{
		ContentType: models.ContentContact,
		Content:     models.MessageContent{Name: "Ana López", Phone: "5215598765432"},
	}, "org-1", "conv-1")
	require.NoError(t, err)

	assert.Contains(t, result.ProcessedText, "Ana López")
	assert.Contains(t, result.ProcessedText, "5215598765432")
}

func TestNormalizeUnknownTypeSkips(t *testing.T) {
	n := NewMediaNormalizer(&mockMediaStore{}, &mockTranscriber{}, testLogger())

	result, err := n.Normalize(context.Background(), &models.InboundEvent{
		ContentType: "sticker",
	}, "org-1", "conv-1")
	require.NoError(t, err)
	assert.Nil(t, result)
}
