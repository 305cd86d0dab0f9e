package models

import "time"

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// Cache roles for recent-message entries, matching what the AI backend
// expects in its recentMessages list.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NormalizedMessage is one persisted conversation turn. Rows are append-only;
// only Status is ever updated, and only on outgoing rows.
type NormalizedMessage struct {
	ID                int64         `db:"id"`
	ConversationID    string        `db:"conversation_id"`
	Direction         Direction     `db:"direction"`
	RawText           string        `db:"raw_text"`
	ProcessedText     string        `db:"processed_text"`
	MediaType         string        `db:"media_type"`
	MediaURL          *string       `db:"media_url"`
	MediaMimeType     string        `db:"media_mime_type"`
	ProviderMessageID string        `db:"provider_message_id"`
	Status            MessageStatus `db:"status"`
	CreatedAt         time.Time     `db:"created_at"`
}

// RecentMessage is one {role, content} entry of the short-term context
// handed to the AI backend.
type RecentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizedResult is the media normalizer's output for a single inbound
// message.
type NormalizedResult struct {
	ProcessedText string
	MediaURL      *string
	MediaType     string
	MimeType      string
}
