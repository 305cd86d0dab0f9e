package models

// Provider webhook event types
const (
	EventMessage = "message"
)

// Inbound content types
const (
	ContentText     = "text"
	ContentAudio    = "audio"
	ContentImage    = "image"
	ContentVideo    = "video"
	ContentDocument = "document"
	ContentLocation = "location"
	ContentContact  = "contact"
)

// ProviderWebhookPayload is the raw body delivered by the messaging provider.
type ProviderWebhookPayload struct {
	App     string `json:"app"`
	Type    string `json:"type"`
	Payload struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Source string `json:"source"`
		Sender struct {
			Phone       string `json:"phone"`
			CountryCode string `json:"country_code"`
			DialCode    string `json:"dial_code"`
			Name        string `json:"name"`
		} `json:"sender"`
		Payload MessageContent `json:"payload"`
	} `json:"payload"`
}

// MessageContent carries the content variants of an inbound message. Which
// fields are set depends on the content type; the normalizer dispatches on
// InboundEvent.ContentType, not on field probing.
type MessageContent struct {
	Text        string  `json:"text,omitempty"`
	URL         string  `json:"url,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Caption     string  `json:"caption,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Name        string  `json:"name,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

// InboundEvent is the provider payload reduced to the fields the pipeline
// reads. It is created per HTTP delivery and discarded after processing.
type InboundEvent struct {
	EventType      string
	MessageID      string
	TenantAppName  string
	SenderPhone    string
	CountryCode    string
	NationalNumber string
	ContentType    string
	Content        MessageContent
}

// FromWebhook flattens a provider webhook body into an InboundEvent.
func FromWebhook(p *ProviderWebhookPayload) *InboundEvent {
	return &InboundEvent{
		EventType:      p.Type,
		MessageID:      p.Payload.ID,
		TenantAppName:  p.App,
		SenderPhone:    p.Payload.Sender.Phone,
		CountryCode:    p.Payload.Sender.CountryCode,
		NationalNumber: p.Payload.Sender.DialCode,
		ContentType:    p.Payload.Type,
		Content:        p.Payload.Payload,
	}
}

// EscalationRequest is the body of the internal escalation notification
// posted by the AI backend.
type EscalationRequest struct {
	OrganizationID string `json:"organization_id"`
	ChatIdentityID string `json:"chat_identity_id"`
	PhoneNumber    string `json:"phone_number"`
	CountryCode    string `json:"country_code"`
	Reason         string `json:"reason"`
}

// WebhookResponse is the synchronous acknowledgment returned to the provider.
type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
