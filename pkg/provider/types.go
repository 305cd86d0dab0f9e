package provider

// SendRequest addresses one outbound text message. Source and APIKey are
// tenant credentials resolved per conversation, not process-wide state.
type SendRequest struct {
	APIKey      string
	Source      string
	Destination string
	Message     string
}

// SendResponse is the provider's acknowledgment of a send.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}
