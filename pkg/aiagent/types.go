package aiagent

import "wagate/internal/models"

// InvokeRequest is the payload for one AI turn. Identity fields are already
// resolved by the gateway; the backend does no lookups of its own.
type InvokeRequest struct {
	OrganizationID string                 `json:"organizationId"`
	ChatIdentityID string                 `json:"chatIdentityId"`
	ContactID      *string                `json:"contactId"`
	Phone          string                 `json:"phone"`
	CountryCode    string                 `json:"countryCode"`
	PhoneNumber    string                 `json:"phoneNumber"`
	FirstName      string                 `json:"firstName,omitempty"`
	Message        string                 `json:"message"`
	RecentMessages []models.RecentMessage `json:"recentMessages"`
}

// InvokeResponse carries the backend's reply text. Error responses from the
// backend use Status/Message instead of Response.
type InvokeResponse struct {
	Response string `json:"response"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}
