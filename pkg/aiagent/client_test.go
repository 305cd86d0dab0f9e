package aiagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagate/internal/models"
)

func TestInvoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req InvokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "org-1", req.OrganizationID)
		assert.Equal(t, "ci-1", req.ChatIdentityID)
		assert.Equal(t, "Hola", req.Message)
		require.Len(t, req.RecentMessages, 1)
		assert.Equal(t, models.RoleUser, req.RecentMessages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"¡Hola! ¿En qué puedo ayudarte?"}`))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	resp, err := c.Invoke(context.Background(), &InvokeRequest{
		OrganizationID: "org-1",
		ChatIdentityID: "ci-1",
		Phone:          "+5215512345678",
		Message:        "Hola",
		RecentMessages: []models.RecentMessage{{Role: models.RoleUser, Content: "hey"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿En qué puedo ayudarte?", resp.Response)
}

func TestInvokeBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"model overloaded"}`))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	_, err := c.Invoke(context.Background(), &InvokeRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestInvokeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	_, err := c.Invoke(context.Background(), &InvokeRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
