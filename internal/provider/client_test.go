package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{APIKey: "k", BaseURL: srv.URL, Sender: "212700000000", HTTP: srv.Client()}
}

func TestSendTemplateParsesResponse(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"to":"212600000001","messageId":"m-1","status":{"groupName":"PENDING"},"price":{"pricePerMessage":0.045,"currency":"USD"}}]}`))
	})

	res, status, _, err := c.SendTemplate(context.Background(), TemplateRequest{
		To:           "212600000001",
		TemplateName: "rappel_consultation",
		Language:     "fr",
		Placeholders: []string{"Jean", "2025-11-20", "350 MAD", "dossier"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/whatsapp/1/message/template", gotPath)
	assert.Equal(t, "App k", gotAuth)
	assert.Equal(t, 200, status)
	assert.Equal(t, "m-1", res.MessageID)
	assert.Equal(t, "PENDING", res.Status)
	assert.Equal(t, 0.045, res.PricePerMessage)
	assert.Equal(t, "USD", res.Currency)

	msgs := gotBody["messages"].([]any)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "212700000000", first["from"])
	assert.Equal(t, "212600000001", first["to"])
}

func TestSendTemplateWithoutPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[{"to":"212600000001","messageId":"m-2","status":{"groupName":"PENDING"}}]}`))
	})

	res, status, _, err := c.SendTemplate(context.Background(), TemplateRequest{To: "212600000001"})
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, "m-2", res.MessageID)
	assert.Equal(t, 0.0, res.PricePerMessage)
}

func TestSendTemplateProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"requestError":{"serviceException":{"text":"invalid destination"}}}`))
	})

	_, status, raw, err := c.SendTemplate(context.Background(), TemplateRequest{To: "bogus"})
	require.Error(t, err)
	assert.Equal(t, 400, status)
	assert.Contains(t, err.Error(), "invalid destination")
	assert.Contains(t, string(raw), "invalid destination")
}

func TestSendText(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"messages":[{"messageId":"m-3","status":{"groupName":"PENDING"}}]}`))
	})

	res, _, _, err := c.SendText(context.Background(), "212600000001", "Bien reçu, merci.")
	require.NoError(t, err)
	assert.Equal(t, "/whatsapp/1/message/text", gotPath)
	assert.Equal(t, "m-3", res.MessageID)
	assert.Equal(t, "Bien reçu, merci.", gotBody["content"].(map[string]any)["text"])
}
