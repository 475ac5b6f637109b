package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casebridge/internal/domain"
)

type fakeBridge struct {
	events   []domain.InboundEvent
	receipts []domain.DeliveryReceipt
}

func (f *fakeBridge) ProcessEvent(_ context.Context, ev domain.InboundEvent) {
	f.events = append(f.events, ev)
}

func (f *fakeBridge) ProcessReceipt(_ context.Context, rec domain.DeliveryReceipt) {
	f.receipts = append(f.receipts, rec)
}

func newWebhookRouter(bridge *fakeBridge) *mux.Router {
	m := mux.NewRouter()
	(&Webhook{Bridge: bridge}).Register(m)
	return m
}

func TestWebhookVerify(t *testing.T) {
	m := newWebhookRouter(&fakeBridge{})

	req := httptest.NewRequest(http.MethodGet, "/webhook/provider", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestWebhookRoutesResultsByKind(t *testing.T) {
	bridge := &fakeBridge{}
	m := newWebhookRouter(bridge)

	payload := `{"results":[
		{"from":"212600000001","receivedAt":"2025-11-16T10:26:07.000+0000","message":{"type":"TEXT","text":"bonjour"}},
		{"to":"212600000001","messageId":"m-1","doneAt":"2025-11-16T10:27:00.000+0000","price":{"pricePerMessage":0.045,"currency":"USD"}},
		{}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/provider", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Len(t, bridge.events, 1)
	assert.Equal(t, "212600000001", bridge.events[0].Identity)
	assert.Equal(t, "bonjour", bridge.events[0].Text)

	require.Len(t, bridge.receipts, 1)
	assert.Equal(t, "m-1", bridge.receipts[0].MessageID)
	assert.Equal(t, 0.045, bridge.receipts[0].PricePerMessage)
}

func TestWebhookEmptyResults(t *testing.T) {
	bridge := &fakeBridge{}
	m := newWebhookRouter(bridge)

	for _, body := range []string{`{}`, `{"results":[]}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/webhook/provider", strings.NewReader(body))
		rec := httptest.NewRecorder()
		m.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		assert.JSONEq(t, `{"status":"no_results"}`, rec.Body.String(), "body %q", body)
	}
	assert.Empty(t, bridge.events)
	assert.Empty(t, bridge.receipts)
}
