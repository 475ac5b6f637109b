package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"casebridge/internal/domain"
	"casebridge/internal/observability"
)

// EventProcessor is the bridge service behind the webhook.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev domain.InboundEvent)
	ProcessReceipt(ctx context.Context, rec domain.DeliveryReceipt)
}

type Webhook struct {
	Bridge EventProcessor
}

func (wh *Webhook) Register(m *mux.Router) {
	m.HandleFunc("/webhook/provider", wh.handleVerify).Methods(http.MethodGet)
	m.HandleFunc("/webhook/provider", wh.handleEvents).Methods(http.MethodPost)
}

// handleVerify answers the provider's URL validation probe.
func (wh *Webhook) handleVerify(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents consumes a batch of provider events. The provider retries
// non-2xx deliveries, so internal per-event failures are swallowed and the
// response is always a success acknowledgement.
func (wh *Webhook) handleEvents(w http.ResponseWriter, r *http.Request) {
	var payload domain.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("webhook payload decode failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_results"})
		return
	}
	if len(payload.Results) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_results"})
		return
	}

	for _, res := range payload.Results {
		switch domain.Classify(res) {
		case domain.KindReceipt:
			observability.WebhookEvents.WithLabelValues("receipt").Inc()
			wh.Bridge.ProcessReceipt(r.Context(), domain.AsReceipt(res))
		case domain.KindInbound:
			observability.WebhookEvents.WithLabelValues("inbound").Inc()
			wh.Bridge.ProcessEvent(r.Context(), domain.AsInbound(res))
		default:
			observability.WebhookEvents.WithLabelValues("unknown").Inc()
			slog.Warn("unclassifiable webhook result dropped")
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
