package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
)

// A local stand-in for the messaging provider: accepts template and text
// sends, serves media bytes, and can post delivery receipts (with price data)
// back to the bridge webhook.
type mockConfig struct {
	Port   string `envconfig:"PORT" default:"8081"`
	APIKey string `envconfig:"PROVIDER_API_KEY" default:"mock_key"`

	OutcomeMode string `envconfig:"MOCK_OUTCOME_MODE" default:"ok"` // ok | error | alternate

	IncludeSendPrice bool    `envconfig:"MOCK_INCLUDE_SEND_PRICE" default:"false"`
	PricePerMessage  float64 `envconfig:"MOCK_PRICE_PER_MESSAGE" default:"0.045"`
	Currency         string  `envconfig:"MOCK_CURRENCY" default:"USD"`

	ReceiptWebhookURL string `envconfig:"MOCK_RECEIPT_WEBHOOK_URL" default:""`
	ReceiptDelayMs    int    `envconfig:"MOCK_RECEIPT_DELAY_MS" default:"300"`
}

type server struct {
	cfg    mockConfig
	idx    uint64
	client *http.Client
}

func main() {
	var cfg mockConfig
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("mock provider config load failed", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	s := &server{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}

	router := mux.NewRouter()
	router.HandleFunc("/whatsapp/1/message/template", s.handleSend).Methods(http.MethodPost)
	router.HandleFunc("/whatsapp/1/message/text", s.handleSend).Methods(http.MethodPost)
	router.HandleFunc("/whatsapp/1/media/{id}", s.handleMedia).Methods(http.MethodGet)

	slog.Info("mock provider listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		slog.Error("mock provider server failed", "err", err)
		os.Exit(1)
	}
}

type sendBody struct {
	Messages []struct {
		To string `json:"to"`
	} `json:"messages"`
	To string `json:"to"`
}

func (s *server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "App "+s.cfg.APIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var body sendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	to := body.To
	if to == "" && len(body.Messages) > 0 {
		to = body.Messages[0].To
	}
	if to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing recipient"})
		return
	}

	n := atomic.AddUint64(&s.idx, 1)
	if s.failThisSend(n) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "mock send failure"})
		return
	}

	msgID := fmt.Sprintf("mock-msg-%06d", n)
	msg := map[string]any{
		"to":        to,
		"messageId": msgID,
		"status":    map[string]string{"groupName": "PENDING", "name": "PENDING_ENROUTE"},
	}
	if s.cfg.IncludeSendPrice {
		msg["price"] = map[string]any{
			"pricePerMessage": s.cfg.PricePerMessage,
			"currency":        s.cfg.Currency,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": []any{msg}})

	if s.cfg.ReceiptWebhookURL != "" {
		go s.postReceipt(to, msgID)
	}
}

func (s *server) failThisSend(n uint64) bool {
	switch s.cfg.OutcomeMode {
	case "error":
		return true
	case "alternate":
		return n%2 == 0
	default:
		return false
	}
}

// postReceipt mimics the asynchronous delivery-status event that carries the
// real per-message price.
func (s *server) postReceipt(to, msgID string) {
	time.Sleep(time.Duration(s.cfg.ReceiptDelayMs) * time.Millisecond)

	payload := map[string]any{
		"results": []any{map[string]any{
			"to":        to,
			"messageId": msgID,
			"doneAt":    time.Now().UTC().Format("2006-01-02T15:04:05.000-0700"),
			"price": map[string]any{
				"pricePerMessage": s.cfg.PricePerMessage,
				"currency":        s.cfg.Currency,
			},
		}},
	}
	b, _ := json.Marshal(payload)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ReceiptWebhookURL, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("mock receipt post failed", "url", s.cfg.ReceiptWebhookURL, "err", err)
		return
	}
	resp.Body.Close()
	slog.Info("mock receipt posted", "message_id", msgID, "status", resp.StatusCode)
}

func (s *server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "App "+s.cfg.APIKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	id := mux.Vars(r)["id"]
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("%PDF-1.4 mock media " + id))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
