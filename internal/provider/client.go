package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Client talks to the WhatsApp messaging provider. Requests authenticate with
// an "App <key>" authorization header against the account's dedicated base URL.
type Client struct {
	APIKey  string
	BaseURL string
	Sender  string
	HTTP    *http.Client
}

type TemplateRequest struct {
	To           string
	TemplateName string
	Language     string
	Placeholders []string
}

// SendResult is the parsed synchronous send response. PricePerMessage is very
// often zero here; the real price arrives later on the delivery receipt.
type SendResult struct {
	MessageID       string
	Status          string
	PricePerMessage float64
	Currency        string
}

type templatePayload struct {
	Messages []templateMessage `json:"messages"`
}

type templateMessage struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Content templateContent `json:"content"`
}

type templateContent struct {
	TemplateName string       `json:"templateName"`
	Language     string       `json:"language"`
	TemplateData templateData `json:"templateData"`
}

type templateData struct {
	Body templateBody `json:"body"`
}

type templateBody struct {
	Placeholders []string `json:"placeholders"`
}

type textPayload struct {
	From    string      `json:"from"`
	To      string      `json:"to"`
	Content textContent `json:"content"`
}

type textContent struct {
	Text string `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		To        string `json:"to"`
		MessageID string `json:"messageId"`
		Status    struct {
			GroupName   string `json:"groupName"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"status"`
		Price *struct {
			PricePerMessage float64 `json:"pricePerMessage"`
			Currency        string  `json:"currency"`
		} `json:"price"`
	} `json:"messages"`
}

// SendTemplate sends one templated message with ordered placeholder values.
// The parsed result, HTTP status, and raw body are all returned so callers can
// record the outcome even on provider errors.
func (c *Client) SendTemplate(ctx context.Context, req TemplateRequest) (SendResult, int, []byte, error) {
	payload := templatePayload{Messages: []templateMessage{{
		From: c.Sender,
		To:   req.To,
		Content: templateContent{
			TemplateName: req.TemplateName,
			Language:     req.Language,
			TemplateData: templateData{Body: templateBody{Placeholders: req.Placeholders}},
		},
	}}}
	return c.post(ctx, "/whatsapp/1/message/template", payload)
}

// SendText sends a free-text message, used for acknowledgements inside an
// active conversation window.
func (c *Client) SendText(ctx context.Context, to, body string) (SendResult, int, []byte, error) {
	payload := textPayload{
		From:    c.Sender,
		To:      to,
		Content: textContent{Text: body},
	}
	return c.post(ctx, "/whatsapp/1/message/text", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) (SendResult, int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, 0, nil, err
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	httpReq.Header.Set("Authorization", "App "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return SendResult{}, 0, nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var parsed sendResponse
	_ = json.Unmarshal(raw, &parsed)

	out := SendResult{}
	if len(parsed.Messages) > 0 {
		m := parsed.Messages[0]
		out.MessageID = m.MessageID
		out.Status = m.Status.GroupName
		if m.Price != nil {
			out.PricePerMessage = m.Price.PricePerMessage
			out.Currency = m.Price.Currency
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, resp.StatusCode, raw, errors.New("provider send failed: " + strings.TrimSpace(string(raw)))
	}
	return out, resp.StatusCode, raw, nil
}
