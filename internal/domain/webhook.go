package domain

// WebhookPayload is the top-level body the messaging provider posts. Both
// conversation messages and delivery-status events arrive on the same endpoint
// inside results; they are told apart structurally, see Classify.
type WebhookPayload struct {
	Results []WebhookResult `json:"results"`
}

type WebhookResult struct {
	From       string          `json:"from"`
	Sender     string          `json:"sender"`
	To         string          `json:"to"`
	ReceivedAt string          `json:"receivedAt"`
	Contact    *WebhookContact `json:"contact"`
	Message    *WebhookMessage `json:"message"`

	// delivery-status fields
	MessageID string        `json:"messageId"`
	Price     *WebhookPrice `json:"price"`
	DoneAt    string        `json:"doneAt"`
}

type WebhookContact struct {
	Name string `json:"name"`
}

type WebhookMessage struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content *WebhookContent `json:"content"`
	URL     string          `json:"url"`
	Caption string          `json:"caption"`

	Document *WebhookMedia `json:"document"`
	Image    *WebhookMedia `json:"image"`
}

type WebhookContent struct {
	Text string `json:"text"`
}

type WebhookMedia struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type WebhookPrice struct {
	PricePerMessage float64 `json:"pricePerMessage"`
	Currency        string  `json:"currency"`
}

type EventKind int

const (
	KindUnknown EventKind = iota
	KindInbound
	KindReceipt
)

// Classify routes one result: a price/messageId/recipient triple marks a
// delivery receipt, a message body marks a conversation message.
func Classify(r WebhookResult) EventKind {
	if r.Price != nil && r.MessageID != "" && r.To != "" {
		return KindReceipt
	}
	if r.Message != nil {
		return KindInbound
	}
	return KindUnknown
}

// AsInbound flattens a conversation result into an InboundEvent. Text and media
// URLs appear at different nesting depths depending on the provider payload
// version, so all known spots are checked.
func AsInbound(r WebhookResult) InboundEvent {
	identity := r.From
	if identity == "" {
		identity = r.Sender
	}

	ev := InboundEvent{
		Identity:  identity,
		Type:      TypeOther,
		Timestamp: r.ReceivedAt,
	}
	if r.Contact != nil {
		ev.ContactName = r.Contact.Name
	}
	m := r.Message
	if m == nil {
		return ev
	}
	ev.Type = NormalizeType(m.Type)

	switch ev.Type {
	case TypeText:
		ev.Text = m.Text
		if ev.Text == "" && m.Content != nil {
			ev.Text = m.Content.Text
		}
	case TypeDocument, TypeImage:
		ev.DocumentURL = m.URL
		if ev.DocumentURL == "" && m.Document != nil {
			ev.DocumentURL = m.Document.URL
		}
		if ev.DocumentURL == "" && m.Image != nil {
			ev.DocumentURL = m.Image.URL
		}
		ev.Caption = m.Caption
		if ev.Caption == "" && m.Document != nil {
			ev.Caption = m.Document.Caption
		}
		if ev.Caption == "" && m.Image != nil {
			ev.Caption = m.Image.Caption
		}
	}
	return ev
}

// AsReceipt flattens a delivery-status result.
func AsReceipt(r WebhookResult) DeliveryReceipt {
	rec := DeliveryReceipt{
		Identity:  r.To,
		MessageID: r.MessageID,
		DoneAt:    r.DoneAt,
	}
	if r.Price != nil {
		rec.PricePerMessage = r.Price.PricePerMessage
		rec.Currency = r.Price.Currency
	}
	return rec
}
