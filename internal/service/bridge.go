package service

import (
	"context"
	"log/slog"
	"sync"

	"casebridge/internal/contacts"
	"casebridge/internal/domain"
	"casebridge/internal/history"
	"casebridge/internal/observability"
	"casebridge/internal/pricing"
	"casebridge/internal/util"
)

type TicketResolver interface {
	Resolve(ctx context.Context, identity, displayName, companyName, eventTS string) (ticketID string, reused bool, err error)
}

type Attacher interface {
	AttachFile(ctx context.Context, ticketID string, data []byte, filename, title string) (string, error)
	UpdateStatus(ctx context.Context, ticketID, status string) error
}

type MediaFetcher interface {
	Download(ctx context.Context, rawURL, suggestedName string) ([]byte, string, bool)
}

// Bridge orchestrates one inbound webhook event end to end: history, ticket
// correlation, media attachment, optional status reset and acknowledgement.
// Per-event failures are logged and swallowed so one bad event never poisons
// the rest of the batch.
type Bridge struct {
	History  *history.Log
	Resolver TicketResolver
	CRM      Attacher
	Media    MediaFetcher
	Prices   pricing.Store
	Contacts *contacts.Table

	// Optional behavior after a successful attachment.
	ResetStatus string
	AckSender   func(ctx context.Context, to, body string) error
	AckText     string

	// The correlator's reuse-vs-create decision and the history append must
	// not interleave across concurrent webhook deliveries.
	mu sync.Mutex
}

// ProcessEvent handles one conversation message. It always records the event
// in history; ticket and attachment steps are abandoned on CRM failure.
func (b *Bridge) ProcessEvent(ctx context.Context, ev domain.InboundEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("event processing panic recovered", "identity", ev.Identity, "panic", rec)
		}
	}()

	if ev.Identity == "" {
		slog.Warn("inbound event without identity dropped")
		return
	}

	displayName := ev.ContactName
	companyName := ""
	if b.Contacts != nil {
		displayName = b.Contacts.DisplayName(ev.Identity, ev.ContactName)
		if e, ok := b.Contacts.Lookup(ev.Identity); ok {
			companyName = e.Company
		}
	}

	b.mu.Lock()
	// Resolve reads the previous message's timestamp, so it runs before the
	// current event is appended.
	ticketID, reused, resolveErr := b.Resolver.Resolve(ctx, ev.Identity, displayName, companyName, ev.Timestamp)
	b.History.Record(ev.Identity, ev)
	b.mu.Unlock()

	slog.Info("inbound event recorded",
		"identity", ev.Identity,
		"type", string(ev.Type),
		"history_len", b.History.Len(ev.Identity),
	)

	if resolveErr != nil {
		slog.Error("ticket resolve failed, event kept in history", "identity", ev.Identity, "err", resolveErr)
		return
	}
	slog.Info("ticket resolved", "identity", ev.Identity, "ticket_id", ticketID, "reused", reused)

	if ev.DocumentURL != "" {
		b.attachMedia(ctx, ev, ticketID)
	}
}

func (b *Bridge) attachMedia(ctx context.Context, ev domain.InboundEvent, ticketID string) {
	data, filename, ok := b.Media.Download(ctx, ev.DocumentURL, ev.Caption)
	if !ok {
		slog.Warn("no media payload, attachment skipped", "identity", ev.Identity, "ticket_id", ticketID)
		return
	}

	linkID, err := b.CRM.AttachFile(ctx, ticketID, data, filename, "Whatsapp - "+ev.Identity)
	if err != nil {
		slog.Error("attach failed", "identity", ev.Identity, "ticket_id", ticketID, "err", err)
		return
	}
	slog.Info("document attached", "ticket_id", ticketID, "filename", filename, "link_id", linkID)

	if b.ResetStatus != "" {
		if err := b.CRM.UpdateStatus(ctx, ticketID, b.ResetStatus); err != nil {
			slog.Warn("status reset failed", "ticket_id", ticketID, "err", err)
		}
	}

	if b.AckSender != nil && b.AckText != "" {
		if err := b.AckSender(ctx, ev.Identity, b.AckText); err != nil {
			slog.Warn("acknowledgement send failed", "identity", ev.Identity, "err", err)
		}
	}
}

// ProcessReceipt feeds a delivery-status event into the price store. Receipts
// never touch the history or the correlator. Non-positive prices are ignored
// so a receipt without price data cannot wipe the best-known estimate.
func (b *Bridge) ProcessReceipt(ctx context.Context, rec domain.DeliveryReceipt) {
	if rec.PricePerMessage <= 0 {
		observability.PriceUpdates.WithLabelValues("ignored").Inc()
		slog.Info("receipt without positive price ignored", "message_id", rec.MessageID)
		return
	}

	observedAt := util.NowUTC()
	if t, ok := domain.ParseTimestamp(rec.DoneAt); ok {
		observedAt = t
	}

	err := b.Prices.Put(ctx, pricing.Record{
		PricePerMessage: rec.PricePerMessage,
		Currency:        rec.Currency,
		UpdatedAt:       observedAt,
	})
	if err != nil {
		observability.PriceUpdates.WithLabelValues("error").Inc()
		slog.Error("price record failed", "message_id", rec.MessageID, "err", err)
		return
	}
	observability.PriceUpdates.WithLabelValues("recorded").Inc()
	slog.Info("price recorded from receipt",
		"message_id", rec.MessageID,
		"price_per_message", rec.PricePerMessage,
		"currency", rec.Currency,
	)
}
