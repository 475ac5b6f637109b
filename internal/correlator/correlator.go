package correlator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"casebridge/internal/domain"
	"casebridge/internal/history"
	"casebridge/internal/observability"
)

// DefaultWindow is the maximum gap between consecutive inbound messages for a
// conversation to keep reusing the same ticket.
const DefaultWindow = 2 * time.Hour

type TicketCreator interface {
	CreateTicket(ctx context.Context, identity, displayName, companyName string) (string, error)
}

type ticketRecord struct {
	ticketID     string
	lastActivity string
}

// Correlator maps inbound conversation events to CRM tickets. It holds at most
// one current ticket per identity; a lapsed window supersedes the record with a
// freshly created ticket, the old id is not kept.
type Correlator struct {
	mu      sync.Mutex
	window  time.Duration
	history *history.Log
	creator TicketCreator
	tickets map[string]*ticketRecord
}

func New(hist *history.Log, creator TicketCreator, window time.Duration) *Correlator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Correlator{
		window:  window,
		history: hist,
		creator: creator,
		tickets: make(map[string]*ticketRecord),
	}
}

// Resolve returns the ticket to use for the identity: the cached one when the
// conversation window is still active, otherwise a newly created one. It must
// be called before the current event is appended to the history, so the window
// is measured against the previous message.
func (c *Correlator) Resolve(ctx context.Context, identity, displayName, companyName, eventTS string) (ticketID string, reused bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.hasActiveWindow(identity, eventTS)
	cached := c.tickets[identity]

	if active && cached != nil && cached.ticketID != "" {
		cached.lastActivity = eventTS
		observability.TicketResolutions.WithLabelValues("reused").Inc()
		slog.Info("ticket reused", "identity", identity, "ticket_id", cached.ticketID)
		return cached.ticketID, true, nil
	}

	id, err := c.creator.CreateTicket(ctx, identity, displayName, companyName)
	if err != nil {
		observability.TicketResolutions.WithLabelValues("error").Inc()
		return "", false, err
	}

	c.tickets[identity] = &ticketRecord{ticketID: id, lastActivity: eventTS}
	observability.TicketResolutions.WithLabelValues("created").Inc()
	slog.Info("ticket created", "identity", identity, "ticket_id", id, "active_window", active, "had_cached", cached != nil)
	return id, false, nil
}

// hasActiveWindow reports whether the identity's last recorded message is
// within the window of the current event. Both timestamps must parse; anything
// unparsable degrades to inactive. The raw signed difference is compared, so an
// out-of-order event timestamped before the last one also counts as active.
func (c *Correlator) hasActiveWindow(identity, currentTS string) bool {
	lastTS, ok := c.history.LastTimestamp(identity)
	if !ok {
		return false
	}
	current, ok := domain.ParseTimestamp(currentTS)
	if !ok {
		slog.Warn("unparsable event timestamp", "identity", identity, "timestamp", currentTS)
		return false
	}
	last, ok := domain.ParseTimestamp(lastTS)
	if !ok {
		slog.Warn("unparsable stored timestamp", "identity", identity, "timestamp", lastTS)
		return false
	}
	return current.Sub(last) <= c.window
}
