package pricing

import (
	"context"
	"time"
)

// Record is the single last-known per-message price. There is no history; a
// newer positive observation overwrites the whole record.
type Record struct {
	PricePerMessage float64   `json:"pricePerMessage"`
	Currency        string    `json:"currency"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store holds the current price record. Reads and writes are whole-record and
// atomic: a batch run may read while a webhook receipt writes.
//
// Put must ignore non-positive prices so a receipt without price data never
// wipes the best-known estimate. Get returns a zero Record when nothing has
// been observed yet.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context) (Record, error)
}

// Current is the campaign-side read: the stored price per message, or 0.
func Current(ctx context.Context, s Store) float64 {
	rec, err := s.Get(ctx)
	if err != nil {
		return 0
	}
	return rec.PricePerMessage
}
