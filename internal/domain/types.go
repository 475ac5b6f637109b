package domain

import (
	"strings"
	"time"
)

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeDocument MessageType = "document"
	TypeImage    MessageType = "image"
	TypeOther    MessageType = "other"
)

// TimestampLayout is the fixed provider timestamp format,
// e.g. "2025-11-16T10:26:07.000+0000".
const TimestampLayout = "2006-01-02T15:04:05.000-0700"

// ParseTimestamp parses a provider timestamp. A failure is not an error for the
// pipeline; callers degrade to "inactive window" instead.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// InboundEvent is one conversation message from the webhook. Immutable once built.
type InboundEvent struct {
	Identity    string
	Type        MessageType
	Text        string
	DocumentURL string
	Caption     string
	ContactName string
	Timestamp   string
}

// DeliveryReceipt is a delivery-status event carrying pricing. It never enters
// the conversation path.
type DeliveryReceipt struct {
	Identity        string
	MessageID       string
	PricePerMessage float64
	Currency        string
	DoneAt          string
}

func NormalizeType(raw string) MessageType {
	switch strings.ToLower(raw) {
	case "text":
		return TypeText
	case "document":
		return TypeDocument
	case "image":
		return TypeImage
	default:
		return TypeOther
	}
}
