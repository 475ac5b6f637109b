package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

func NormalizePhone(p string) string {
	// keep it simple; numbers arrive already in international form
	return strings.ReplaceAll(strings.TrimSpace(p), " ", "")
}

// NewRunID returns a sortable id for a campaign run.
func NewRunID() string {
	t := time.Now().UTC()
	return "run_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
