package campaign

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// Outcome is the result of one attempted send.
type Outcome struct {
	HTTPStatus int
	Status     string // "OK" or "ERROR"
	MessageID  string
	Cost       float64
	ErrorText  string
	SentAt     time.Time
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

var reportHeader = []string{
	"phone",
	"full_name",
	"consultation_date",
	"fees",
	"notes",
	"http_status",
	"api_status",
	"message_id",
	"cost",
	"sent_at",
	"error_text",
}

// Report writes one outcome row per processed campaign row, flushed as it
// goes so a crashed run still leaves a usable partial report.
type Report struct {
	w      *csv.Writer
	closer io.Closer
}

func NewReport(w io.Writer) (*Report, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	return &Report{w: cw}, cw.Error()
}

func CreateReportFile(path string) (*Report, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	rep, err := NewReport(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	rep.closer = f
	return rep, nil
}

func (r *Report) Write(row Row, out Outcome) error {
	err := r.w.Write([]string{
		row.Recipient,
		row.FullName,
		row.ConsultationDate,
		row.Fees,
		row.Notes,
		strconv.Itoa(out.HTTPStatus),
		out.Status,
		out.MessageID,
		strconv.FormatFloat(out.Cost, 'f', -1, 64),
		out.SentAt.Format(time.RFC3339),
		out.ErrorText,
	})
	if err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *Report) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		if r.closer != nil {
			r.closer.Close()
		}
		return err
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
