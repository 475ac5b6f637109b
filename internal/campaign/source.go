package campaign

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Required column names in the campaign input header. The placeholder columns
// map positionally onto the message template: name, consultation date, fees,
// notes.
var RequiredColumns = []string{
	"full_name",
	"phone",
	"consultation_date",
	"fees",
	"notes",
}

// DefaultDelimiter matches the spreadsheet exports the operators produce.
const DefaultDelimiter = ';'

// Row is one recipient line of the campaign input.
type Row struct {
	Recipient        string
	FullName         string
	ConsultationDate string
	Fees             string
	Notes            string
}

// Placeholders returns the ordered, sanitized template values for the row.
func (r Row) Placeholders() []string {
	return []string{
		CleanPlaceholder(r.FullName),
		CleanPlaceholder(r.ConsultationDate),
		CleanPlaceholder(r.Fees),
		CleanPlaceholder(r.Notes),
	}
}

// MissingColumnsError names the required columns absent from the input header.
// It fails the whole run before anything is sent.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("campaign input missing columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Source streams rows from a delimited campaign input. The header is validated
// when the source is opened.
type Source struct {
	reader *csv.Reader
	index  map[string]int
	closer io.Closer
}

// NewSource validates the header of r and returns a streaming row source.
func NewSource(r io.Reader, delimiter rune) (*Source, error) {
	cr := csv.NewReader(r)
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("campaign input header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		// spreadsheet exports frequently carry a BOM on the first header cell
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		found := make([]string, 0, len(index))
		for name := range index {
			found = append(found, name)
		}
		return nil, &MissingColumnsError{Missing: missing, Found: found}
	}

	return &Source{reader: cr, index: index}, nil
}

// OpenFile opens a campaign CSV from disk.
func OpenFile(path string, delimiter rune) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewSource(f, delimiter)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// Next returns the next row in source order. io.EOF ends the stream.
func (s *Source) Next() (Row, error) {
	rec, err := s.reader.Read()
	if err != nil {
		return Row{}, err
	}
	return Row{
		Recipient:        strings.TrimSpace(s.field(rec, "phone")),
		FullName:         strings.TrimSpace(s.field(rec, "full_name")),
		ConsultationDate: strings.TrimSpace(s.field(rec, "consultation_date")),
		Fees:             strings.TrimSpace(s.field(rec, "fees")),
		Notes:            strings.TrimSpace(s.field(rec, "notes")),
	}, nil
}

func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Source) field(rec []string, col string) string {
	i, ok := s.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
