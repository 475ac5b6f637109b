package contacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"casebridge/internal/util"
)

// Entry is one row of the externally supplied recipient table.
type Entry struct {
	DisplayName string
	Company     string
}

// Table is a plain identity -> entry lookup used to prefer the operator's
// contact name over the name carried in the inbound event.
type Table struct {
	entries map[string]Entry
}

func Empty() *Table {
	return &Table{entries: map[string]Entry{}}
}

// LoadCSV reads a delimited table with a header containing at least "phone"
// and "full_name" columns; a "company" column is optional.
func LoadCSV(r io.Reader, delimiter rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("contacts header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	phoneIdx, ok := idx["phone"]
	if !ok {
		return nil, fmt.Errorf("contacts header: missing column %q", "phone")
	}
	nameIdx, ok := idx["full_name"]
	if !ok {
		return nil, fmt.Errorf("contacts header: missing column %q", "full_name")
	}
	companyIdx, hasCompany := idx["company"]

	t := Empty()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("contacts row: %w", err)
		}
		phone := util.NormalizePhone(field(rec, phoneIdx))
		if phone == "" {
			continue
		}
		e := Entry{DisplayName: strings.TrimSpace(field(rec, nameIdx))}
		if hasCompany {
			e.Company = strings.TrimSpace(field(rec, companyIdx))
		}
		t.entries[phone] = e
	}
	return t, nil
}

func LoadCSVFile(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f, delimiter)
}

func (t *Table) Lookup(identity string) (Entry, bool) {
	e, ok := t.entries[util.NormalizePhone(identity)]
	return e, ok
}

// DisplayName prefers the table's name for the identity and falls back to the
// name carried on the event itself.
func (t *Table) DisplayName(identity, eventName string) string {
	if e, ok := t.Lookup(identity); ok && e.DisplayName != "" {
		return e.DisplayName
	}
	return eventName
}

func (t *Table) Len() int { return len(t.entries) }

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
