package crm

import (
	"fmt"
	"strings"
)

// FieldMapping names the CRM custom fields a ticket is written with. It is
// resolved from configuration once at startup and validated there; a missing
// required field is fatal before the first webhook, not a per-call surprise.
type FieldMapping struct {
	Version string

	PhoneField   string
	NameField    string
	CompanyField string

	RecordTypeID  string
	Origin        string
	InitialStatus string

	// Static holds fixed field=value pairs stamped on every created ticket,
	// e.g. declaration type.
	Static map[string]string
}

func (m FieldMapping) Validate() error {
	var missing []string
	if strings.TrimSpace(m.PhoneField) == "" {
		missing = append(missing, "PhoneField")
	}
	if strings.TrimSpace(m.NameField) == "" {
		missing = append(missing, "NameField")
	}
	if strings.TrimSpace(m.RecordTypeID) == "" {
		missing = append(missing, "RecordTypeID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("crm field mapping %q incomplete: missing %s", m.Version, strings.Join(missing, ", "))
	}
	return nil
}
