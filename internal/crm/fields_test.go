package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMappingValidate(t *testing.T) {
	m := FieldMapping{
		Version:      "v1",
		PhoneField:   "Telephone__c",
		NameField:    "Nom__c",
		RecordTypeID: "012000000000001AAA",
	}
	require.NoError(t, m.Validate())
}

func TestFieldMappingValidateMissing(t *testing.T) {
	m := FieldMapping{Version: "v1", PhoneField: "  "}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PhoneField")
	assert.Contains(t, err.Error(), "NameField")
	assert.Contains(t, err.Error(), "RecordTypeID")
	assert.Contains(t, err.Error(), "v1")
}
