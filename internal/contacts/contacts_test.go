package contacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	input := "phone;full_name;company\n" +
		"212600000001;Jean Dupont;Clinique Atlas\n" +
		"212 600 000 002;Aya Benali;\n" +
		";Sans Telephone;X\n"

	table, err := LoadCSV(strings.NewReader(input), ';')
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	e, ok := table.Lookup("212600000001")
	require.True(t, ok)
	assert.Equal(t, "Jean Dupont", e.DisplayName)
	assert.Equal(t, "Clinique Atlas", e.Company)

	// lookup normalizes the queried number the same way as the loaded one
	e, ok = table.Lookup("212 600 000 002")
	require.True(t, ok)
	assert.Equal(t, "Aya Benali", e.DisplayName)
	assert.Equal(t, "", e.Company)
}

func TestLoadCSVWithoutCompanyColumn(t *testing.T) {
	input := "phone;full_name\n212600000001;Jean Dupont\n"
	table, err := LoadCSV(strings.NewReader(input), ';')
	require.NoError(t, err)

	e, ok := table.Lookup("212600000001")
	require.True(t, ok)
	assert.Equal(t, "", e.Company)
}

func TestLoadCSVMissingRequiredColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("phone;company\n212600000001;X\n"), ';')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full_name")
}

func TestDisplayNameFallsBackToEventName(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("phone;full_name\n212600000001;Jean Dupont\n"), ';')
	require.NoError(t, err)

	assert.Equal(t, "Jean Dupont", table.DisplayName("212600000001", "J. from WhatsApp"))
	assert.Equal(t, "Inconnu", table.DisplayName("212699999999", "Inconnu"))
	assert.Equal(t, "", Empty().DisplayName("212600000001", ""))
}
