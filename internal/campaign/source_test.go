package campaign

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validInput = "full_name;phone;consultation_date;fees;notes\n" +
	"Jean Dupont;212600000001;2025-11-20;350 MAD;dossier complet\n" +
	"Sans Numero;;2025-11-21;350 MAD;\n" +
	"Aya Benali;212600000002;2025-11-22;400 MAD;radio manquante\n"

func TestSourceStreamsRows(t *testing.T) {
	src, err := NewSource(strings.NewReader(validInput), DefaultDelimiter)
	require.NoError(t, err)

	var rows []Row
	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}

	require.Len(t, rows, 3)
	assert.Equal(t, "212600000001", rows[0].Recipient)
	assert.Equal(t, "Jean Dupont", rows[0].FullName)
	assert.Equal(t, "", rows[1].Recipient)
	assert.Equal(t, "radio manquante", rows[2].Notes)
}

func TestSourceMissingColumns(t *testing.T) {
	input := "full_name;phone;notes\nJean;212600000001;x\n"
	_, err := NewSource(strings.NewReader(input), DefaultDelimiter)
	require.Error(t, err)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"consultation_date", "fees"}, missing.Missing)
	assert.Contains(t, missing.Found, "phone")
}

func TestSourceHeaderBOM(t *testing.T) {
	input := "\ufefffull_name;phone;consultation_date;fees;notes\nJean;212600000001;d;f;n\n"
	src, err := NewSource(strings.NewReader(input), DefaultDelimiter)
	require.NoError(t, err)

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Jean", row.FullName)
}

func TestSourceShortRecordYieldsEmptyFields(t *testing.T) {
	input := "full_name;phone;consultation_date;fees;notes\nJean;212600000001\n"
	src, err := NewSource(strings.NewReader(input), DefaultDelimiter)
	require.NoError(t, err)

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "212600000001", row.Recipient)
	assert.Equal(t, "", row.Notes)
}

func TestSourceTrimsWhitespace(t *testing.T) {
	input := "full_name;phone;consultation_date;fees;notes\n Jean ; 212600000001 ;d;f;n\n"
	src, err := NewSource(strings.NewReader(input), DefaultDelimiter)
	require.NoError(t, err)

	row, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "Jean", row.FullName)
	assert.Equal(t, "212600000001", row.Recipient)
}
