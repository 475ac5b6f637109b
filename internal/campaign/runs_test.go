package campaign

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.jsonl")
	l := NewRunLog(path)

	first := Summary{RunID: "run_1", RowsWithRecipient: 3, SuccessCount: 2, ErrorCount: 1, TotalCost: 0.1, Timestamp: time.Date(2025, 11, 16, 12, 0, 0, 0, time.UTC)}
	second := Summary{RunID: "run_2", RowsWithRecipient: 1, SuccessCount: 1, TotalCost: 0.05, Timestamp: time.Date(2025, 11, 16, 13, 0, 0, 0, time.UTC)}

	require.NoError(t, l.Append(first))
	require.NoError(t, l.Append(second))

	got, err := l.List()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run_1", got[0].RunID)
	assert.Equal(t, "run_2", got[1].RunID)
	assert.Equal(t, 2, got[0].SuccessCount)
}

func TestRunLogListMissingFile(t *testing.T) {
	l := NewRunLog(filepath.Join(t.TempDir(), "nope.jsonl"))
	got, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunLogListSkipsTornLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	content := `{"runId":"run_1","rowsWithRecipient":1,"successCount":1,"errorCount":0,"totalCost":0.05,"timestamp":"2025-11-16T12:00:00Z"}` + "\n" +
		`{"runId":"run_2","rows` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := NewRunLog(path).List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run_1", got[0].RunID)
}
